package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"panoviewer/internal/panorama"
	"panoviewer/internal/placement"
	"panoviewer/internal/pto"
)

func main() {
	mode := flag.String("mode", "records", "Output: records (JSON), walk (every member), write (re-emit), panels (placement)")
	aux := flag.Bool("aux", true, "With -mode write, keep comments and unscanned lines")
	panelSize := flag.Float64("panel-size", 800, "Panel edge used by -mode panels")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ptoinspect [-mode records|walk|write|panels] <file.pto>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	var err error
	switch *mode {
	case "walk", "write":
		var f *pto.File
		f, err = pto.ScanFile(path)
		if err == nil && *mode == "walk" {
			err = f.Walk(os.Stdout)
		} else if err == nil {
			err = f.Write(os.Stdout, *aux)
		}
	case "records", "panels":
		var records []panorama.Record
		src := panorama.NewDir(filepath.Dir(path))
		records, err = src.Load(context.Background(), filepath.Base(path))
		if err != nil {
			break
		}
		if *mode == "records" {
			err = printJSON(records)
			break
		}
		var panels []placement.Panel
		panels, err = placement.BuildBatch(records, *panelSize)
		if err == nil {
			printPanels(panels)
		}
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPanels(panels []placement.Panel) {
	if len(panels) > 0 {
		fmt.Printf("Panels: %d, distance %.2f\n", len(panels), panels[0].Distance)
	}
	for i, p := range panels {
		rx, ry, rz := p.Rotation.Degrees()
		fmt.Printf("  [%d] %s\n", i, p.Name)
		fmt.Printf("    position (%.2f, %.2f, %.2f)\n", p.Position[0], p.Position[1], p.Position[2])
		fmt.Printf("    rotation x=%.2f y=%.2f z=%.2f deg\n", rx, ry, rz)
	}
}
