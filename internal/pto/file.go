package pto

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Line is one source line. Scanned lines carry their members; comments,
// blank lines and lines after a '*' terminator only keep their source.
type Line struct {
	No      int    // zero-based line number
	Header  string // "i", "p", "#-hugin", "#hugin_ptoversion", "#", "*" or ""
	Source  string
	Scanned bool
	Members []Member
}

// Member returns the first member with the given tag.
func (l *Line) Member(tag string) (Member, bool) {
	for _, m := range l.Members {
		if m.Tag == tag {
			return m, true
		}
	}
	return Member{}, false
}

func (l *Line) String() string {
	var b strings.Builder
	b.WriteString(l.Header)
	for _, m := range l.Members {
		b.WriteByte(' ')
		b.WriteString(m.String())
	}
	return b.String()
}

// File is the sequential scan of a pto file.
type File struct {
	Name       string
	Headers    string
	Extensions bool
	Lines      []*Line
}

// LinesWith returns the scanned lines with the given header, in file order.
func (f *File) LinesWith(header string) []*Line {
	var out []*Line
	for _, l := range f.Lines {
		if l.Scanned && l.Header == header {
			out = append(out, l)
		}
	}
	return out
}

// Write re-emits the file. Scanned lines are rebuilt from their members;
// other lines are copied verbatim when withAux is set.
func (f *File) Write(w io.Writer, withAux bool) error {
	for _, l := range f.Lines {
		var s string
		switch {
		case l.Scanned && len(l.Members) > 0:
			s = l.String()
		case withAux:
			s = l.Source
		default:
			continue
		}
		if _, err := io.WriteString(w, s+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Walk writes a human readable dump of every line and member.
func (f *File) Walk(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("scan of pto file %s\n", f.Name)
	ew.printf("accepted line headers: %s\n", f.Headers)
	if f.Extensions {
		ew.printf("extensions were accepted\n")
	}
	ew.printf("total of %d lines\n", len(f.Lines))
	for _, l := range f.Lines {
		ew.printf("line %04d header '%s' source:\n%s\n", l.No, l.Header, l.Source)
		if len(l.Members) > 0 {
			ew.printf("line contains %d member fields\n", len(l.Members))
			for _, m := range l.Members {
				ew.printf("  field: '%s' data type: '%s' content: '%s'\n", m.Tag, m.Kind, m.describe())
			}
		}
		ew.printf("\n")
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

var (
	// ErrBackReference is returned for back references that point outside the
	// image list or form a cycle.
	ErrBackReference = errors.New("pto: bad back reference")
	// ErrMissingField is returned when an image line lacks a required member.
	ErrMissingField = errors.New("pto: missing field")
)

// Image holds the placement parameters of one 'i' line, in degrees.
type Image struct {
	Name  string
	Yaw   float64
	Pitch float64
	Roll  float64
	View  float64
}

// Images extracts the image lines in order, resolving back references such
// as "v=0" to the value of the referenced image. Missing y, p and r default
// to zero; n and v are required.
func (f *File) Images() ([]Image, error) {
	lines := f.LinesWith("i")
	out := make([]Image, 0, len(lines))
	for i, l := range lines {
		name, ok := l.Member("n")
		if !ok || (name.Kind != String && name.Kind != Word) {
			return nil, fmt.Errorf("%w: image %d (line %d) has no name", ErrMissingField, i, l.No)
		}
		img := Image{Name: name.Str}

		fields := []struct {
			tag      string
			dst      *float64
			required bool
		}{
			{"y", &img.Yaw, false},
			{"p", &img.Pitch, false},
			{"r", &img.Roll, false},
			{"v", &img.View, true},
		}
		for _, fl := range fields {
			v, found, err := resolve(lines, i, fl.tag)
			if err != nil {
				return nil, err
			}
			if !found && fl.required {
				return nil, fmt.Errorf("%w: image %d (line %d) has no %q", ErrMissingField, i, l.No, fl.tag)
			}
			*fl.dst = v
		}
		out = append(out, img)
	}
	return out, nil
}

// resolve follows back references from image i until a numeric value is found.
func resolve(lines []*Line, i int, tag string) (float64, bool, error) {
	seen := make(map[int]bool)
	for {
		if seen[i] {
			return 0, false, fmt.Errorf("%w: cycle on %q at image %d", ErrBackReference, tag, i)
		}
		seen[i] = true

		m, ok := lines[i].Member(tag)
		if !ok {
			return 0, false, nil
		}
		if v, ok := m.Float(); ok {
			return v, true, nil
		}
		ref, ok := m.Ref()
		if !ok {
			return 0, false, fmt.Errorf("pto: image %d: %q is a %s, not a number", i, tag, m.Kind)
		}
		if ref < 0 || ref >= len(lines) {
			return 0, false, fmt.Errorf("%w: %q of image %d points to image %d of %d", ErrBackReference, tag, i, ref, len(lines))
		}
		i = ref
	}
}
