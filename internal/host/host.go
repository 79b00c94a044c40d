// Package host shows a viewer session in a desktop window: it turns window
// frames into ticks and mouse input into camera controller calls.
package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"panoviewer/internal/camera"
	"panoviewer/internal/panorama"
	"panoviewer/internal/raster"
	"panoviewer/internal/viewer"
)

// Options configures the window.
type Options struct {
	Title  string
	Width  int
	Height int
	TPS    int
}

// Game is the ebiten.Game driving one session.
type Game struct {
	ctx      context.Context
	session  *viewer.Session
	renderer *raster.Renderer
	src      panorama.Source
	playlist *viewer.Playlist
	changes  <-chan panorama.Change
	log      *slog.Logger

	frame     *ebiten.Image
	dragging  bool
	showHelp  bool
	lastTitle string
	title     string
}

// New creates the game. changes may be nil when the directory is not watched.
func New(ctx context.Context, s *viewer.Session, r *raster.Renderer, src panorama.Source,
	playlist *viewer.Playlist, changes <-chan panorama.Change, log *slog.Logger) *Game {
	if log == nil {
		log = slog.Default()
	}
	return &Game{
		ctx:      ctx,
		session:  s,
		renderer: r,
		src:      src,
		playlist: playlist,
		changes:  changes,
		log:      log,
		showHelp: true,
	}
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(g *Game, opts Options) error {
	g.title = opts.Title
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(opts.TPS)
	if id, ok := g.playlist.Current(); ok {
		g.session.Load(g.ctx, id)
	}
	defer g.session.Close()
	return ebiten.RunGame(g)
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.watch()
	g.keys()
	g.pointer()

	if err := g.session.Tick(); err != nil {
		return fmt.Errorf("host: tick: %w", err)
	}
	g.updateTitle()
	return nil
}

// watch reloads or relists panoramas when the directory changes.
func (g *Game) watch() {
	for {
		select {
		case ch, ok := <-g.changes:
			if !ok {
				g.changes = nil
				return
			}
			g.onChange(ch)
		default:
			return
		}
	}
}

func (g *Game) onChange(ch panorama.Change) {
	cur, _ := g.playlist.Current()
	if ch.ID == cur && !ch.Removed {
		g.log.Info("panorama changed on disk, reloading", "id", ch.ID)
		g.session.Reload(g.ctx)
		return
	}
	ids, err := g.src.List(g.ctx)
	if err != nil {
		g.log.Warn("list panoramas", "err", err)
		return
	}
	g.playlist.Set(ids)
	if next, ok := g.playlist.Current(); ok && next != cur {
		g.session.Load(g.ctx, next)
	}
}

func (g *Game) keys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight), inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		if id, ok := g.playlist.Next(); ok {
			g.session.Load(g.ctx, id)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft), inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		if id, ok := g.playlist.Prev(); ok {
			g.session.Load(g.ctx, id)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.session.Reload(g.ctx)
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.session.Scene().Axes = !g.session.Scene().Axes
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.showHelp = !g.showHelp
	}
}

func (g *Game) pointer() {
	ctl := g.session.Controller()

	if g.dragging && !ebiten.IsFocused() {
		ctl.PointerCancel()
		g.dragging = false
	}

	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		ctl.PointerDown(x, y)
		g.dragging = true
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		ctl.PointerUp()
		g.dragging = false
	case g.dragging:
		ctl.PointerMove(x, y)
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		ctl.Wheel(camera.WheelEvent{Delta: dy, Kind: camera.WheelNotches})
	}
}

func (g *Game) updateTitle() {
	st := g.session.Status()
	title := g.title
	if st.ID != "" {
		title = fmt.Sprintf("%s - %s", g.title, st.ID)
	}
	if title != g.lastTitle {
		ebiten.SetWindowTitle(title)
		g.lastTitle = title
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	pix := g.renderer.Pixels()
	if pix == nil {
		return
	}
	w, h := g.renderer.FrameSize()
	if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(w, h)
	}
	g.frame.WritePixels(pix)
	screen.DrawImage(g.frame, nil)

	if g.showHelp {
		ebitenutil.DebugPrint(screen, g.overlay())
	}
}

func (g *Game) overlay() string {
	st := g.session.Status()
	cs := g.session.Controller().State()
	text := fmt.Sprintf("%s  panels %d  lon %.1f lat %.1f fov %.1f\n",
		st.ID, st.Panels, cs.Longitude, cs.Latitude, cs.FieldOfView)
	if st.Pending != "" {
		text += "loading " + st.Pending + "\n"
	}
	if st.Err != nil {
		text += "error: " + st.Err.Error() + "\n"
	}
	return text + "drag: look  wheel: zoom  left/right: panorama  r: reload  a: axes  h: help"
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return max(g.renderer.Width, 1), max(g.renderer.Height, 1)
	}
	if outsideWidth != g.renderer.Width || outsideHeight != g.renderer.Height {
		g.renderer.Resize(outsideWidth, outsideHeight)
		g.session.SetAspect(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
