// Package tui draws the daylight map in a terminal and maps keys onto the
// animation controls.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/echoflaresat/daylightmap/colors"
	"github.com/echoflaresat/daylightmap/daylight"
	"github.com/echoflaresat/daylightmap/projection"
	"github.com/echoflaresat/daylightmap/terminator"
	"github.com/gdamore/tcell/v2"
)

const (
	headerRows = 1
	nightDim   = -0.55
	sunRune    = '☼'
	lightRune  = '·'
	helpText   = "space animate  ←/→ skip  n now  q quit"
)

// View renders frames of a daylight.Map onto a tcell screen.
type View struct {
	screen tcell.Screen
	m      *daylight.Map
	loc    *time.Location
	now    func() time.Time
	log    *slog.Logger

	bgLeft, bgRight, lights colors.Color4
}

// NewView returns a view drawing m onto screen. Times are shown in loc.
// The logger is taken from ctx.
func NewView(ctx context.Context, screen tcell.Screen, m *daylight.Map, loc *time.Location) *View {
	left, right, lights := m.Config().Colors()
	return &View{
		screen:  screen,
		m:       m,
		loc:     loc,
		now:     time.Now,
		log:     ctxlog.Logger(ctx),
		bgLeft:  left,
		bgRight: right,
		lights:  lights,
	}
}

func rgb(c colors.Color4) tcell.Color {
	n := c.ToNRGBA()
	return tcell.NewRGBColor(int32(n.R), int32(n.G), int32(n.B))
}

// Header returns the status line for f.
func (v *View) Header(f daylight.Frame) string {
	t := f.Time.In(v.loc)
	state := "paused"
	if v.m.Running() {
		state = "animating"
	}
	return fmt.Sprintf(" %s  %s  %-9s  sun %s  %s", t.Format("15:04 MST"), t.Format("02 Jan"), state, f.Subsolar, helpText)
}

// Draw renders f onto the whole screen and shows it.
func (v *View) Draw(f daylight.Frame) {
	w, h := v.screen.Size()
	mapH := h - headerRows
	if w <= 0 || mapH <= 0 {
		return
	}

	header := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	x := 0
	for _, r := range v.Header(f) {
		if x >= w {
			break
		}
		v.screen.SetContent(x, 0, r, nil, header)
		x++
	}
	for ; x < w; x++ {
		v.screen.SetContent(x, 0, ' ', nil, header)
	}

	cells := projection.Plane{Width: float64(w), Height: float64(mapH)}
	projected := cells.Project(f.Terminator)
	for cx := 0; cx < w; cx++ {
		bg := v.bgLeft.MixLab(v.bgRight, (float64(cx)+0.5)/float64(w))
		dark := bg.Luminance(nightDim)
		boundary := projection.BoundaryAt(projected, float64(cx)+0.5)
		for cy := 0; cy < mapH; cy++ {
			c := bg
			if night(f.Orientation, float64(cy)+0.5, boundary) {
				c = dark
			}
			v.screen.SetContent(cx, cy+headerRows, ' ', nil, tcell.StyleDefault.Background(rgb(c)))
		}
	}

	points, lit := v.m.Points()
	for i, p := range points {
		if lit[i] {
			continue
		}
		pos := cells.ToPlane(p.Coord)
		cx, cy := clampCell(pos, w, mapH)
		boundary := projection.BoundaryAt(projected, float64(cx)+0.5)
		bg := v.bgLeft.MixLab(v.bgRight, (float64(cx)+0.5)/float64(w))
		if night(f.Orientation, float64(cy)+0.5, boundary) {
			bg = bg.Luminance(nightDim)
		}
		v.screen.SetContent(cx, cy+headerRows, lightRune, nil,
			tcell.StyleDefault.Background(rgb(bg)).Foreground(rgb(v.lights)))
	}

	sx, sy := clampCell(cells.ToPlane(f.Subsolar), w, mapH)
	v.screen.SetContent(sx, sy+headerRows, sunRune, nil,
		tcell.StyleDefault.Background(rgb(v.bgLeft.MixLab(v.bgRight, (float64(sx)+0.5)/float64(w)))).Foreground(tcell.ColorYellow))

	v.screen.Show()
}

func night(o terminator.Orientation, y, boundary float64) bool {
	if o == terminator.NorthSun {
		return y > boundary
	}
	return y < boundary
}

func clampCell(p projection.Position, w, h int) (int, int) {
	return min(max(int(p.X), 0), w-1), min(max(int(p.Y), 0), h-1)
}

// HandleEvent applies a terminal event and reports whether the view should
// quit.
func (v *View) HandleEvent(ev tcell.Event) (quit bool) {
	skip := v.m.Config().SkipIncrement
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyLeft:
			v.m.Stop()
			v.m.Skip(-skip, true)
		case tcell.KeyRight:
			v.m.Stop()
			v.m.Skip(skip, true)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case ' ':
				v.m.Toggle()
				v.Draw(v.m.Frame())
			case 'n':
				v.m.Stop()
				if err := v.m.SetTime(v.now()); err != nil {
					v.log.Warn("reset to now", "error", err)
				}
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
		v.Draw(v.m.Frame())
	}
	return false
}

// Run draws every frame of the map and handles terminal events until ctx
// is done or a quit key is pressed. The screen must already be initialized.
func (v *View) Run(ctx context.Context) error {
	frames, cancel := v.m.Frames(1)
	defer cancel()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	v.Draw(v.m.Frame())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if v.HandleEvent(ev) {
				return nil
			}
		case f := <-frames:
			v.Draw(f)
		}
	}
}
