// Package terminal draws overlay frames on a tcell screen.
package terminal

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/osa030/deathscreen/internal/app/overlay"
)

const (
	gaugeWidth       = 30
	signalSentLabel  = "✓ EMS"
	gaugeFull        = '█'
	gaugeEmpty       = '░'
	respawnBarPrefix = "respawn "
)

// Colors of the overlay.
var (
	colorTimer  = tcell.NewRGBColor(255, 255, 255)
	colorRing   = tcell.NewRGBColor(220, 220, 220)
	colorAlert  = tcell.GetColor(overlay.AlertRingColor)
	colorKey    = tcell.NewRGBColor(255, 200, 40)
	colorMuted  = tcell.NewRGBColor(120, 120, 120)
	colorWarn   = tcell.NewRGBColor(255, 120, 120)
	colorOK     = tcell.NewRGBColor(80, 200, 120)
	colorDimmed = tcell.NewRGBColor(70, 70, 70)
)

// line is one centered row of the overlay.
type line struct {
	segments []styledText
}

type styledText struct {
	text  string
	style tcell.Style
}

// Renderer draws every frame it receives. It implements overlay.Renderer.
type Renderer struct {
	mu     sync.Mutex
	screen tcell.Screen
	last   overlay.Frame
	drawn  bool
}

// New creates a renderer for an initialized screen.
func New(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

var _ overlay.Renderer = (*Renderer)(nil)

// Render draws the frame and shows it.
func (r *Renderer) Render(frame overlay.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = frame
	r.drawn = true
	r.drawLocked()
}

// Redraw draws the last frame again, e.g. after a resize.
func (r *Renderer) Redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.drawn {
		return
	}
	r.screen.Sync()
	r.drawLocked()
}

func (r *Renderer) drawLocked() {
	r.screen.Clear()
	if r.last.Visible {
		lines := layout(r.last)
		width, height := r.screen.Size()
		top := (height - len(lines)) / 2
		if top < 0 {
			top = 0
		}
		for i, l := range lines {
			drawCentered(r.screen, width, top+i, l)
		}
	}
	r.screen.Show()
}

// layout turns a frame into rows, top to bottom.
func layout(f overlay.Frame) []line {
	dimmed := !f.Entered || f.Opacity < 1
	style := func(c tcell.Color) tcell.Style {
		if dimmed {
			c = colorDimmed
		}
		return tcell.StyleDefault.Foreground(c)
	}

	ringColor := colorRing
	if f.RingColor != "" {
		ringColor = tcell.GetColor(f.RingColor)
	}

	lines := []line{
		{segments: []styledText{{text: f.Clock(), style: style(colorTimer).Bold(true)}}},
		{segments: []styledText{{text: gauge(share(f.RingOffset, overlay.RingCircumference)), style: style(ringColor)}}},
		{},
	}

	if f.SignalTextVisible {
		lines = append(lines, markupLine(f.SignalText, style(colorTimer), style(colorKey).Bold(true)))
	}
	if f.SignalSentVisible {
		lines = append(lines, line{segments: []styledText{{text: signalSentLabel, style: style(colorOK)}}})
	}
	if f.RespawnTextVisible {
		textStyle := style(colorMuted)
		if f.RespawnReady {
			textStyle = style(colorTimer)
		}
		lines = append(lines, markupLine(f.RespawnText, textStyle, style(colorKey).Bold(true)))
	}
	if f.WarningVisible {
		lines = append(lines, line{segments: []styledText{{text: f.WarningText, style: style(colorWarn)}}})
	}
	if f.RespawnProgressVisible {
		lines = append(lines, line{segments: []styledText{
			{text: respawnBarPrefix, style: style(colorMuted)},
			{text: gauge(f.RespawnFill / 100), style: style(colorAlert)},
			{text: fmt.Sprintf(" %3.0f%%", math.Min(f.RespawnFill, 100)), style: style(colorMuted)},
		}})
	}
	if f.HoldProgressVisible {
		lines = append(lines, line{segments: []styledText{
			{text: gauge(1 - share(f.HoldRingOffset, overlay.HoldRingCircumference)), style: style(colorKey)},
			{text: " " + f.HoldCurrent + " / " + f.HoldTotal, style: style(colorTimer)},
		}})
	}
	return lines
}

func markupLine(text string, plain, key tcell.Style) line {
	var l line
	for _, seg := range splitMarkup(text) {
		st := plain
		if seg.key {
			st = key
		}
		l.segments = append(l.segments, styledText{text: seg.text, style: st})
	}
	return l
}

// share converts a ring dash offset into a fraction of the circumference.
func share(offset, circumference float64) float64 {
	if circumference <= 0 {
		return 0
	}
	return offset / circumference
}

// gauge renders a fraction in [0,1] as a horizontal bar.
func gauge(fraction float64) string {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	filled := int(math.Round(fraction * gaugeWidth))
	return strings.Repeat(string(gaugeFull), filled) + strings.Repeat(string(gaugeEmpty), gaugeWidth-filled)
}

func drawCentered(screen tcell.Screen, width, y int, l line) {
	total := 0
	for _, s := range l.segments {
		total += runewidth.StringWidth(s.text)
	}
	x := (width - total) / 2
	if x < 0 {
		x = 0
	}
	for _, s := range l.segments {
		for _, ch := range s.text {
			screen.SetContent(x, y, ch, nil, s.style)
			x += runewidth.RuneWidth(ch)
		}
	}
}
