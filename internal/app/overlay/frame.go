package overlay

import (
	"fmt"
	"math"
)

// Ring geometry of the overlay markup.
var (
	RingCircumference     = 2 * math.Pi * 56 // countdown ring, radius 56
	HoldRingCircumference = 2 * math.Pi * 50 // hold ring, radius 50
)

// AlertRingColor tints the countdown ring once respawn is available.
const AlertRingColor = "#dc3545"

// Frame is the complete visual state of the overlay.
// Text fields hold markup ready to be inserted as-is.
type Frame struct {
	SessionID string `json:"sessionId"`
	Phase     Phase  `json:"phase"`

	// Container
	Visible     bool    `json:"visible"`
	Entered     bool    `json:"entered"` // entrance transition applied
	Opacity     float64 `json:"opacity"`
	Interactive bool    `json:"interactive"`

	// Countdown
	TimerMinutes string  `json:"timerMinutes"`
	TimerSeconds string  `json:"timerSeconds"`
	RingOffset   float64 `json:"ringOffset"`
	RingColor    string  `json:"ringColor,omitempty"`

	// Prompts
	SignalText         string `json:"signalText"`
	SignalTextVisible  bool   `json:"signalTextVisible"`
	RespawnText        string `json:"respawnText"`
	RespawnTextVisible bool   `json:"respawnTextVisible"`
	RespawnReady       bool   `json:"respawnReady"`
	WarningText        string `json:"warningText"`
	WarningVisible     bool   `json:"warningVisible"`
	SignalSentVisible  bool   `json:"signalSentVisible"`

	// Coarse respawn bar, fill in percent
	RespawnProgressVisible bool    `json:"respawnProgressVisible"`
	RespawnFill            float64 `json:"respawnFill"`

	// Fine hold readout
	HoldProgressVisible bool    `json:"holdProgressVisible"`
	HoldCurrent         string  `json:"holdCurrent"`
	HoldTotal           string  `json:"holdTotal"`
	HoldRingOffset      float64 `json:"holdRingOffset"`
}

// Clock returns the countdown as "MM:SS".
func (f Frame) Clock() string {
	return f.TimerMinutes + ":" + f.TimerSeconds
}

// Renderer receives a copy of the frame after every mutation.
// Render is called with the overlay lock held and must not call back into
// the overlay.
type Renderer interface {
	Render(Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame)

// Render calls f.
func (f RendererFunc) Render(frame Frame) {
	f(frame)
}

// Renderers fans a frame out to several renderers in order.
type Renderers []Renderer

// Render renders the frame on every renderer.
func (rs Renderers) Render(frame Frame) {
	for _, r := range rs {
		r.Render(frame)
	}
}

// formatClock splits seconds into zero-padded minutes and seconds.
func formatClock(seconds int) (string, string) {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d", seconds/60), fmt.Sprintf("%02d", seconds%60)
}

// ringOffset maps remaining/total onto the ring: full circumference at the
// start, zero once the time is up.
func ringOffset(remaining, total int) float64 {
	if total <= 0 || remaining <= 0 {
		return 0
	}
	progress := float64(total-remaining) / float64(total)
	return RingCircumference - progress*RingCircumference
}

// formatSeconds renders seconds with one decimal and an "s" suffix.
func formatSeconds(v float64) string {
	return fmt.Sprintf("%.1fs", v)
}
