package overlay

import (
	"math"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/domain/message"
)

// fillEpsilon absorbs float drift when increments do not divide 100 evenly.
const fillEpsilon = 1e-9

// StartRespawnProgress starts the coarse respawn bar. The bar fills over
// holdSeconds at ten updates per second and requests the respawn when full.
// A non-positive duration fills on the first tick.
func (o *Overlay) StartRespawnProgress(holdSeconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.active {
		return
	}

	o.stopRespawnProgressLocked()

	o.respawnTicks = 0
	o.respawnIncrement = 100
	if holdSeconds > 0 && !math.IsInf(holdSeconds, 1) {
		o.respawnIncrement = 100 / (holdSeconds * 10)
	}

	o.frame.RespawnProgressVisible = true
	o.frame.RespawnFill = 0
	o.renderLocked()

	o.debugfLocked("respawn progress started: hold=%.1fs increment=%.4f", holdSeconds, o.respawnIncrement)

	o.respawnSeq++
	seq := o.respawnSeq
	o.respawnHold = o.sched.Every(RespawnTickInterval, func() {
		o.onRespawnTick(seq)
	})
}

// StopRespawnProgress cancels the coarse bar without completing it.
func (o *Overlay) StopRespawnProgress() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	wasVisible := o.frame.RespawnProgressVisible
	o.stopRespawnProgressLocked()
	if wasVisible {
		o.renderLocked()
	}
}

// onRespawnTick advances the coarse bar by one increment.
func (o *Overlay) onRespawnTick(seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.respawnHold == nil || seq != o.respawnSeq {
		return
	}

	o.respawnTicks++
	fill := float64(o.respawnTicks) * o.respawnIncrement
	if fill >= 100-fillEpsilon {
		o.frame.RespawnFill = 100
		o.stopRespawnProgressLocked()
		o.renderLocked()
		o.debugfLocked("respawn progress complete: ticks=%d", o.respawnTicks)
		o.notifyLocked(message.EndpointRespawnPlayer)
		return
	}

	o.frame.RespawnFill = fill
	o.renderLocked()
}

// stopRespawnProgressLocked cancels the bar timer and hides the bar.
// Must be called with o.mu held.
func (o *Overlay) stopRespawnProgressLocked() {
	if o.respawnHold != nil {
		o.respawnHold.Stop()
		o.respawnHold = nil
	}
	o.frame.RespawnProgressVisible = false
}

// ShowHoldProgress reveals the fine hold readout at zero.
func (o *Overlay) ShowHoldProgress() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.frame.HoldProgressVisible = true
	o.frame.HoldCurrent = formatSeconds(0)
	o.frame.HoldRingOffset = HoldRingCircumference
	o.renderLocked()
}

// HideHoldProgress hides the fine hold readout.
func (o *Overlay) HideHoldProgress() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.frame.HoldProgressVisible = false
	o.renderLocked()
}

// UpdateHoldProgress renders a host-sampled hold progress. Updates missing
// either field are dropped without touching the display.
func (o *Overlay) UpdateHoldProgress(update message.HoldUpdate) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	if err := update.Validate(); err != nil {
		if o.debugEnabled {
			zlog.Warn().Err(err).Str("session_id", o.sessionID).Msg("DEBUG: invalid hold progress data received")
		}
		return
	}
	o.debugfLocked("received hold progress: progress=%v total=%v", *update.Progress, *update.TotalTime)

	progress, total := *update.Progress, *update.TotalTime
	o.frame.HoldCurrent = formatSeconds(progress * total)
	o.frame.HoldTotal = formatSeconds(total)
	o.frame.HoldRingOffset = HoldRingCircumference * (1 - math.Max(0, math.Min(1, progress)))
	o.renderLocked()

	o.debugfLocked("hold progress updated: progress=%v current=%s total=%s", progress, o.frame.HoldCurrent, o.frame.HoldTotal)
}
