package overlay

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/domain/message"
)

// startCountdownLocked renders the initial clock and starts ticking.
// A countdown that starts with no time left expires immediately.
// Must be called with o.mu held.
func (o *Overlay) startCountdownLocked() {
	o.stopCountdownLocked()

	if o.remainingTime <= 0 {
		o.expireLocked()
		return
	}

	o.renderClockLocked()
	o.renderLocked()

	o.countdownSeq++
	seq := o.countdownSeq
	o.countdown = o.sched.Every(CountdownInterval, func() {
		o.onCountdownTick(seq)
	})
}

// onCountdownTick advances the countdown by one second.
func (o *Overlay) onCountdownTick(seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Stale tick from a timer that was stopped while this one was in flight.
	if o.countdown == nil || seq != o.countdownSeq {
		return
	}

	o.remainingTime--
	if o.remainingTime <= 0 {
		o.expireLocked()
		return
	}

	o.renderClockLocked()
	o.renderLocked()
}

// expireLocked moves the session into the respawn-eligible phase.
// Must be called with o.mu held.
func (o *Overlay) expireLocked() {
	o.stopCountdownLocked()

	o.remainingTime = 0
	o.phase = PhaseRespawnEligible

	f := &o.frame
	f.Phase = o.phase
	f.TimerMinutes = "00"
	f.TimerSeconds = "00"
	f.RingOffset = 0
	f.RingColor = AlertRingColor

	// The signal prompt stays: signaling is still useful after expiry.
	f.RespawnTextVisible = true
	f.RespawnReady = true
	f.WarningVisible = true
	o.renderLocked()

	zlog.Info().Msgf("overlay countdown expired: session_id=%s total=%d", o.sessionID, o.totalTime)

	o.notifyLocked(message.EndpointTimerExpired)
}

// stopCountdownLocked cancels the countdown timer if one is live.
// Must be called with o.mu held.
func (o *Overlay) stopCountdownLocked() {
	if o.countdown != nil {
		o.countdown.Stop()
		o.countdown = nil
	}
}

// renderClockLocked writes the clock and ring of the remaining time.
func (o *Overlay) renderClockLocked() {
	o.frame.TimerMinutes, o.frame.TimerSeconds = formatClock(o.remainingTime)
	o.frame.RingOffset = ringOffset(o.remainingTime, o.totalTime)
}
