package overlay

import (
	"github.com/osa030/deathscreen/internal/domain/message"
)

// SendSignal signals the medics once per session and shows the
// confirmation. Repeated calls are ignored and do not extend the
// confirmation.
func (o *Overlay) SendSignal() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.active || o.signalSent {
		return
	}

	o.signalSent = true
	o.showSignalSentLocked()
	o.notifyLocked(message.EndpointSendEMSSignal)
}

// ShowSignalSent shows the confirmation on behalf of the host, for example
// when the signal was sent from another client. It sends nothing.
func (o *Overlay) ShowSignalSent() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.active {
		return
	}
	o.showSignalSentLocked()
}

func (o *Overlay) showSignalSentLocked() {
	o.frame.SignalSentVisible = true
	o.renderLocked()

	session := o.sessionID
	o.sched.After(SignalConfirmDelay, func() {
		o.hideSignalSent(session)
	})
}

func (o *Overlay) hideSignalSent(session string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.currentLocked(session) || !o.frame.SignalSentVisible {
		return
	}
	o.frame.SignalSentVisible = false
	o.renderLocked()
}

// StartRespawnHold forwards the start of the respawn key hold to the host.
// It is ignored until the countdown has expired.
func (o *Overlay) StartRespawnHold() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.active || o.phase != PhaseRespawnEligible {
		o.debugfLocked("respawn hold rejected: phase=%s active=%t", o.phase, o.active)
		return
	}
	o.notifyLocked(message.EndpointStartRespawnHold)
}

// StopRespawnHold forwards the release of the respawn key to the host.
func (o *Overlay) StopRespawnHold() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.notifyLocked(message.EndpointStopRespawnHold)
}
