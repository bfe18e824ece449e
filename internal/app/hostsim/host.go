// Package hostsim simulates the game client on the other side of the overlay:
// it answers outbound requests with the messages a real host would send.
package hostsim

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/app/clock"
	"github.com/osa030/deathscreen/internal/domain/message"
)

// HoldTick is the interval of simulated hold progress updates.
const HoldTick = 100 * time.Millisecond

// Dispatcher applies host messages to the overlay.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg message.Message) error
}

// Config represents the simulated host behavior.
type Config struct {
	DeathTimer   float64       // seconds sent with showDeathUI, 0 uses the overlay default
	HoldTime     float64       // seconds the player must hold to respawn
	RespawnDelay time.Duration // delay before dying again after a respawn, 0 disables
	Debug        bool
}

// Host is a simulated game client. It implements overlay.Notifier.
type Host struct {
	mu         sync.Mutex
	cfg        Config
	sched      clock.Scheduler
	dispatcher Dispatcher

	hold      clock.Timer
	holdTicks int
	received  []message.Endpoint
}

// New creates a simulated host. Bind must be called before Notify.
func New(cfg Config, sched clock.Scheduler) *Host {
	if cfg.HoldTime <= 0 {
		cfg.HoldTime = 5
	}
	return &Host{cfg: cfg, sched: sched}
}

// Bind sets the dispatcher the host sends its messages to.
func (h *Host) Bind(d Dispatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatcher = d
}

// Notify receives an outbound request. The reply is scheduled rather than
// sent inline, since the overlay calls Notify while holding its lock.
func (h *Host) Notify(endpoint message.Endpoint) {
	zlog.Info().Msgf("hostsim: received %s", endpoint)
	h.sched.After(0, func() { h.handle(endpoint) })
}

// Received returns the outbound requests handled so far.
func (h *Host) Received() []message.Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]message.Endpoint(nil), h.received...)
}

// Kill shows the death screen, as the host does when the player dies.
func (h *Host) Kill() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.killLocked()
}

// Revive hides the death screen without a respawn, e.g. after an EMS revive.
func (h *Host) Revive() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopHoldLocked()
	h.sendLocked(message.ActionStopHoldProgress, nil)
	h.sendLocked(message.ActionHideDeathUI, nil)
}

func (h *Host) handle(endpoint message.Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.received = append(h.received, endpoint)

	switch endpoint {
	case message.EndpointSendEMSSignal:
		h.sendLocked(message.ActionSignalSent, nil)
	case message.EndpointStartRespawnHold:
		h.startHoldLocked()
	case message.EndpointStopRespawnHold:
		h.stopHoldLocked()
		h.sendLocked(message.ActionStopRespawn, nil)
		h.sendLocked(message.ActionStopHoldProgress, nil)
	case message.EndpointRespawnPlayer:
		h.stopHoldLocked()
		h.sendLocked(message.ActionStopHoldProgress, nil)
		h.sendLocked(message.ActionHideDeathUI, nil)
		if h.cfg.RespawnDelay > 0 {
			h.sched.After(h.cfg.RespawnDelay, h.Kill)
		}
	}
}

func (h *Host) killLocked() {
	cfg := map[string]any{"debug": h.cfg.Debug}
	if h.cfg.DeathTimer > 0 {
		cfg["deathTimer"] = h.cfg.DeathTimer
	}
	h.sendLocked(message.ActionShowDeathUI, map[string]any{"config": cfg})
}

func (h *Host) startHoldLocked() {
	h.stopHoldLocked()

	h.sendLocked(message.ActionStartRespawn, map[string]any{"holdTime": h.cfg.HoldTime})
	h.sendLocked(message.ActionStartHoldProgress, nil)

	h.holdTicks = 0
	h.hold = h.sched.Every(HoldTick, h.onHoldTick)
}

func (h *Host) onHoldTick() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.hold == nil {
		return
	}
	h.holdTicks++
	progress := float64(h.holdTicks) * HoldTick.Seconds() / h.cfg.HoldTime
	if progress >= 1 {
		progress = 1
		h.stopHoldLocked()
	}
	h.sendLocked(message.ActionUpdateHoldProgress, map[string]any{
		"progress":  progress,
		"totalTime": h.cfg.HoldTime,
	})
}

func (h *Host) stopHoldLocked() {
	if h.hold != nil {
		h.hold.Stop()
		h.hold = nil
	}
}

func (h *Host) sendLocked(action message.Action, payload map[string]any) {
	if h.dispatcher == nil {
		zlog.Warn().Msgf("hostsim: no dispatcher bound, dropping %s", action)
		return
	}
	if err := h.dispatcher.Dispatch(context.Background(), message.New(action, payload)); err != nil {
		zlog.Debug().Err(err).Msgf("hostsim: %s rejected", action)
	}
}
