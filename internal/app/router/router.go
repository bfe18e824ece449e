// Package router dispatches host messages to the overlay.
package router

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/domain/message"
)

var (
	ErrUnknownAction = errors.New("unknown action")
)

// Overlay is the set of overlay operations the router drives.
type Overlay interface {
	Show(cfg message.DeathConfig)
	Hide()
	UpdateTexts(texts *message.Texts)
	ShowSignalSent()
	StartRespawnProgress(holdSeconds float64)
	StopRespawnProgress()
	ToggleVisibility(visible bool)
	ShowHoldProgress()
	HideHoldProgress()
	UpdateHoldProgress(update message.HoldUpdate)

	SendSignal()
	StartRespawnHold()
	StopRespawnHold()

	DebugEnabled() bool
}

// handler applies one message to the overlay.
type handler func(msg message.Message) error

// Router maps message actions to overlay operations.
// It holds no state besides its tables.
type Router struct {
	overlay  Overlay
	handlers map[message.Action]handler
	actions  map[message.UserAction]func()
}

// New creates a router for the given overlay.
func New(o Overlay) *Router {
	r := &Router{overlay: o}

	r.handlers = map[message.Action]handler{
		message.ActionShowDeathUI:        r.showDeathUI,
		message.ActionHideDeathUI:        func(message.Message) error { o.Hide(); return nil },
		message.ActionUpdateConfig:       r.updateConfig,
		message.ActionSignalSent:         func(message.Message) error { o.ShowSignalSent(); return nil },
		message.ActionStartRespawn:       r.startRespawn,
		message.ActionStopRespawn:        func(message.Message) error { o.StopRespawnProgress(); return nil },
		message.ActionToggleUIVisibility: r.toggleVisibility,
		message.ActionStartHoldProgress:  func(message.Message) error { o.ShowHoldProgress(); return nil },
		message.ActionStopHoldProgress:   func(message.Message) error { o.HideHoldProgress(); return nil },
		message.ActionUpdateHoldProgress: r.updateHoldProgress,
	}

	r.actions = map[message.UserAction]func(){
		message.UserSendSignal:       o.SendSignal,
		message.UserStartRespawnHold: o.StartRespawnHold,
		message.UserStopRespawnHold:  o.StopRespawnHold,
	}

	return r
}

// Dispatch applies a host message. Unknown actions return ErrUnknownAction
// and malformed payloads return a decode error; in both cases the overlay
// is left untouched. Callers are expected to log and carry on.
func (r *Router) Dispatch(ctx context.Context, msg message.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h, ok := r.handlers[msg.Action]
	if !ok {
		zlog.Debug().Msgf("router: ignoring unknown action: action=%s", msg.Action)
		return errors.Wrapf(ErrUnknownAction, "action %q", msg.Action)
	}

	if err := h(msg); err != nil {
		if r.overlay.DebugEnabled() {
			zlog.Warn().Err(err).Msgf("DEBUG: dropped %s message", msg.Action)
		}
		return err
	}
	return nil
}

// Act applies a user-triggered action.
func (r *Router) Act(ctx context.Context, action message.UserAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fn, ok := r.actions[action]
	if !ok {
		return errors.Wrapf(ErrUnknownAction, "user action %q", action)
	}
	fn()
	return nil
}

func (r *Router) showDeathUI(msg message.Message) error {
	cfg, err := msg.DecodeConfig()
	if err != nil && cfg.Debug {
		// Bad fields fall back to defaults; the session still starts.
		zlog.Warn().Err(err).Msg("DEBUG: invalid config values replaced by defaults")
	}
	r.overlay.Show(cfg)
	return nil
}

func (r *Router) updateConfig(msg message.Message) error {
	cfg, err := msg.DecodeConfig()
	if err != nil && r.overlay.DebugEnabled() {
		zlog.Warn().Err(err).Msg("DEBUG: invalid config values replaced by defaults")
	}
	r.overlay.UpdateTexts(cfg.Texts)
	return nil
}

func (r *Router) startRespawn(msg message.Message) error {
	hold, err := msg.DecodeHoldTime()
	if err != nil {
		return err
	}
	r.overlay.StartRespawnProgress(hold)
	return nil
}

func (r *Router) toggleVisibility(msg message.Message) error {
	visible, err := msg.DecodeVisible()
	if err != nil {
		return err
	}
	r.overlay.ToggleVisibility(visible)
	return nil
}

func (r *Router) updateHoldProgress(msg message.Message) error {
	update, err := msg.DecodeHoldUpdate()
	if err != nil {
		return err
	}
	r.overlay.UpdateHoldProgress(update)
	return nil
}
