package router

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/deathscreen/internal/app/clock"
	"github.com/osa030/deathscreen/internal/app/overlay"
	"github.com/osa030/deathscreen/internal/domain/message"
)

// spyOverlay records which operations were invoked.
type spyOverlay struct {
	calls      []string
	config     message.DeathConfig
	texts      *message.Texts
	hold       float64
	visible    bool
	holdUpdate message.HoldUpdate
	debug      bool
}

func (s *spyOverlay) Show(cfg message.DeathConfig) {
	s.calls = append(s.calls, "Show")
	s.config = cfg
}
func (s *spyOverlay) Hide() { s.calls = append(s.calls, "Hide") }
func (s *spyOverlay) UpdateTexts(texts *message.Texts) {
	s.calls = append(s.calls, "UpdateTexts")
	s.texts = texts
}
func (s *spyOverlay) ShowSignalSent() { s.calls = append(s.calls, "ShowSignalSent") }
func (s *spyOverlay) StartRespawnProgress(hold float64) {
	s.calls = append(s.calls, "StartRespawnProgress")
	s.hold = hold
}
func (s *spyOverlay) StopRespawnProgress() { s.calls = append(s.calls, "StopRespawnProgress") }
func (s *spyOverlay) ToggleVisibility(visible bool) {
	s.calls = append(s.calls, "ToggleVisibility")
	s.visible = visible
}
func (s *spyOverlay) ShowHoldProgress() { s.calls = append(s.calls, "ShowHoldProgress") }
func (s *spyOverlay) HideHoldProgress() { s.calls = append(s.calls, "HideHoldProgress") }
func (s *spyOverlay) UpdateHoldProgress(u message.HoldUpdate) {
	s.calls = append(s.calls, "UpdateHoldProgress")
	s.holdUpdate = u
}
func (s *spyOverlay) SendSignal()        { s.calls = append(s.calls, "SendSignal") }
func (s *spyOverlay) StartRespawnHold()  { s.calls = append(s.calls, "StartRespawnHold") }
func (s *spyOverlay) StopRespawnHold()   { s.calls = append(s.calls, "StopRespawnHold") }
func (s *spyOverlay) DebugEnabled() bool { return s.debug }

func TestRouter_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCalls []string
		wantErr   bool
	}{
		{name: "show", raw: `{"action":"showDeathUI","config":{"deathTimer":60}}`, wantCalls: []string{"Show"}},
		{name: "show without config", raw: `{"action":"showDeathUI"}`, wantCalls: []string{"Show"}},
		{name: "hide", raw: `{"action":"hideDeathUI"}`, wantCalls: []string{"Hide"}},
		{name: "update config", raw: `{"action":"updateConfig","config":{"texts":{"sendSignal":"x"}}}`, wantCalls: []string{"UpdateTexts"}},
		{name: "signal sent", raw: `{"action":"signalSent"}`, wantCalls: []string{"ShowSignalSent"}},
		{name: "start respawn", raw: `{"action":"startRespawn","holdTime":5}`, wantCalls: []string{"StartRespawnProgress"}},
		{name: "start respawn without hold time", raw: `{"action":"startRespawn"}`, wantErr: true},
		{name: "stop respawn", raw: `{"action":"stopRespawn"}`, wantCalls: []string{"StopRespawnProgress"}},
		{name: "toggle", raw: `{"action":"toggleUIVisibility","visible":true}`, wantCalls: []string{"ToggleVisibility"}},
		{name: "start hold", raw: `{"action":"startHoldProgress"}`, wantCalls: []string{"ShowHoldProgress"}},
		{name: "stop hold", raw: `{"action":"stopHoldProgress"}`, wantCalls: []string{"HideHoldProgress"}},
		{name: "update hold", raw: `{"action":"updateHoldProgress","progress":0.5,"totalTime":10}`, wantCalls: []string{"UpdateHoldProgress"}},
		{name: "update hold missing progress", raw: `{"action":"updateHoldProgress","totalTime":10}`, wantErr: true},
		{name: "unknown action", raw: `{"action":"openInventory"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyOverlay{debug: true}
			r := New(spy)

			msg, err := message.ParseJSON([]byte(tt.raw))
			require.NoError(t, err)

			err = r.Dispatch(context.Background(), msg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, spy.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, spy.calls)
		})
	}
}

func TestRouter_Dispatch_Payloads(t *testing.T) {
	spy := &spyOverlay{}
	r := New(spy)
	ctx := context.Background()

	require.NoError(t, r.Dispatch(ctx, message.New(message.ActionStartRespawn, map[string]any{"holdTime": 7.5})))
	assert.Equal(t, 7.5, spy.hold)

	require.NoError(t, r.Dispatch(ctx, message.New(message.ActionToggleUIVisibility, nil)))
	assert.False(t, spy.visible)

	require.NoError(t, r.Dispatch(ctx, message.New(message.ActionUpdateConfig, nil)))
	assert.Nil(t, spy.texts)

	require.NoError(t, r.Dispatch(ctx, message.New(message.ActionShowDeathUI, map[string]any{
		"config": map[string]any{"deathTimer": 30, "debug": true},
	})))
	require.NotNil(t, spy.config.DeathTimer)
	assert.Equal(t, 30.0, *spy.config.DeathTimer)
	assert.True(t, spy.config.Debug)
}

func TestRouter_Dispatch_UnknownAction(t *testing.T) {
	r := New(&spyOverlay{})
	err := r.Dispatch(context.Background(), message.New("somethingNew", nil))
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestRouter_Dispatch_CancelledContext(t *testing.T) {
	spy := &spyOverlay{}
	r := New(spy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Dispatch(ctx, message.New(message.ActionHideDeathUI, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, spy.calls)
}

func TestRouter_Dispatch_EveryActionRouted(t *testing.T) {
	r := New(&spyOverlay{})
	for _, action := range message.Actions {
		_, ok := r.handlers[action]
		assert.True(t, ok, "no handler for %s", action)
	}
}

func TestRouter_Act(t *testing.T) {
	tests := []struct {
		action message.UserAction
		want   string
	}{
		{message.UserSendSignal, "SendSignal"},
		{message.UserStartRespawnHold, "StartRespawnHold"},
		{message.UserStopRespawnHold, "StopRespawnHold"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			spy := &spyOverlay{}
			require.NoError(t, New(spy).Act(context.Background(), tt.action))
			assert.Equal(t, []string{tt.want}, spy.calls)
		})
	}

	err := New(&spyOverlay{}).Act(context.Background(), "dance")
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

// TestRouter_EndToEnd drives a real overlay through a whole death.
func TestRouter_EndToEnd(t *testing.T) {
	sched := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var sent []message.Endpoint
	o := overlay.New(overlay.Config{}, sched, nil, overlay.NotifierFunc(func(e message.Endpoint) {
		sent = append(sent, e)
	}))
	defer o.Close()
	r := New(o)
	ctx := context.Background()

	require.NoError(t, r.Dispatch(ctx, message.New(message.ActionShowDeathUI, map[string]any{
		"config": map[string]any{"deathTimer": 2},
	})))
	require.NoError(t, r.Act(ctx, message.UserStartRespawnHold))
	assert.Empty(t, sent)

	sched.Advance(2 * time.Second)
	assert.Equal(t, []message.Endpoint{message.EndpointTimerExpired}, sent)

	require.NoError(t, r.Act(ctx, message.UserStartRespawnHold))
	require.NoError(t, r.Dispatch(ctx, message.New(message.ActionStartRespawn, map[string]any{"holdTime": 1})))
	sched.Advance(time.Second)

	assert.Equal(t, []message.Endpoint{
		message.EndpointTimerExpired,
		message.EndpointStartRespawnHold,
		message.EndpointRespawnPlayer,
	}, sent)

	require.NoError(t, r.Dispatch(ctx, message.New(message.ActionHideDeathUI, nil)))
	assert.False(t, o.Snapshot().Visible)
}
