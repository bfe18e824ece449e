package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/deathscreen/internal/domain/message"
)

func TestRespawnProgress_Completes(t *testing.T) {
	o, sched, rec := newTestOverlay(t)
	o.Show(showConfig(1))
	sched.Advance(time.Second)

	o.StartRespawnProgress(5)
	f := rec.last()
	assert.True(t, f.RespawnProgressVisible)
	assert.Equal(t, 0.0, f.RespawnFill)
	start := rec.renderCount()

	sched.Advance(49 * RespawnTickInterval)
	f = rec.last()
	assert.True(t, f.RespawnProgressVisible)
	assert.InDelta(t, 98.0, f.RespawnFill, 1e-9)
	assert.Equal(t, 0, rec.count(message.EndpointRespawnPlayer))

	sched.Advance(RespawnTickInterval)
	f = rec.last()
	assert.False(t, f.RespawnProgressVisible)
	assert.Equal(t, 100.0, f.RespawnFill)
	assert.Equal(t, 1, rec.count(message.EndpointRespawnPlayer))

	full := 0
	for _, fr := range rec.framesSince(start) {
		if fr.RespawnFill == 100 {
			full++
		}
	}
	assert.Equal(t, 1, full, "fill reaches 100% exactly once")

	sched.Advance(10 * time.Second)
	assert.Equal(t, 1, rec.count(message.EndpointRespawnPlayer))
}

func TestRespawnProgress_UnevenIncrement(t *testing.T) {
	o, sched, rec := newTestOverlay(t)
	o.Show(showConfig(60))

	o.StartRespawnProgress(3)
	sched.Advance(29 * RespawnTickInterval)
	assert.Equal(t, 0, rec.count(message.EndpointRespawnPlayer))

	sched.Advance(RespawnTickInterval)
	assert.Equal(t, 1, rec.count(message.EndpointRespawnPlayer))
}

func TestRespawnProgress_StopBeforeCompletion(t *testing.T) {
	o, sched, rec := newTestOverlay(t)
	o.Show(showConfig(60))

	o.StartRespawnProgress(5)
	sched.Advance(2 * time.Second)
	o.StopRespawnProgress()
	assert.False(t, rec.last().RespawnProgressVisible)

	sched.Advance(10 * time.Second)
	assert.Equal(t, 0, rec.count(message.EndpointRespawnPlayer))
}

func TestRespawnProgress_RestartReplacesTimer(t *testing.T) {
	o, sched, rec := newTestOverlay(t)
	o.Show(showConfig(60))

	o.StartRespawnProgress(1)
	sched.Advance(5 * RespawnTickInterval)
	o.StartRespawnProgress(1)
	sched.Advance(5 * RespawnTickInterval)

	assert.Equal(t, 0, rec.count(message.EndpointRespawnPlayer), "restart must reset the fill")
	assert.InDelta(t, 50.0, rec.last().RespawnFill, 1e-9)

	sched.Advance(5 * RespawnTickInterval)
	assert.Equal(t, 1, rec.count(message.EndpointRespawnPlayer))
}

func TestRespawnProgress_NonPositiveHold(t *testing.T) {
	o, sched, rec := newTestOverlay(t)
	o.Show(showConfig(60))

	o.StartRespawnProgress(0)
	sched.Advance(RespawnTickInterval)
	assert.Equal(t, 1, rec.count(message.EndpointRespawnPlayer))
}

func TestRespawnProgress_RequiresSession(t *testing.T) {
	o, sched, rec := newTestOverlay(t)

	o.StartRespawnProgress(1)
	sched.Advance(5 * time.Second)
	assert.Equal(t, 0, rec.renderCount())
	assert.Equal(t, 0, rec.count(message.EndpointRespawnPlayer))
}

func TestHoldProgress_Update(t *testing.T) {
	o, _, rec := newTestOverlay(t)
	o.Show(showConfig(60))

	o.ShowHoldProgress()
	f := rec.last()
	assert.True(t, f.HoldProgressVisible)
	assert.Equal(t, "0.0s", f.HoldCurrent)

	o.UpdateHoldProgress(message.HoldUpdate{Progress: seconds(0.5), TotalTime: seconds(10)})
	f = rec.last()
	assert.Equal(t, "5.0s", f.HoldCurrent)
	assert.Equal(t, "10.0s", f.HoldTotal)
	assert.InDelta(t, HoldRingCircumference/2, f.HoldRingOffset, 1e-9)

	o.HideHoldProgress()
	assert.False(t, rec.last().HoldProgressVisible)
}

func TestHoldProgress_MalformedDropped(t *testing.T) {
	tests := []struct {
		name   string
		update message.HoldUpdate
	}{
		{name: "missing progress", update: message.HoldUpdate{TotalTime: seconds(10)}},
		{name: "missing total", update: message.HoldUpdate{Progress: seconds(0.5)}},
		{name: "empty", update: message.HoldUpdate{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _, rec := newTestOverlay(t)
			o.Show(message.DeathConfig{DeathTimer: seconds(60), Debug: true})
			o.UpdateHoldProgress(message.HoldUpdate{Progress: seconds(0.25), TotalTime: seconds(4)})
			before := rec.last()
			renders := rec.renderCount()

			o.UpdateHoldProgress(tt.update)

			assert.Equal(t, renders, rec.renderCount())
			assert.Equal(t, before, o.Snapshot())
			assert.Equal(t, "1.0s", o.Snapshot().HoldCurrent)
		})
	}
}

func TestHoldMechanisms_Independent(t *testing.T) {
	o, sched, rec := newTestOverlay(t)
	o.Show(showConfig(60))

	o.StartRespawnProgress(10)
	o.ShowHoldProgress()
	sched.Advance(time.Second)

	f := rec.last()
	require.True(t, f.RespawnProgressVisible)
	require.True(t, f.HoldProgressVisible)
	assert.InDelta(t, 10.0, f.RespawnFill, 1e-9)

	// Readout updates never move the bar.
	o.UpdateHoldProgress(message.HoldUpdate{Progress: seconds(0.9), TotalTime: seconds(10)})
	assert.InDelta(t, 10.0, rec.last().RespawnFill, 1e-9)
	assert.Equal(t, "9.0s", rec.last().HoldCurrent)

	// Stopping the bar leaves the readout alone, and vice versa.
	o.StopRespawnProgress()
	assert.True(t, rec.last().HoldProgressVisible)

	o.StartRespawnProgress(10)
	o.HideHoldProgress()
	sched.Advance(time.Second)
	assert.True(t, rec.last().RespawnProgressVisible)
	assert.InDelta(t, 10.0, rec.last().RespawnFill, 1e-9)

	o.mu.Lock()
	defer o.mu.Unlock()
	assert.NotNil(t, o.respawnHold)
	assert.NotNil(t, o.countdown)
}
