package overlay

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/app/clock"
	"github.com/osa030/deathscreen/internal/domain/message"
)

// Timing of the overlay engines.
const (
	CountdownInterval   = time.Second
	RespawnTickInterval = 100 * time.Millisecond
	EntranceDelay       = 50 * time.Millisecond
	SignalConfirmDelay  = 3 * time.Second
)

// DefaultDeathTimer is the countdown length, in seconds, used when the host
// does not send a usable one.
const DefaultDeathTimer = 120

// Notifier delivers outbound requests to the host.
// Notify must not block; delivery is best-effort.
type Notifier interface {
	Notify(endpoint message.Endpoint)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message.Endpoint)

// Notify calls f.
func (f NotifierFunc) Notify(endpoint message.Endpoint) {
	f(endpoint)
}

// Config holds the fallbacks used when the host omits values.
type Config struct {
	DeathTimer int           // seconds
	Texts      message.Texts // empty fields use the built-in defaults
	Debug      bool          // enables diagnostics for every session
}

// Overlay is one death screen. All methods are safe for concurrent use;
// mutations are serialized, so timer callbacks and host messages never
// interleave.
type Overlay struct {
	mu sync.Mutex

	config   Config
	sched    clock.Scheduler
	renderer Renderer
	notifier Notifier

	// Session
	sessionID     string
	active        bool
	totalTime     int
	remainingTime int
	phase         Phase
	signalSent    bool
	debugEnabled  bool
	dimmed        bool

	// Countdown engine
	countdown    clock.Timer
	countdownSeq uint64

	// Coarse respawn bar
	respawnHold      clock.Timer
	respawnSeq       uint64
	respawnTicks     int
	respawnIncrement float64

	frame  Frame
	closed bool
}

// New creates an overlay. Nothing is shown until Show is called.
func New(cfg Config, sched clock.Scheduler, renderer Renderer, notifier Notifier) *Overlay {
	if cfg.DeathTimer <= 0 {
		cfg.DeathTimer = DefaultDeathTimer
	}
	cfg.Texts = mergeTexts(cfg.Texts, DefaultTexts())

	o := &Overlay{
		config:        cfg,
		sched:         sched,
		renderer:      renderer,
		notifier:      notifier,
		totalTime:     cfg.DeathTimer,
		remainingTime: cfg.DeathTimer,
		phase:         PhaseCountdown,
	}
	o.frame = o.initialFrame()
	return o
}

// initialFrame mirrors the overlay markup before the first session.
func (o *Overlay) initialFrame() Frame {
	minutes, seconds := formatClock(o.config.DeathTimer)
	f := Frame{
		Phase:             PhaseCountdown,
		Opacity:           1,
		Interactive:       true,
		TimerMinutes:      minutes,
		TimerSeconds:      seconds,
		RingOffset:        RingCircumference,
		SignalTextVisible: true,
		HoldCurrent:       formatSeconds(0),
		HoldTotal:         formatSeconds(0),
		HoldRingOffset:    HoldRingCircumference,
	}
	o.applyTexts(&f, o.config.Texts)
	return f
}

// Show starts a new session from the host config.
func (o *Overlay) Show(cfg message.DeathConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	// A new session never inherits timers from the previous one.
	o.stopCountdownLocked()
	o.stopRespawnProgressLocked()

	o.sessionID = uuid.New().String()
	o.active = true
	o.totalTime = o.resolveDeathTimer(cfg.DeathTimer)
	o.remainingTime = o.totalTime
	o.phase = PhaseCountdown
	o.signalSent = false
	o.debugEnabled = cfg.Debug || o.config.Debug
	o.dimmed = false

	f := &o.frame
	f.SessionID = o.sessionID
	f.Phase = o.phase
	if cfg.Texts != nil {
		o.applyTexts(f, mergeTexts(*cfg.Texts, o.config.Texts))
	}

	f.SignalTextVisible = true
	f.RespawnTextVisible = false
	f.RespawnReady = false
	f.WarningVisible = false
	f.RespawnProgressVisible = false
	f.RespawnFill = 0
	f.SignalSentVisible = false
	f.RingColor = ""

	// Pre-entrance state; the transition is applied after EntranceDelay.
	f.Visible = true
	f.Entered = false
	f.Opacity = 0
	f.Interactive = true

	session := o.sessionID
	o.sched.After(EntranceDelay, func() {
		o.enter(session)
	})

	zlog.Info().Msgf("overlay shown: session_id=%s death_timer=%d debug=%t", o.sessionID, o.totalTime, o.debugEnabled)

	o.startCountdownLocked()
}

// enter applies the entrance transition if the session is still current.
func (o *Overlay) enter(session string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.currentLocked(session) {
		return
	}
	o.frame.Entered = true
	if !o.dimmed {
		o.frame.Opacity = 1
	}
	o.renderLocked()
}

// Hide ends the session and stops both timer engines.
func (o *Overlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.hideLocked()
}

func (o *Overlay) hideLocked() {
	o.stopCountdownLocked()
	o.stopRespawnProgressLocked()

	if !o.active && !o.frame.Visible {
		return
	}

	o.active = false
	o.frame.Visible = false
	o.renderLocked()

	zlog.Info().Msgf("overlay hidden: session_id=%s phase=%s", o.sessionID, o.phase)
}

// ToggleVisibility dims or restores the overlay without touching the
// session or its timers.
func (o *Overlay) ToggleVisibility(visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.dimmed = !visible
	if visible {
		o.frame.Opacity = 1
		o.frame.Interactive = true
	} else {
		o.frame.Opacity = 0
		o.frame.Interactive = false
	}
	o.renderLocked()
}

// UpdateTexts re-applies text templating. A nil texts object is ignored.
func (o *Overlay) UpdateTexts(texts *message.Texts) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || texts == nil {
		return
	}

	o.applyTexts(&o.frame, mergeTexts(*texts, o.config.Texts))
	o.renderLocked()
}

// Close hides the overlay and rejects every later call.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.hideLocked()
	o.closed = true
}

// Snapshot returns a copy of the current frame.
func (o *Overlay) Snapshot() Frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frame
}

// Phase returns the current phase.
func (o *Overlay) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Active reports whether a session is live.
func (o *Overlay) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// SessionID returns the ID of the current or last session.
func (o *Overlay) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// RemainingTime returns the remaining countdown in seconds.
func (o *Overlay) RemainingTime() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remainingTime
}

// TotalTime returns the countdown length of the session in seconds.
func (o *Overlay) TotalTime() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalTime
}

// SignalSent reports whether the player already signaled this session.
func (o *Overlay) SignalSent() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.signalSent
}

// DebugEnabled reports the debug flag of the session.
func (o *Overlay) DebugEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.debugEnabled
}

// resolveDeathTimer truncates the host value to whole seconds and falls back
// to the configured default for missing or non-positive values.
func (o *Overlay) resolveDeathTimer(v *float64) int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 1 {
		return o.config.DeathTimer
	}
	if *v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(*v)
}

func (o *Overlay) applyTexts(f *Frame, t message.Texts) {
	f.SignalText = HighlightKeys(t.SendSignal)
	f.RespawnText = HighlightKeys(t.RespawnText)
	f.WarningText = t.ItemWarning
}

// currentLocked reports whether session is the live session.
func (o *Overlay) currentLocked(session string) bool {
	return !o.closed && o.active && o.sessionID == session
}

func (o *Overlay) renderLocked() {
	if o.renderer == nil {
		return
	}
	o.renderer.Render(o.frame)
}

func (o *Overlay) notifyLocked(endpoint message.Endpoint) {
	if o.notifier == nil {
		return
	}
	zlog.Debug().Msgf("overlay notify: session_id=%s endpoint=%s", o.sessionID, endpoint)
	o.notifier.Notify(endpoint)
}

// debugfLocked logs a diagnostic when the session has debug enabled.
func (o *Overlay) debugfLocked(format string, args ...any) {
	if !o.debugEnabled {
		return
	}
	zlog.Info().Str("session_id", o.sessionID).Msgf("DEBUG: "+format, args...)
}
