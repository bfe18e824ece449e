// Package main provides a terminal preview of the death screen driven by a
// simulated host.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deathscreen/internal/app/clock"
	"github.com/osa030/deathscreen/internal/app/hostsim"
	"github.com/osa030/deathscreen/internal/app/overlay"
	"github.com/osa030/deathscreen/internal/app/router"
	"github.com/osa030/deathscreen/internal/domain/message"
	"github.com/osa030/deathscreen/internal/infra/config"
	"github.com/osa030/deathscreen/internal/infra/logger"
	"github.com/osa030/deathscreen/internal/render/terminal"
)

var (
	app          = kingpin.New("deathscreen-preview", "Preview the death screen in the terminal")
	configPath   = app.Flag("config", "Path to config file").String()
	deathTimer   = app.Flag("timer", "Death timer in seconds").Default("10").Float64()
	holdTime     = app.Flag("hold", "Respawn hold time in seconds").Default("3").Float64()
	respawnDelay = app.Flag("respawn-delay", "Die again this long after respawning (0 exits)").Default("3s").Duration()
	debug        = app.Flag("debug", "Enable overlay debug mode").Bool()
	logfile      = app.Flag("logfile", "Path to log file").Default("discard").String()
)

const helpLine = "[G] signal  [E] hold/release  [T] dim  [R] revive  [K] die  [Q] quit"

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	closer, err := logger.Init(logger.Config{Output: *logfile, Level: "debug"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	renderer := terminal.New(screen)
	sched := clock.NewWall()

	host := hostsim.New(hostsim.Config{
		DeathTimer:   *deathTimer,
		HoldTime:     *holdTime,
		RespawnDelay: *respawnDelay,
		Debug:        *debug,
	}, sched)

	ov := overlay.New(overlay.Config{
		DeathTimer: cfg.Overlay.DeathTimer,
		Texts:      cfg.DefaultTexts(),
		Debug:      cfg.Overlay.Debug,
	}, sched, overlay.Renderers{renderer, overlay.RendererFunc(func(f overlay.Frame) {
		drawHelp(screen)
		if !f.Visible {
			// Wake the event loop so it can exit.
			_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	})}, host)
	defer ov.Close()

	r := router.New(ov)
	host.Bind(r)
	host.Kill()

	ctx := context.Background()

	for {
		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			renderer.Redraw()
			drawHelp(screen)
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			switch ev.Rune() {
			case 'q', 'Q':
				return nil
			case 'g', 'G':
				act(ctx, r, message.UserSendSignal)
			case 'e', 'E':
				// Terminals report no key release, so E toggles the hold.
				if ov.Snapshot().RespawnProgressVisible {
					act(ctx, r, message.UserStopRespawnHold)
				} else {
					act(ctx, r, message.UserStartRespawnHold)
				}
			case 't', 'T':
				dispatch(ctx, r, message.New(message.ActionToggleUIVisibility, map[string]any{
					"visible": ov.Snapshot().Opacity < 1,
				}))
			case 'r', 'R':
				host.Revive()
			case 'k', 'K':
				host.Kill()
			}
		case *tcell.EventInterrupt:
		case nil:
			return nil
		}

		if !ov.Active() && *respawnDelay == 0 {
			// Give the last frame a moment on screen.
			time.Sleep(500 * time.Millisecond)
			return nil
		}
	}
}

func act(ctx context.Context, r *router.Router, action message.UserAction) {
	if err := r.Act(ctx, action); err != nil {
		zlog.Warn().Err(err).Msgf("preview: action failed: action=%s", action)
	}
}

func dispatch(ctx context.Context, r *router.Router, msg message.Message) {
	if err := r.Dispatch(ctx, msg); err != nil {
		zlog.Warn().Err(err).Msgf("preview: message failed: action=%s", msg.Action)
	}
}

func drawHelp(screen tcell.Screen) {
	_, height := screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for i, ch := range helpLine {
		screen.SetContent(i, height-1, ch, nil, style)
	}
	screen.Show()
}
