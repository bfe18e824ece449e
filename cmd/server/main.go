// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/deathscreen/internal/api/connect"
	"github.com/osa030/deathscreen/internal/app/broadcast"
	"github.com/osa030/deathscreen/internal/app/clock"
	"github.com/osa030/deathscreen/internal/app/overlay"
	"github.com/osa030/deathscreen/internal/app/router"
	"github.com/osa030/deathscreen/internal/infra/config"
	"github.com/osa030/deathscreen/internal/infra/logger"
	"github.com/osa030/deathscreen/internal/infra/nui"
)

var (
	app        = kingpin.New("deathscreen-server", "Death screen overlay server")
	configPath = app.Flag("config", "Path to config file (defaults are used when empty)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// print-config command
	printConfigCmd = app.Command("print-config", "Print the effective configuration and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == printConfigCmd.FullCommand() {
		printConfig(cfg)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		zlog.Info().Msg("No config file given, using defaults and environment")
		return config.Default()
	}
	zlog.Info().Msgf("Loading config from %s", path)
	return config.Load(path)
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	notifier, err := nui.New(nui.Config{
		ResourceName: cfg.Host.ResourceName,
		BaseURL:      cfg.Host.BaseURL,
		Timeout:      cfg.HostTimeout(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create host client")
	}
	defer notifier.Close()
	zlog.Info().Msgf("Outbound host channel: base_url=%s", notifier.BaseURL())

	hub := broadcast.NewHub()
	defer hub.Close()

	logFrames := overlay.RendererFunc(func(f overlay.Frame) {
		zlog.Debug().Msgf("Frame: session_id=%s phase=%s visible=%t clock=%s", f.SessionID, f.Phase, f.Visible, f.Clock())
	})

	ov := overlay.New(overlay.Config{
		DeathTimer: cfg.Overlay.DeathTimer,
		Texts:      cfg.DefaultTexts(),
		Debug:      cfg.Overlay.Debug,
	}, clock.NewWall(), overlay.Renderers{hub, logFrames}, notifier)
	defer ov.Close()

	svc := apiconnect.NewOverlayService(router.New(ov), hub)
	auth := apiconnect.NewHostAuthInterceptor(cfg.Server.Token)
	if cfg.Server.Token == "" {
		zlog.Warn().Msg("Host token not configured, accepting unauthenticated requests")
	}

	mux := http.NewServeMux()
	path, handler := apiconnect.NewOverlayServiceHandler(svc, connect.WithInterceptors(auth))
	mux.Handle(path, handler)
	nuiHandler := auth.Middleware(apiconnect.NewNUIHandler(svc))
	mux.Handle(apiconnect.MessagePath, nuiHandler)
	mux.Handle(apiconnect.FramePath, nuiHandler)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop timers and end watch streams before draining connections
	ov.Close()
	hub.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printConfig prints the effective configuration.
func printConfig(cfg *config.Config) {
	fmt.Println("Server:")
	fmt.Printf("  addr:          %s\n", cfg.Server.Addr)
	fmt.Printf("  token:         %t\n", cfg.Server.Token != "")
	fmt.Println("Host:")
	fmt.Printf("  resource_name: %s\n", cfg.Host.ResourceName)
	fmt.Printf("  base_url:      %s\n", cfg.Host.BaseURL)
	fmt.Printf("  timeout:       %s\n", cfg.HostTimeout())
	fmt.Println("Overlay:")
	fmt.Printf("  death_timer:   %ds\n", cfg.Overlay.DeathTimer)
	fmt.Printf("  debug:         %t\n", cfg.Overlay.Debug)
	texts := cfg.DefaultTexts()
	fmt.Printf("  send_signal:   %s\n", texts.SendSignal)
	fmt.Printf("  respawn_text:  %s\n", texts.RespawnText)
	fmt.Printf("  item_warning:  %s\n", texts.ItemWarning)
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
