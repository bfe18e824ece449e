// Package main provides a host simulator CLI for testing the overlay server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/deathscreen/internal/api/connect"
	"github.com/osa030/deathscreen/internal/app/overlay"
	"github.com/osa030/deathscreen/internal/domain/message"
)

var (
	app    = kingpin.New("deathscreen-hostcli", "Death screen host simulator")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Host token (or set DEATHSCREEN_HOST_TOKEN env)").Envar("DEATHSCREEN_HOST_TOKEN").String()

	// show command
	showCmd         = app.Command("show", "Show the death screen")
	showTimer       = showCmd.Flag("timer", "Death timer in seconds").Float64()
	showDebug       = showCmd.Flag("debug", "Enable overlay debug mode").Bool()
	showSendSignal  = showCmd.Flag("send-signal", "Send signal text").String()
	showRespawnText = showCmd.Flag("respawn-text", "Respawn text").String()
	showItemWarning = showCmd.Flag("item-warning", "Item warning text").String()

	// hide command
	hideCmd = app.Command("hide", "Hide the death screen")

	// texts command
	textsCmd         = app.Command("texts", "Update the overlay texts")
	textsSendSignal  = textsCmd.Flag("send-signal", "Send signal text").String()
	textsRespawnText = textsCmd.Flag("respawn-text", "Respawn text").String()
	textsItemWarning = textsCmd.Flag("item-warning", "Item warning text").String()

	// signal-sent command
	signalSentCmd = app.Command("signal-sent", "Echo that the EMS signal was sent")

	// respawn commands
	respawnCmd      = app.Command("respawn", "Control the respawn bar")
	respawnStartCmd = respawnCmd.Command("start", "Start the respawn bar")
	respawnHold     = respawnStartCmd.Arg("hold-time", "Hold duration in seconds").Required().Float64()
	respawnStopCmd  = respawnCmd.Command("stop", "Stop the respawn bar")

	// toggle command
	toggleCmd     = app.Command("toggle", "Toggle overlay visibility")
	toggleVisible = toggleCmd.Arg("visible", "true to show, false to dim").Required().Bool()

	// hold commands
	holdCmd       = app.Command("hold", "Control the hold readout")
	holdShowCmd   = holdCmd.Command("show", "Show the hold readout")
	holdHideCmd   = holdCmd.Command("hide", "Hide the hold readout")
	holdUpdateCmd = holdCmd.Command("update", "Update the hold readout")
	holdProgress  = holdUpdateCmd.Arg("progress", "Progress in [0,1]").Required().Float64()
	holdTotalTime = holdUpdateCmd.Arg("total-time", "Total hold time in seconds").Required().Float64()

	// act command
	actCmd    = app.Command("act", "Trigger a player action")
	actAction = actCmd.Arg("action", "Action name").Required().Enum(
		string(message.UserSendSignal),
		string(message.UserStartRespawnHold),
		string(message.UserStopRespawnHold),
	)

	// raw command
	rawCmd  = app.Command("raw", "Send a raw JSON message")
	rawJSON = rawCmd.Arg("json", `Message, e.g. {"action":"hideDeathUI"}`).Required().String()

	// watch command
	watchCmd = app.Command("watch", "Print every rendered frame")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewOverlayServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewHostTokenClientInterceptor(*token)),
	)

	ctx := context.Background()

	var err error
	switch command {
	case showCmd.FullCommand():
		err = send(ctx, client, message.ActionShowDeathUI, map[string]any{"config": showConfig()})
	case hideCmd.FullCommand():
		err = send(ctx, client, message.ActionHideDeathUI, nil)
	case textsCmd.FullCommand():
		err = send(ctx, client, message.ActionUpdateConfig, map[string]any{
			"config": map[string]any{"texts": texts(*textsSendSignal, *textsRespawnText, *textsItemWarning)},
		})
	case signalSentCmd.FullCommand():
		err = send(ctx, client, message.ActionSignalSent, nil)
	case respawnStartCmd.FullCommand():
		err = send(ctx, client, message.ActionStartRespawn, map[string]any{"holdTime": *respawnHold})
	case respawnStopCmd.FullCommand():
		err = send(ctx, client, message.ActionStopRespawn, nil)
	case toggleCmd.FullCommand():
		err = send(ctx, client, message.ActionToggleUIVisibility, map[string]any{"visible": *toggleVisible})
	case holdShowCmd.FullCommand():
		err = send(ctx, client, message.ActionStartHoldProgress, nil)
	case holdHideCmd.FullCommand():
		err = send(ctx, client, message.ActionStopHoldProgress, nil)
	case holdUpdateCmd.FullCommand():
		err = send(ctx, client, message.ActionUpdateHoldProgress, map[string]any{
			"progress":  *holdProgress,
			"totalTime": *holdTotalTime,
		})
	case actCmd.FullCommand():
		err = client.Act(ctx, message.UserAction(*actAction))
	case rawCmd.FullCommand():
		var msg message.Message
		msg, err = message.ParseJSON([]byte(*rawJSON))
		if err == nil {
			err = client.Dispatch(ctx, msg)
		}
	case watchCmd.FullCommand():
		err = watch(ctx, client)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func send(ctx context.Context, client *apiconnect.OverlayServiceClient, action message.Action, payload map[string]any) error {
	if err := client.Dispatch(ctx, message.New(action, payload)); err != nil {
		return err
	}
	fmt.Printf("Sent %s\n", action)
	return nil
}

func showConfig() map[string]any {
	cfg := map[string]any{"debug": *showDebug}
	if *showTimer != 0 {
		cfg["deathTimer"] = *showTimer
	}
	if t := texts(*showSendSignal, *showRespawnText, *showItemWarning); len(t) > 0 {
		cfg["texts"] = t
	}
	return cfg
}

func texts(sendSignal, respawnText, itemWarning string) map[string]any {
	t := map[string]any{}
	if sendSignal != "" {
		t["sendSignal"] = sendSignal
	}
	if respawnText != "" {
		t["respawnText"] = respawnText
	}
	if itemWarning != "" {
		t["itemWarning"] = itemWarning
	}
	return t
}

func watch(ctx context.Context, client *apiconnect.OverlayServiceClient) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching frames. Press Ctrl+C to exit.")
	return client.Watch(ctx, printFrame)
}

func printFrame(f overlay.Frame) {
	if !f.Visible {
		fmt.Println("[hidden]")
		return
	}

	fmt.Printf("\n[%s] %s phase=%s opacity=%.0f\n", shortID(f.SessionID), f.Clock(), f.Phase, f.Opacity)
	if f.SignalTextVisible {
		fmt.Printf("  signal:   %s\n", f.SignalText)
	}
	if f.SignalSentVisible {
		fmt.Println("  signal sent")
	}
	if f.RespawnTextVisible {
		fmt.Printf("  respawn:  %s (ready=%t)\n", f.RespawnText, f.RespawnReady)
	}
	if f.WarningVisible {
		fmt.Printf("  warning:  %s\n", f.WarningText)
	}
	if f.RespawnProgressVisible {
		fmt.Printf("  bar:      %.0f%%\n", f.RespawnFill)
	}
	if f.HoldProgressVisible {
		fmt.Printf("  hold:     %s / %s\n", f.HoldCurrent, f.HoldTotal)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
