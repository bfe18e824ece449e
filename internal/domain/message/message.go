// Package message defines the messages exchanged between the host and the overlay.
package message

import (
	"encoding/json"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrMissingAction = errors.New("message has no action")
	ErrMissingField  = errors.New("required field is missing")
)

// Action selects the variant of an inbound host message.
type Action string

const (
	ActionShowDeathUI        Action = "showDeathUI"
	ActionHideDeathUI        Action = "hideDeathUI"
	ActionUpdateConfig       Action = "updateConfig"
	ActionSignalSent         Action = "signalSent"
	ActionStartRespawn       Action = "startRespawn"
	ActionStopRespawn        Action = "stopRespawn"
	ActionToggleUIVisibility Action = "toggleUIVisibility"
	ActionStartHoldProgress  Action = "startHoldProgress"
	ActionStopHoldProgress   Action = "stopHoldProgress"
	ActionUpdateHoldProgress Action = "updateHoldProgress"
)

// Actions lists every inbound action kind.
var Actions = []Action{
	ActionShowDeathUI,
	ActionHideDeathUI,
	ActionUpdateConfig,
	ActionSignalSent,
	ActionStartRespawn,
	ActionStopRespawn,
	ActionToggleUIVisibility,
	ActionStartHoldProgress,
	ActionStopHoldProgress,
	ActionUpdateHoldProgress,
}

// Message is an inbound host message: an action plus its untyped payload.
type Message struct {
	Action  Action
	Payload map[string]any
}

// New creates a message with the given action and payload fields.
func New(action Action, payload map[string]any) Message {
	if payload == nil {
		payload = map[string]any{}
	}
	return Message{Action: action, Payload: payload}
}

// Parse builds a Message from a decoded JSON object.
// The whole object is kept as payload, as the host sends payload fields
// next to "action".
func Parse(raw map[string]any) (Message, error) {
	action, ok := raw["action"].(string)
	if !ok || action == "" {
		return Message{}, ErrMissingAction
	}
	return Message{Action: Action(action), Payload: raw}, nil
}

// ParseJSON decodes a JSON object and parses it as a Message.
func ParseJSON(data []byte) (Message, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, errors.Wrap(err, "failed to decode message")
	}
	if raw == nil {
		return Message{}, ErrMissingAction
	}
	return Parse(raw)
}

// Map returns the message as a flat JSON-compatible object.
func (m Message) Map() map[string]any {
	out := make(map[string]any, len(m.Payload)+1)
	for k, v := range m.Payload {
		out[k] = v
	}
	out["action"] = string(m.Action)
	return out
}

// Texts holds the localized strings of the overlay.
type Texts struct {
	SendSignal  string `mapstructure:"sendSignal" json:"sendSignal,omitempty"`
	RespawnText string `mapstructure:"respawnText" json:"respawnText,omitempty"`
	ItemWarning string `mapstructure:"itemWarning" json:"itemWarning,omitempty"`
}

// DeathConfig is the config object of showDeathUI and updateConfig.
type DeathConfig struct {
	DeathTimer *float64 `mapstructure:"deathTimer"`
	Debug      bool     `mapstructure:"debug"`
	Texts      *Texts   `mapstructure:"texts"`
}

// HoldUpdate is the payload of updateHoldProgress.
type HoldUpdate struct {
	Progress  *float64 `mapstructure:"progress"`
	TotalTime *float64 `mapstructure:"totalTime"`
}

// Validate reports whether both fields are present and finite.
func (u HoldUpdate) Validate() error {
	if !finite(u.Progress) {
		return errors.Wrap(ErrMissingField, "progress")
	}
	if !finite(u.TotalTime) {
		return errors.Wrap(ErrMissingField, "totalTime")
	}
	return nil
}

// DecodeConfig decodes the "config" object.
// Decoding is lenient: fields that fail to decode keep their zero value and
// the returned error describes them, so callers can still use the result.
func (m Message) DecodeConfig() (DeathConfig, error) {
	var cfg DeathConfig
	raw, ok := m.Payload["config"]
	if !ok || raw == nil {
		return cfg, nil
	}
	if err := decode(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to decode config")
	}
	return cfg, nil
}

// DecodeHoldUpdate decodes and validates an updateHoldProgress payload.
func (m Message) DecodeHoldUpdate() (HoldUpdate, error) {
	var u HoldUpdate
	if err := decode(m.Payload, &u); err != nil {
		return HoldUpdate{}, errors.Wrap(err, "failed to decode hold update")
	}
	if err := u.Validate(); err != nil {
		return HoldUpdate{}, err
	}
	return u, nil
}

// DecodeHoldTime decodes the holdTime field of startRespawn, in seconds.
func (m Message) DecodeHoldTime() (float64, error) {
	var p struct {
		HoldTime *float64 `mapstructure:"holdTime"`
	}
	if err := decode(m.Payload, &p); err != nil {
		return 0, errors.Wrap(err, "failed to decode hold time")
	}
	if !finite(p.HoldTime) {
		return 0, errors.Wrap(ErrMissingField, "holdTime")
	}
	return *p.HoldTime, nil
}

// DecodeVisible decodes the visible field of toggleUIVisibility.
// A missing field reads as false.
func (m Message) DecodeVisible() (bool, error) {
	var p struct {
		Visible bool `mapstructure:"visible"`
	}
	if err := decode(m.Payload, &p); err != nil {
		return false, errors.Wrap(err, "failed to decode visibility")
	}
	return p.Visible, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
