// Package overlay implements the death screen: its session lifecycle, the
// countdown engine and the two hold-progress mechanisms.
package overlay

import "github.com/cockroachdb/errors"

// Phase represents the overlay session phase.
type Phase int

const (
	PhaseCountdown       Phase = iota // Death countdown running
	PhaseRespawnEligible              // Countdown expired, respawn available
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhaseRespawnEligible:
		return "respawn_eligible"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name produced by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "countdown":
		*p = PhaseCountdown
	case "respawn_eligible":
		*p = PhaseRespawnEligible
	default:
		return errors.Newf("unknown phase %q", text)
	}
	return nil
}
