package overlay

import (
	"regexp"

	"github.com/osa030/deathscreen/internal/domain/message"
)

// Default texts shown when the host does not provide its own.
const (
	DefaultSendSignalText  = "Изпратете сигнал към EMS натиснете [G]"
	DefaultRespawnText     = "Задръжте [E] за да се респаунете"
	DefaultItemWarningText = "(Всички айтъми ще бъдат изтрити!)"
)

// DefaultTexts returns the built-in texts.
func DefaultTexts() message.Texts {
	return message.Texts{
		SendSignal:  DefaultSendSignalText,
		RespawnText: DefaultRespawnText,
		ItemWarning: DefaultItemWarningText,
	}
}

var keyPattern = regexp.MustCompile(`\[([A-Z])\]`)

// HighlightKeys wraps every "[X]" key reference, X a single uppercase
// letter, in a key-highlight span. Other text passes through unescaped:
// texts come from the host configuration.
func HighlightKeys(text string) string {
	return keyPattern.ReplaceAllString(text, `<span class="key-highlight">$1</span>`)
}

// mergeTexts fills empty fields of t from fallback.
func mergeTexts(t, fallback message.Texts) message.Texts {
	if t.SendSignal == "" {
		t.SendSignal = fallback.SendSignal
	}
	if t.RespawnText == "" {
		t.RespawnText = fallback.RespawnText
	}
	if t.ItemWarning == "" {
		t.ItemWarning = fallback.ItemWarning
	}
	return t
}
