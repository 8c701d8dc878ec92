// Package pipeline implements the reconciliation and session-aggregation
// pipeline: source reconciliation, session aggregation, synthetic generation
// and metric computation over conversation records.
package pipeline

import (
	"strings"

	"github.com/denuncia-labs/conversation-insights/internal/model"
)

// FallbackIntent is the intent label the conversational agent emits when it
// fails to recognize user input.
const FallbackIntent = "Default Fallback Intent"

// EscalationIntent is the intent label for an explicit human hand-off request.
const EscalationIntent = "falar-com-atendente"

// Signals are the classification flags derived from a single log entry.
type Signals struct {
	Completion   bool
	Fallback     bool
	// FallbackByIntent is set when the fallback came from the intent label
	// rather than a message marker; only then is QueryText the utterance
	// that caused it.
	FallbackByIntent bool
	Notification     bool
	Escalation       bool
}

// Classifier matches free-text log fields against the signal vocabulary.
// Matching is case-insensitive substring matching; the vocabulary follows the
// agent's Portuguese log messages.
type Classifier struct {
	completionMarkers     []string
	fallbackMarker        string
	notificationComponent string
	escalationMarker      string
}

// NewClassifier returns a classifier with the default vocabulary.
func NewClassifier() *Classifier {
	return &Classifier{
		completionMarkers:     []string{"concluído", "concluido", "fluxo"},
		fallbackMarker:        "fallback detectado",
		notificationComponent: "sendgrid",
		escalationMarker:      "solicitação de escalonamento",
	}
}

// Classify derives the signal flags for one entry.
func (c *Classifier) Classify(e model.RawLogEntry) Signals {
	msg := strings.ToLower(e.Message)

	var s Signals
	for _, marker := range c.completionMarkers {
		if strings.Contains(msg, marker) {
			s.Completion = true
			break
		}
	}

	if e.IntentName == FallbackIntent {
		s.Fallback = true
		s.FallbackByIntent = true
	} else if strings.Contains(msg, c.fallbackMarker) {
		s.Fallback = true
	}

	s.Notification = strings.Contains(strings.ToLower(e.Component), c.notificationComponent)
	s.Escalation = e.IntentName == EscalationIntent || strings.Contains(msg, c.escalationMarker)

	return s
}
