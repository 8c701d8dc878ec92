package pipeline

import (
	"time"

	"github.com/denuncia-labs/conversation-insights/internal/model"
)

// maxFallbackPhrases caps the distinct phrases reported in a summary.
const maxFallbackPhrases = 10

// LogSummary describes the raw-log side channel of a dataset for secondary
// inspection: volume, activity shape and signal incidence.
type LogSummary struct {
	TotalEntries       int            `json:"total_entries"`
	FirstEntryAt       *time.Time     `json:"first_entry_at,omitempty"`
	LastEntryAt        *time.Time     `json:"last_entry_at,omitempty"`
	ByComponent        map[string]int `json:"by_component"`
	ByLevel            map[string]int `json:"by_level"`
	HourlyActivity     [24]int        `json:"hourly_activity"`
	FallbackEntries    int            `json:"fallback_entries"`
	FallbackPhrases    []string       `json:"fallback_phrases,omitempty"`
	EscalationEntries  int            `json:"escalation_entries"`
	EscalationSessions int            `json:"escalation_sessions"`
}

// AnalyzeLogs computes a summary over raw log entries. An empty input yields
// zero counts, not an error.
func AnalyzeLogs(classifier *Classifier, entries []model.RawLogEntry) LogSummary {
	summary := LogSummary{
		TotalEntries: len(entries),
		ByComponent:  make(map[string]int),
		ByLevel:      make(map[string]int),
	}

	seenPhrases := make(map[string]struct{})
	escalationSessions := make(map[string]struct{})

	for _, raw := range entries {
		e := raw.Normalized()

		if !e.Timestamp.IsZero() {
			ts := e.Timestamp
			if summary.FirstEntryAt == nil || ts.Before(*summary.FirstEntryAt) {
				first := ts
				summary.FirstEntryAt = &first
			}
			if summary.LastEntryAt == nil || ts.After(*summary.LastEntryAt) {
				last := ts
				summary.LastEntryAt = &last
			}
			summary.HourlyActivity[ts.Hour()]++
		}

		if e.Component != "" {
			summary.ByComponent[e.Component]++
		}
		if e.Level != "" {
			summary.ByLevel[e.Level]++
		}

		sig := classifier.Classify(e)
		if sig.Fallback {
			summary.FallbackEntries++
			if e.QueryText != "" {
				if _, ok := seenPhrases[e.QueryText]; !ok && len(seenPhrases) < maxFallbackPhrases {
					seenPhrases[e.QueryText] = struct{}{}
					summary.FallbackPhrases = append(summary.FallbackPhrases, e.QueryText)
				}
			}
		}
		if sig.Escalation {
			summary.EscalationEntries++
			if id := e.Field("dialogflowSessionId"); id != "" {
				escalationSessions[id] = struct{}{}
			}
		}
	}

	summary.EscalationSessions = len(escalationSessions)
	return summary
}
