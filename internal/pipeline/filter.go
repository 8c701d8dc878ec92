package pipeline

import (
	"github.com/denuncia-labs/conversation-insights/internal/model"
)

// ApplyFilters returns the records matching every set dimension of f. The
// input slice is never mutated; an unset filter returns a copy of the input.
func ApplyFilters(records []model.ConversationRecord, f model.FilterSettings) []model.ConversationRecord {
	out := make([]model.ConversationRecord, 0, len(records))
	for _, r := range records {
		if f.From != nil && r.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && r.CreatedAt.After(*f.To) {
			continue
		}
		if len(f.Channels) > 0 && !contains(f.Channels, r.Channel) {
			continue
		}
		if len(f.Regions) > 0 && !contains(f.Regions, r.Region) {
			continue
		}
		if len(f.Priorities) > 0 && !contains(f.Priorities, r.Priority) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
