package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/denuncia-labs/conversation-insights/internal/model"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
)

// sessionFieldCandidates is the priority order for resolving a session
// identifier. The first candidate with at least one non-empty value across
// the whole batch wins for every row.
var sessionFieldCandidates = []string{
	"dialogflowSessionId",
	"session_id",
	"sessionId",
	"context.dialogflowSessionId",
	"context.session_id",
	"protocolo",
}

// Aggregator reduces raw log entries into per-session conversation records.
type Aggregator struct {
	classifier *Classifier
	logger     *logger.Logger
}

// NewAggregator creates a new session aggregator.
func NewAggregator(classifier *Classifier, log *logger.Logger) *Aggregator {
	return &Aggregator{
		classifier: classifier,
		logger:     log,
	}
}

// Sessions groups entries by resolved session identifier and reduces each
// group to one conversation record. Groups whose identifier is empty or the
// literal "None" placeholder are dropped.
func (a *Aggregator) Sessions(entries []model.RawLogEntry) []model.ConversationRecord {
	if len(entries) == 0 {
		return nil
	}

	winner := a.resolveSessionField(entries)

	groups := make(map[string][]model.RawLogEntry)
	for i, e := range entries {
		id := ""
		if winner != "" {
			id = e.Field(winner)
		}
		if id == "" {
			// No usable identifier on this row; key it by position.
			id = strconv.Itoa(i)
		}
		if id == "None" {
			continue
		}
		groups[id] = append(groups[id], e.Normalized())
	}

	records := make([]model.ConversationRecord, 0, len(groups))
	for id, group := range groups {
		records = append(records, a.reduce(id, group))
	}

	// Map iteration order is random; fix the output order so repeated runs
	// over the same input are identical.
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ConversationID < records[j].ConversationID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	a.logger.Info("aggregated log sessions",
		zap.Int("entries", len(entries)),
		zap.Int("sessions", len(records)),
		zap.String("session_field", winner),
	)

	return records
}

// resolveSessionField scans the candidates in priority order and returns the
// first whose column holds at least one non-empty value, or "" if none does.
func (a *Aggregator) resolveSessionField(entries []model.RawLogEntry) string {
	for _, candidate := range sessionFieldCandidates {
		for _, e := range entries {
			if v := e.Field(candidate); v != "" && v != "None" {
				return candidate
			}
		}
	}
	return ""
}

// reduce derives one conversation record from the entries of a session.
func (a *Aggregator) reduce(sessionID string, group []model.RawLogEntry) model.ConversationRecord {
	sort.Slice(group, func(i, j int) bool {
		return group[i].Timestamp.Before(group[j].Timestamp)
	})

	rec := model.ConversationRecord{
		ConversationID: sessionID,
		Channel:        model.DefaultChannel,
		Region:         model.DefaultRegion,
		Priority:       model.DefaultPriority,
		CreatedAt:      group[0].Timestamp,
		SlotsFilled:    model.DefaultSlotsTotal,
		SlotsTotal:     model.DefaultSlotsTotal,
		IntentFinal:    "AbrirChamadoSuporte",
		Protocol:       "MONGO-" + sessionID,
	}

	for _, e := range group {
		sig := a.classifier.Classify(e)

		if sig.Completion && rec.CompletedAt == nil {
			ts := e.Timestamp
			rec.CompletedAt = &ts
		}
		if sig.Notification && rec.NotificationSentAt == nil {
			ts := e.Timestamp
			rec.NotificationSentAt = &ts
		}
		if sig.Fallback && !rec.Fallback {
			rec.Fallback = true
		}
		if sig.FallbackByIntent && rec.FallbackPhrase == nil && e.QueryText != "" {
			phrase := e.QueryText
			rec.FallbackPhrase = &phrase
		}
	}

	if v := firstNonEmpty(group, "prioridade"); v != "" {
		rec.Priority = v
	}
	if v := firstNonEmpty(group, "uf"); v != "" {
		rec.Region = strings.ToLower(v)
	}
	if v := firstNonEmpty(group, "channel"); v != "" {
		rec.Channel = v
	}
	if v := firstNonEmpty(group, "protocolo"); v != "" {
		rec.Protocol = v
	}

	// Escalation is inferred from a notification having been dispatched;
	// there is no direct hand-off signal on this path.
	rec.Escalated = rec.NotificationSentAt != nil
	rec.Abandoned = rec.CompletedAt == nil

	return rec
}

func firstNonEmpty(group []model.RawLogEntry, field string) string {
	for _, e := range group {
		if v := e.Field(field); v != "" {
			return v
		}
	}
	return ""
}
