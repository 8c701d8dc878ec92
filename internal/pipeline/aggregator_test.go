package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denuncia-labs/conversation-insights/internal/model"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
)

func newTestAggregator() *Aggregator {
	return NewAggregator(NewClassifier(), logger.NewNop())
}

func TestSessionsFallbackCompletionScenario(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entries := []model.RawLogEntry{
		{DialogflowSessionID: "s1", Timestamp: t0, Message: "iniciado"},
		{DialogflowSessionID: "s1", Timestamp: t0.Add(5 * time.Minute), IntentName: FallbackIntent, QueryText: "não entendi"},
		{DialogflowSessionID: "s1", Timestamp: t0.Add(10 * time.Minute), Message: "Fluxo concluído"},
	}

	records := newTestAggregator().Sessions(entries)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "s1", rec.ConversationID)
	assert.True(t, rec.Fallback)
	require.NotNil(t, rec.FallbackPhrase)
	assert.Equal(t, "não entendi", *rec.FallbackPhrase)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, t0.Add(10*time.Minute), *rec.CompletedAt)
	assert.False(t, rec.Abandoned)
	assert.Equal(t, t0, rec.CreatedAt)
}

func TestSessionsWinningFieldIsGlobal(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	// session_id is present on one row, so it wins over protocolo for the
	// whole batch even though protocolo is set on more rows.
	entries := []model.RawLogEntry{
		{SessionID: "a", Protocol: "SUP-1", Timestamp: t0},
		{Protocol: "SUP-2", Timestamp: t0.Add(time.Minute)},
	}

	records := newTestAggregator().Sessions(entries)
	require.Len(t, records, 2)

	ids := []string{records[0].ConversationID, records[1].ConversationID}
	assert.Contains(t, ids, "a")
	// The row without the winning field gets a positional identifier.
	assert.Contains(t, ids, "1")
}

func TestSessionsDropsNonePlaceholder(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entries := []model.RawLogEntry{
		{SessionID: "None", Timestamp: t0},
		{SessionID: "real", Timestamp: t0},
	}

	records := newTestAggregator().Sessions(entries)
	require.Len(t, records, 1)
	assert.Equal(t, "real", records[0].ConversationID)
}

func TestSessionsNestedContextFields(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entries := []model.RawLogEntry{
		{
			Timestamp: t0,
			Context: map[string]any{
				"dialogflowSessionId": "ctx-1",
				"prioridade":          "Alta",
				"uf":                  "RJ",
				"protocolo":           "SUP-77",
			},
		},
	}

	records := newTestAggregator().Sessions(entries)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "ctx-1", rec.ConversationID)
	assert.Equal(t, "Alta", rec.Priority)
	assert.Equal(t, "rj", rec.Region)
	assert.Equal(t, "SUP-77", rec.Protocol)
}

func TestSessionsDefaultsAndInferredSignals(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entries := []model.RawLogEntry{
		{SessionID: "s1", Timestamp: t0, Message: "olá"},
		{SessionID: "s1", Timestamp: t0.Add(2 * time.Minute), Component: "SendGridMailer"},
	}

	records := newTestAggregator().Sessions(entries)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, model.DefaultChannel, rec.Channel)
	assert.Equal(t, model.DefaultRegion, rec.Region)
	assert.Equal(t, model.DefaultPriority, rec.Priority)
	assert.Equal(t, model.DefaultSlotsTotal, rec.SlotsTotal)
	assert.Equal(t, "MONGO-s1", rec.Protocol)

	// Escalation is inferred from notification dispatch.
	require.NotNil(t, rec.NotificationSentAt)
	assert.Equal(t, t0.Add(2*time.Minute), *rec.NotificationSentAt)
	assert.True(t, rec.Escalated)

	// No completion message: abandoned.
	assert.Nil(t, rec.CompletedAt)
	assert.True(t, rec.Abandoned)
}

func TestSessionsDeterministicAcrossInputOrder(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entries := []model.RawLogEntry{
		{SessionID: "s1", Timestamp: t0, Message: "iniciado"},
		{SessionID: "s1", Timestamp: t0.Add(10 * time.Minute), Message: "Fluxo concluído"},
		{SessionID: "s2", Timestamp: t0.Add(time.Minute), Message: "iniciado"},
		{SessionID: "s2", Timestamp: t0.Add(3 * time.Minute), IntentName: FallbackIntent, QueryText: "hã?"},
	}
	reversed := make([]model.RawLogEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}

	agg := newTestAggregator()
	assert.Equal(t, agg.Sessions(entries), agg.Sessions(reversed))
}

func TestSessionsEmptyInput(t *testing.T) {
	assert.Empty(t, newTestAggregator().Sessions(nil))
}
