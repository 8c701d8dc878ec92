package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denuncia-labs/conversation-insights/internal/model"
)

func TestGenerateRecordInvariants(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := NewGenerator(DefaultSyntheticSeed, 600).Generate(now)
	require.Len(t, records, 600)

	seen := make(map[string]struct{}, len(records))
	windowStart := now.Add(-syntheticWindow)
	for _, r := range records {
		_, dup := seen[r.ConversationID]
		assert.False(t, dup, "duplicate conversation id %s", r.ConversationID)
		seen[r.ConversationID] = struct{}{}

		assert.False(t, r.CreatedAt.Before(windowStart))
		assert.False(t, r.CreatedAt.After(now))

		assert.Equal(t, r.Abandoned, r.CompletedAt == nil)
		assert.GreaterOrEqual(t, r.SlotsFilled, 0)
		assert.LessOrEqual(t, r.SlotsFilled, r.SlotsTotal)
		if r.Abandoned {
			assert.Less(t, r.SlotsFilled, r.SlotsTotal)
		} else {
			assert.GreaterOrEqual(t, r.SlotsFilled, 3)
		}

		if r.NotificationSentAt != nil {
			assert.Equal(t, model.PriorityHigh, r.Priority)
			assert.True(t, r.NotificationSentAt.After(r.CreatedAt))
		}
		if r.Escalated {
			assert.Equal(t, model.PriorityHigh, r.Priority)
		}
		if r.Fallback {
			assert.NotNil(t, r.FallbackPhrase)
		}

		assert.NotEmpty(t, r.Channel)
		assert.NotEmpty(t, r.Region)
		assert.NotEmpty(t, r.Priority)
		assert.NotEmpty(t, r.Protocol)
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewGenerator(7, 200).Generate(now)
	b := NewGenerator(7, 200).Generate(now)
	assert.Equal(t, a, b)

	c := NewGenerator(8, 200).Generate(now)
	assert.NotEqual(t, a, c)
}

func TestGenerateRateDistributions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := NewGenerator(DefaultSyntheticSeed, 800).Generate(now)

	report := ComputeMetrics(records)
	assert.Equal(t, 800, report.TotalConversations)
	assert.InDelta(t, 0.12, report.FallbackRate, 0.07)
	assert.InDelta(t, 0.08, report.AbandonmentRate, 0.05)
	assert.InDelta(t, 0.15, report.PctHighPriority, 0.07)
}

func TestGenerateDefaultRows(t *testing.T) {
	g := NewGenerator(DefaultSyntheticSeed, 0)
	assert.Equal(t, DefaultSyntheticRows, g.Rows())
}
