package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denuncia-labs/conversation-insights/internal/model"
)

func ts(t time.Time) *time.Time { return &t }

func TestComputeMetricsEmptySet(t *testing.T) {
	report := ComputeMetrics(nil)

	assert.Equal(t, 0, report.TotalConversations)
	assert.Equal(t, 0.0, report.FallbackRate)
	assert.Equal(t, 0.0, report.SlotFillRate)
	assert.Equal(t, 0.0, report.EscalationRate)
	assert.Equal(t, 0.0, report.AbandonmentRate)
	assert.Equal(t, 0.0, report.PctHighPriority)
	assert.True(t, report.AvgCompletionMinutes.IsNaN())
	assert.True(t, report.AvgNotificationDelayMinutes.IsNaN())
	assert.Empty(t, report.ReportsByChannel)
	assert.Empty(t, report.ReportsByRegion)
}

func TestComputeMetrics(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []model.ConversationRecord{
		{
			ConversationID: "c1", Channel: "web", Region: "sp", Priority: model.PriorityHigh,
			CreatedAt: t0, CompletedAt: ts(t0.Add(30 * time.Minute)),
			NotificationSentAt: ts(t0.Add(10 * time.Minute)),
			SlotsFilled:        6, SlotsTotal: 6, Fallback: true, Escalated: true,
		},
		{
			ConversationID: "c2", Channel: "web", Region: "rj", Priority: model.PriorityMedium,
			CreatedAt: t0, CompletedAt: ts(t0.Add(10 * time.Minute)),
			SlotsFilled: 4, SlotsTotal: 6,
		},
		{
			ConversationID: "c3", Channel: "whatsapp", Region: "sp", Priority: model.PriorityLow,
			CreatedAt: t0, Abandoned: true, SlotsFilled: 2, SlotsTotal: 6,
		},
		{
			ConversationID: "c4", Channel: "web", Region: "mg", Priority: model.PriorityLow,
			CreatedAt: t0, CompletedAt: ts(t0.Add(20 * time.Minute)),
			SlotsFilled: 5, SlotsTotal: 6,
		},
	}

	report := ComputeMetrics(records)

	assert.Equal(t, 4, report.TotalConversations)
	assert.Equal(t, 0.25, report.FallbackRate)
	assert.Equal(t, 0.25, report.EscalationRate)
	assert.Equal(t, 0.25, report.AbandonmentRate)
	assert.Equal(t, 0.25, report.PctHighPriority)

	// Slot fill over non-abandoned rows only: (6+4+5)/(6+6+6).
	assert.InDelta(t, 15.0/18.0, report.SlotFillRate, 1e-9)

	// Completion over non-abandoned completed rows: (30+10+20)/3.
	assert.InDelta(t, 20.0, float64(report.AvgCompletionMinutes), 1e-9)

	assert.InDelta(t, 10.0, float64(report.AvgNotificationDelayMinutes), 1e-9)

	assert.Equal(t, map[string]int{"web": 3, "whatsapp": 1}, report.ReportsByChannel)
	assert.Equal(t, map[string]int{"sp": 2, "rj": 1, "mg": 1}, report.ReportsByRegion)
}

func TestComputeMetricsIdempotent(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []model.ConversationRecord{
		{ConversationID: "c1", Channel: "web", Region: "sp", Priority: model.PriorityHigh, CreatedAt: t0, CompletedAt: ts(t0.Add(time.Hour))},
		{ConversationID: "c2", Channel: "web", Region: "sp", Priority: model.PriorityLow, CreatedAt: t0, Abandoned: true},
	}

	first := ComputeMetrics(records)
	second := ComputeMetrics(records)
	assert.Equal(t, first, second)
}

func TestComputeMetricsDistinctConversationIDs(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []model.ConversationRecord{
		{ConversationID: "dup", Channel: "web", Region: "sp", CreatedAt: t0, Fallback: true},
		{ConversationID: "dup", Channel: "web", Region: "sp", CreatedAt: t0},
	}

	report := ComputeMetrics(records)
	assert.Equal(t, 1, report.TotalConversations)
	assert.Equal(t, 1.0, report.FallbackRate)
}

func TestMeanSerializesNaNAsNull(t *testing.T) {
	report := ComputeMetrics(nil)
	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"avg_completion_minutes":null`)
	assert.Contains(t, string(data), `"avg_notification_delay_minutes":null`)
}
