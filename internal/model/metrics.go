package model

import (
	"math"
	"strconv"
)

// Mean is an average in minutes. It is NaN when no row qualified for the
// computation, and serializes NaN as JSON null so responses stay valid.
type Mean float64

// IsNaN reports whether the mean is undefined.
func (m Mean) IsNaN() bool {
	return math.IsNaN(float64(m))
}

// MarshalJSON implements json.Marshaler.
func (m Mean) MarshalJSON() ([]byte, error) {
	if m.IsNaN() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mean) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Mean(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*m = Mean(f)
	return nil
}

// MetricsReport is the fixed set of aggregate quality metrics computed from a
// reconciled record set. Rates are proportions of total conversations and are
// 0 on an empty set.
type MetricsReport struct {
	TotalConversations          int            `json:"total_conversations"`
	FallbackRate                float64        `json:"fallback_rate"`
	SlotFillRate                float64        `json:"slot_fill_rate"`
	AvgCompletionMinutes        Mean           `json:"avg_completion_minutes"`
	EscalationRate              float64        `json:"escalation_rate"`
	AbandonmentRate             float64        `json:"abandonment_rate"`
	ReportsByChannel            map[string]int `json:"reports_by_channel"`
	ReportsByRegion             map[string]int `json:"reports_by_region"`
	PctHighPriority             float64        `json:"pct_high_priority"`
	AvgNotificationDelayMinutes Mean           `json:"avg_notification_delay_minutes"`
}
