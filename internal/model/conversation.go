// Package model defines data structures for the conversation insights pipeline.
package model

import (
	"time"
)

// Priority labels used by the case store and conversation logs.
const (
	PriorityHigh   = "Alta"
	PriorityMedium = "Média"
	PriorityLow    = "Baixa"
)

// Canonical defaults applied when a source does not carry the field.
const (
	DefaultChannel  = "web"
	DefaultRegion   = "sp"
	DefaultPriority = PriorityMedium
)

// DefaultSlotsTotal is the number of slots the intake flow collects. Raw logs
// carry no slot-tracking signal, so non-synthetic paths report a full set.
const DefaultSlotsTotal = 6

// SourcePath identifies which source populated a dataset.
type SourcePath string

const (
	SourcePostgres  SourcePath = "postgres"
	SourceMongo     SourcePath = "mongo"
	SourceSynthetic SourcePath = "synthetic"
)

// ConversationRecord is one reconciled support conversation. Every source
// path produces the same schema.
type ConversationRecord struct {
	ConversationID     string     `json:"conversation_id"`
	Channel            string     `json:"channel"`
	Region             string     `json:"region"`
	Priority           string     `json:"priority"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	NotificationSentAt *time.Time `json:"notification_sent_at,omitempty"`
	Fallback           bool       `json:"fallback"`
	FallbackPhrase     *string    `json:"fallback_phrase,omitempty"`
	SlotsFilled        int        `json:"slots_filled"`
	SlotsTotal         int        `json:"slots_total"`
	Escalated          bool       `json:"escalated"`
	Abandoned          bool       `json:"abandoned"`
	IntentFinal        string     `json:"intent_final"`
	Protocol           string     `json:"protocol"`
}

// CaseRecord is one row of the structured case store (the denuncias table).
type CaseRecord struct {
	Protocol    string     `json:"protocol"`
	Name        string     `json:"name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status,omitempty"`
	Region      string     `json:"region"`
	CreatedAt   time.Time  `json:"created_at"`
	Title       string     `json:"title,omitempty"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}

// Dataset is the output of one pipeline invocation: the reconciled records
// plus, on the structured path, the raw logs retained as a side channel.
type Dataset struct {
	RunID       string               `json:"run_id"`
	Source      SourcePath           `json:"source"`
	GeneratedAt time.Time            `json:"generated_at"`
	Records     []ConversationRecord `json:"records"`
	RawLogs     []RawLogEntry        `json:"raw_logs,omitempty"`
}

// FilterSettings narrows a dataset before metric computation. Zero-value
// fields leave the corresponding dimension unfiltered.
type FilterSettings struct {
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Channels   []string   `json:"channels,omitempty"`
	Regions    []string   `json:"regions,omitempty"`
	Priorities []string   `json:"priorities,omitempty"`
}

// IsZero reports whether no filter dimension is set.
func (f FilterSettings) IsZero() bool {
	return f.From == nil && f.To == nil &&
		len(f.Channels) == 0 && len(f.Regions) == 0 && len(f.Priorities) == 0
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationRecord `json:"conversations"`
	Total         int                  `json:"total"`
	Source        SourcePath           `json:"source"`
	RunID         string               `json:"run_id"`
	Filters       FilterSettings       `json:"filters"`
}

// DatasetRefreshedEvent is published after each pipeline run.
type DatasetRefreshedEvent struct {
	RunID              string     `json:"run_id"`
	Source             SourcePath `json:"source"`
	Records            int        `json:"records"`
	TotalConversations int        `json:"total_conversations"`
	FallbackRate       float64    `json:"fallback_rate"`
	AbandonmentRate    float64    `json:"abandonment_rate"`
	GeneratedAt        time.Time  `json:"generated_at"`
}
