package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/denuncia-labs/conversation-insights/internal/model"
)

const (
	// StreamName is the name of the insights event stream.
	StreamName = "INSIGHTS"

	// SubjectPrefix is the prefix for all insights subjects.
	SubjectPrefix = "insights"
)

// Publisher publishes pipeline lifecycle events to JetStream.
type Publisher struct {
	client *Client
}

// NewPublisher creates a new publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the insights stream exists with proper configuration.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	// Check if stream exists
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	// Create stream
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024, // 1GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Pipeline dataset refresh events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// RefreshSubject returns the subject for a dataset refresh event.
func RefreshSubject(source model.SourcePath) string {
	return fmt.Sprintf("%s.dataset.refreshed.%s", SubjectPrefix, source)
}

// PublishRefreshed publishes a dataset refresh event.
func (p *Publisher) PublishRefreshed(ctx context.Context, event *model.DatasetRefreshedEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.client.JetStream().Publish(ctx, RefreshSubject(event.Source), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}
