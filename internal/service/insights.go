// Package service provides the application logic over the reconciliation
// pipeline: dataset memoization, filter state and refresh event publishing.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/denuncia-labs/conversation-insights/internal/model"
	"github.com/denuncia-labs/conversation-insights/internal/pipeline"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
	"github.com/denuncia-labs/conversation-insights/pkg/metrics"
)

// Pipeline runs one reconciliation pass and always yields a dataset.
type Pipeline interface {
	Run(ctx context.Context) *model.Dataset
}

// RefreshPublisher publishes dataset refresh events.
type RefreshPublisher interface {
	PublishRefreshed(ctx context.Context, event *model.DatasetRefreshedEvent) (uint64, error)
}

// InsightsService owns the latest reconciled dataset and the metrics derived
// from it. The dataset is memoized between calls and recomputed when stale or
// on explicit refresh. Filter settings persist across calls until overridden.
type InsightsService struct {
	run             Pipeline
	classifier      *pipeline.Classifier
	publisher       RefreshPublisher
	logger          *logger.Logger
	refreshInterval time.Duration

	mu          sync.RWMutex
	dataset     *model.Dataset
	report      model.MetricsReport
	logSummary  pipeline.LogSummary
	loadedAt    time.Time
	lastFilters model.FilterSettings
}

// NewInsightsService creates the service. publisher may be nil, in which case
// refresh events are not emitted.
func NewInsightsService(p Pipeline, classifier *pipeline.Classifier, publisher RefreshPublisher, refreshInterval time.Duration, log *logger.Logger) *InsightsService {
	return &InsightsService{
		run:             p,
		classifier:      classifier,
		publisher:       publisher,
		refreshInterval: refreshInterval,
		logger:          log,
	}
}

// Dataset returns the current dataset, running the pipeline if none is loaded
// or the memoized one has gone stale.
func (s *InsightsService) Dataset(ctx context.Context) *model.Dataset {
	s.mu.RLock()
	ds := s.dataset
	fresh := ds != nil && time.Since(s.loadedAt) < s.refreshInterval
	s.mu.RUnlock()

	if fresh {
		return ds
	}
	return s.Refresh(ctx)
}

// Refresh forces a pipeline run, replaces the memoized dataset and publishes
// a refresh event when a publisher is configured.
func (s *InsightsService) Refresh(ctx context.Context) *model.Dataset {
	start := time.Now()
	ds := s.run.Run(ctx)
	report := pipeline.ComputeMetrics(ds.Records)
	summary := pipeline.AnalyzeLogs(s.classifier, ds.RawLogs)

	s.mu.Lock()
	s.dataset = ds
	s.report = report
	s.logSummary = summary
	s.loadedAt = time.Now()
	s.mu.Unlock()

	metrics.RecordPipelineRun(string(ds.Source), len(ds.Records), time.Since(start).Seconds())
	metrics.DatasetFallbackRate.Set(report.FallbackRate)
	metrics.DatasetAbandonmentRate.Set(report.AbandonmentRate)

	if s.publisher != nil {
		event := &model.DatasetRefreshedEvent{
			RunID:              ds.RunID,
			Source:             ds.Source,
			Records:            len(ds.Records),
			TotalConversations: report.TotalConversations,
			FallbackRate:       report.FallbackRate,
			AbandonmentRate:    report.AbandonmentRate,
			GeneratedAt:        ds.GeneratedAt,
		}
		if _, err := s.publisher.PublishRefreshed(ctx, event); err != nil {
			s.logger.Warn("failed to publish refresh event",
				zap.String("run_id", ds.RunID),
				zap.Error(err),
			)
		}
	}

	return ds
}

// Conversations returns the records matching the filters. A nil filters
// argument reapplies the last-applied filter set; a non-nil one replaces it.
func (s *InsightsService) Conversations(ctx context.Context, filters *model.FilterSettings) *model.ListConversationsResponse {
	ds := s.Dataset(ctx)

	s.mu.Lock()
	if filters != nil {
		s.lastFilters = *filters
	}
	applied := s.lastFilters
	s.mu.Unlock()

	records := pipeline.ApplyFilters(ds.Records, applied)
	return &model.ListConversationsResponse{
		Conversations: records,
		Total:         len(records),
		Source:        ds.Source,
		RunID:         ds.RunID,
		Filters:       applied,
	}
}

// Metrics returns the quality metrics over the filtered record set. A nil
// filters argument reapplies the last-applied filter set; when that is empty
// the memoized full-set report is returned.
func (s *InsightsService) Metrics(ctx context.Context, filters *model.FilterSettings) model.MetricsReport {
	ds := s.Dataset(ctx)

	s.mu.Lock()
	if filters != nil {
		s.lastFilters = *filters
	}
	applied := s.lastFilters
	report := s.report
	s.mu.Unlock()

	if applied.IsZero() {
		return report
	}
	return pipeline.ComputeMetrics(pipeline.ApplyFilters(ds.Records, applied))
}

// RawLogs returns the raw-log side channel of the current dataset. It is
// empty unless the structured path produced the dataset.
func (s *InsightsService) RawLogs(ctx context.Context) []model.RawLogEntry {
	ds := s.Dataset(ctx)
	return ds.RawLogs
}

// LogSummary returns the analysis of the raw-log side channel.
func (s *InsightsService) LogSummary(ctx context.Context) pipeline.LogSummary {
	s.Dataset(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logSummary
}
