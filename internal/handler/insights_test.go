package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denuncia-labs/conversation-insights/internal/model"
	"github.com/denuncia-labs/conversation-insights/internal/pipeline"
	"github.com/denuncia-labs/conversation-insights/internal/service"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
)

type stubPipeline struct {
	dataset model.Dataset
}

func (s *stubPipeline) Run(ctx context.Context) *model.Dataset {
	ds := s.dataset
	ds.RunID = "run-1"
	return &ds
}

func newTestHandler() *InsightsHandler {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	completed := t0.Add(15 * time.Minute)
	stub := &stubPipeline{dataset: model.Dataset{
		Source:      model.SourcePostgres,
		GeneratedAt: t0,
		Records: []model.ConversationRecord{
			{ConversationID: "c1", Channel: "web", Region: "sp", Priority: model.PriorityHigh, CreatedAt: t0, CompletedAt: &completed},
			{ConversationID: "c2", Channel: "whatsapp", Region: "rj", Priority: model.PriorityLow, CreatedAt: t0, Abandoned: true},
		},
		RawLogs: []model.RawLogEntry{
			{Timestamp: t0, Component: "dialogflow", Level: "INFO", Message: "sessão iniciada"},
			{Timestamp: t0.Add(time.Minute), Component: "SendGridMailer", Level: "INFO"},
		},
	}}
	svc := service.NewInsightsService(stub, pipeline.NewClassifier(), nil, time.Hour, logger.NewNop())
	return NewInsightsHandler(svc, logger.NewNop())
}

func TestListConversations(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	rec := httptest.NewRecorder()
	h.ListConversations(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, model.SourcePostgres, resp.Source)
	assert.Equal(t, "run-1", resp.RunID)
}

func TestListConversationsWithFilters(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations?channel=web&priority=Alta", nil)
	rec := httptest.NewRecorder()
	h.ListConversations(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "c1", resp.Conversations[0].ConversationID)
	assert.Equal(t, []string{"web"}, resp.Filters.Channels)
}

func TestListConversationsBadDate(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations?from=not-a-date", nil)
	rec := httptest.NewRecorder()
	h.ListConversations(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMetrics(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	rec := httptest.NewRecorder()
	h.GetMetrics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report model.MetricsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalConversations)
	assert.Equal(t, 0.5, report.AbandonmentRate)
	assert.Equal(t, 0.5, report.PctHighPriority)
	assert.InDelta(t, 15.0, float64(report.AvgCompletionMinutes), 1e-9)
}

func TestListLogs(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?limit=1", nil)
	rec := httptest.NewRecorder()
	h.ListLogs(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Logs  []model.RawLogEntry `json:"logs"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Logs, 1)
	assert.Equal(t, 2, resp.Total)
}

func TestGetLogSummary(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/summary", nil)
	rec := httptest.NewRecorder()
	h.GetLogSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary pipeline.LogSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalEntries)
	assert.Equal(t, 1, summary.ByComponent["SendGridMailer"])
}

func TestRefresh(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp["run_id"])
	assert.Equal(t, float64(2), resp["records"])
}
