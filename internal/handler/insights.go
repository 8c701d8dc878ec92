package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/denuncia-labs/conversation-insights/internal/model"
	"github.com/denuncia-labs/conversation-insights/internal/service"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
)

// maxLogPage caps how many raw log entries one response returns.
const maxLogPage = 1000

// InsightsHandler serves the reconciled dataset and its derived metrics.
type InsightsHandler struct {
	service *service.InsightsService
	logger  *logger.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(svc *service.InsightsService, log *logger.Logger) *InsightsHandler {
	return &InsightsHandler{
		service: svc,
		logger:  log,
	}
}

// ListConversations handles GET /api/v1/conversations
//
// Filter query params (from, to, channel, region, priority) replace the
// remembered filter set; a request without any reapplies the previous one.
func (h *InsightsHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.service.Conversations(r.Context(), filters)
	writeJSON(w, http.StatusOK, resp)
}

// GetMetrics handles GET /api/v1/metrics
func (h *InsightsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := h.service.Metrics(r.Context(), filters)
	writeJSON(w, http.StatusOK, report)
}

// ListLogs handles GET /api/v1/logs
func (h *InsightsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.service.RawLogs(r.Context())

	limit := maxLogPage
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < limit {
			limit = n
		}
	}
	total := len(logs)
	if len(logs) > limit {
		logs = logs[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"total": total,
	})
}

// GetLogSummary handles GET /api/v1/logs/summary
func (h *InsightsHandler) GetLogSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.LogSummary(r.Context()))
}

// Refresh handles POST /api/v1/refresh
func (h *InsightsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ds := h.service.Refresh(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":       ds.RunID,
		"source":       ds.Source,
		"records":      len(ds.Records),
		"generated_at": ds.GeneratedAt,
	})
}

// parseFilters builds filter settings from query params. It returns nil when
// no filter param is present, which tells the service to reapply the
// last-applied set.
func parseFilters(r *http.Request) (*model.FilterSettings, error) {
	q := r.URL.Query()

	hasAny := false
	for _, key := range []string{"from", "to", "channel", "region", "priority"} {
		if q.Get(key) != "" {
			hasAny = true
			break
		}
	}
	if !hasAny {
		return nil, nil
	}

	var f model.FilterSettings
	if v := q.Get("from"); v != "" {
		ts, err := parseTime(v)
		if err != nil {
			return nil, err
		}
		f.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := parseTime(v)
		if err != nil {
			return nil, err
		}
		f.To = &ts
	}
	f.Channels = splitParam(q.Get("channel"))
	f.Regions = splitParam(q.Get("region"))
	f.Priorities = splitParam(q.Get("priority"))

	return &f, nil
}

func parseTime(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", v)
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
