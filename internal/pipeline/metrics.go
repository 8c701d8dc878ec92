package pipeline

import (
	"math"

	"github.com/denuncia-labs/conversation-insights/internal/model"
)

// ComputeMetrics derives the aggregate quality metrics from a record set. It
// is a pure function of its input: rates are 0 on an empty set, and the
// average fields are NaN (serialized as null) when no row qualifies.
func ComputeMetrics(records []model.ConversationRecord) model.MetricsReport {
	report := model.MetricsReport{
		ReportsByChannel:            make(map[string]int),
		ReportsByRegion:             make(map[string]int),
		AvgCompletionMinutes:        model.Mean(math.NaN()),
		AvgNotificationDelayMinutes: model.Mean(math.NaN()),
	}

	distinct := make(map[string]struct{}, len(records))
	var fallbacks, escalated, abandoned, highPriority int
	var slotsFilled, slotsTotal int
	var completionSum float64
	var completionN int
	var notifSum float64
	var notifN int

	for _, r := range records {
		distinct[r.ConversationID] = struct{}{}

		if r.Fallback {
			fallbacks++
		}
		if r.Escalated {
			escalated++
		}
		if r.Abandoned {
			abandoned++
		}
		if r.Priority == model.PriorityHigh {
			highPriority++
		}

		report.ReportsByChannel[r.Channel]++
		report.ReportsByRegion[r.Region]++

		if !r.Abandoned {
			slotsFilled += r.SlotsFilled
			slotsTotal += r.SlotsTotal
			if r.CompletedAt != nil {
				completionSum += r.CompletedAt.Sub(r.CreatedAt).Minutes()
				completionN++
			}
		}
		if r.NotificationSentAt != nil {
			notifSum += r.NotificationSentAt.Sub(r.CreatedAt).Minutes()
			notifN++
		}
	}

	report.TotalConversations = len(distinct)
	if report.TotalConversations > 0 {
		total := float64(report.TotalConversations)
		report.FallbackRate = float64(fallbacks) / total
		report.EscalationRate = float64(escalated) / total
		report.AbandonmentRate = float64(abandoned) / total
		report.PctHighPriority = float64(highPriority) / total
	}
	if slotsTotal > 0 {
		report.SlotFillRate = float64(slotsFilled) / float64(slotsTotal)
	}
	if completionN > 0 {
		report.AvgCompletionMinutes = model.Mean(completionSum / float64(completionN))
	}
	if notifN > 0 {
		report.AvgNotificationDelayMinutes = model.Mean(notifSum / float64(notifN))
	}

	return report
}
