package pipeline

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/denuncia-labs/conversation-insights/internal/model"
)

// DefaultSyntheticRows is the number of rows generated when the caller does
// not configure one.
const DefaultSyntheticRows = 500

// DefaultSyntheticSeed keeps repeated runs comparable across restarts.
const DefaultSyntheticSeed = 42

// syntheticWindow is the historical span the generated records cover.
const syntheticWindow = 90 * 24 * time.Hour

var (
	syntheticChannels = []string{"web", "whatsapp", "facebook", "telegram"}
	syntheticRegions  = []string{"sp", "rj", "mg", "rs", "ba"}

	// fallbackPhrases are representative utterances the agent failed to
	// recognize, used for generated rows and enrichment placeholders.
	fallbackPhrases = []string{
		"não entendi",
		"poderia repetir",
		"o que você quis dizer",
		"erro",
		"não sei",
	}
)

// Generator produces a plausible, internally consistent record set when no
// real source is available. Generation is seeded and has no error conditions.
type Generator struct {
	seed int64
	rows int
}

// NewGenerator creates a generator for rows records. Non-positive rows falls
// back to DefaultSyntheticRows.
func NewGenerator(seed int64, rows int) *Generator {
	if rows <= 0 {
		rows = DefaultSyntheticRows
	}
	return &Generator{seed: seed, rows: rows}
}

// Rows returns the configured record count.
func (g *Generator) Rows() int {
	return g.rows
}

// Generate produces the synthetic record set, spanning the 90 days up to now.
// The same seed, row count and now yield an identical set.
func (g *Generator) Generate(now time.Time) []model.ConversationRecord {
	rng := rand.New(rand.NewSource(g.seed))
	start := now.Add(-syntheticWindow)

	records := make([]model.ConversationRecord, 0, g.rows)
	for i := 0; i < g.rows; i++ {
		createdAt := start.
			Add(time.Duration(rng.Intn(90)) * 24 * time.Hour).
			Add(time.Duration(rng.Intn(24)) * time.Hour).
			Add(time.Duration(rng.Intn(60)) * time.Minute)

		priority := pickPriority(rng)

		// Notification dispatch is modeled only for high priority, with a
		// bimodal delay: mostly fast, occasionally very late.
		var notificationSentAt *time.Time
		if priority == model.PriorityHigh {
			var delay time.Duration
			if rng.Float64() < 0.85 {
				delay = time.Duration(1+rng.Intn(9)) * time.Minute
			} else {
				delay = time.Duration(11+rng.Intn(349)) * time.Minute
			}
			ts := createdAt.Add(delay)
			notificationSentAt = &ts
		}

		abandoned := rng.Float64() < 0.08
		var slotsFilled int
		var completedAt *time.Time
		intentFinal := "create_report"
		if abandoned {
			slotsFilled = rng.Intn(model.DefaultSlotsTotal)
			intentFinal = "fallback"
		} else {
			slotsFilled = 3 + rng.Intn(model.DefaultSlotsTotal-2)
			ts := createdAt.Add(time.Duration(1+rng.Intn(60*48-1)) * time.Minute)
			completedAt = &ts
		}

		fallback := rng.Float64() < 0.12
		var fallbackPhrase *string
		if fallback {
			phrase := fallbackPhrases[rng.Intn(len(fallbackPhrases))]
			fallbackPhrase = &phrase
		}

		escalated := priority == model.PriorityHigh && rng.Float64() < 0.6

		records = append(records, model.ConversationRecord{
			ConversationID:     fmt.Sprintf("conv_%d", i),
			Channel:            syntheticChannels[rng.Intn(len(syntheticChannels))],
			Region:             syntheticRegions[rng.Intn(len(syntheticRegions))],
			Priority:           priority,
			CreatedAt:          createdAt,
			CompletedAt:        completedAt,
			NotificationSentAt: notificationSentAt,
			Fallback:           fallback,
			FallbackPhrase:     fallbackPhrase,
			SlotsFilled:        slotsFilled,
			SlotsTotal:         model.DefaultSlotsTotal,
			Escalated:          escalated,
			Abandoned:          abandoned,
			IntentFinal:        intentFinal,
			Protocol:           fmt.Sprintf("SUP-%s-%05d", createdAt.Format("20060102"), i),
		})
	}

	return records
}

// pickPriority draws from the fixed 15/35/50 categorical distribution.
func pickPriority(rng *rand.Rand) string {
	r := rng.Float64()
	switch {
	case r < 0.15:
		return model.PriorityHigh
	case r < 0.50:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
