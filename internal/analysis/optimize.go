package analysis

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

const (
	// smallTransferCount is how many small transfers on one channel it
	// takes before consolidation is worth suggesting.
	smallTransferCount = 10
	// transferFeeRate approximates per-transfer fees recoverable by
	// batching payments on mobile-money channels.
	transferFeeRate = 0.01
	// recurringReviewRate is the assumed negotiable share of a large
	// recurring expense.
	recurringReviewRate = 0.10
)

// GenerateOptimizations derives rule-based cost-saving suggestions from
// the channel and frequency distribution of recent spending. Advisory
// only; no side effects.
func GenerateOptimizations(
	transactions []model.Transaction,
	patterns []model.TransactionPattern,
	now time.Time,
	periodDays int,
) []model.OptimizationSuggestion {
	if periodDays <= 0 {
		return nil
	}
	from := now.AddDate(0, 0, -periodDays)

	var suggestions []model.OptimizationSuggestion
	suggestions = append(suggestions, consolidationSuggestions(transactions, from, now)...)
	suggestions = append(suggestions, recurringReviewSuggestion(patterns)...)

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].PotentialSavings.GreaterThan(suggestions[j].PotentialSavings)
	})
	return suggestions
}

// consolidationSuggestions finds channels carrying many small expense
// transfers whose per-transfer fees could be cut by batching.
func consolidationSuggestions(transactions []model.Transaction, from, to time.Time) []model.OptimizationSuggestion {
	type channelStats struct {
		total decimal.Decimal
		count int
	}

	stats := make(map[string]*channelStats)
	overallTotal := decimal.Zero
	overallCount := 0
	for _, t := range transactions {
		if t.Direction != model.DirectionExpense || t.Date.Before(from) || !t.Date.Before(to) {
			continue
		}
		s, ok := stats[t.Method]
		if !ok {
			s = &channelStats{total: decimal.Zero}
			stats[t.Method] = s
		}
		s.total = s.total.Add(t.Amount)
		s.count++
		overallTotal = overallTotal.Add(t.Amount)
		overallCount++
	}
	if overallCount == 0 {
		return nil
	}
	overallAvg := overallTotal.Div(decimal.NewFromInt(int64(overallCount)))

	channels := make([]string, 0, len(stats))
	for name := range stats {
		channels = append(channels, name)
	}
	sort.Strings(channels)

	var suggestions []model.OptimizationSuggestion
	for _, name := range channels {
		s := stats[name]
		if s.count < smallTransferCount {
			continue
		}
		avg := s.total.Div(decimal.NewFromInt(int64(s.count)))
		// Only many-and-small qualifies: half the overall average or less.
		if avg.GreaterThan(overallAvg.Div(decimal.NewFromInt(2))) {
			continue
		}

		savings := s.total.Mul(decimal.NewFromFloat(transferFeeRate)).Round(0)
		impact := model.ImpactLow
		if s.count >= 2*smallTransferCount {
			impact = model.ImpactMedium
		}
		suggestions = append(suggestions, model.OptimizationSuggestion{
			ID:    optimizationID("consolidate", name),
			Title: fmt.Sprintf("Consolidate small transfers on %s", name),
			Description: fmt.Sprintf("You made %d transfers averaging %s on %s. Batching them into fewer, larger transfers would cut per-transfer fees by roughly %.0f%%.",
				s.count, avg.StringFixed(0), name, transferFeeRate*100),
			PotentialSavings: savings,
			Category:         "fees",
			Difficulty:       model.DifficultyEasy,
			Impact:           impact,
		})
	}
	return suggestions
}

// recurringReviewSuggestion proposes renegotiating the largest recurring
// expense detected by the pattern detector.
func recurringReviewSuggestion(patterns []model.TransactionPattern) []model.OptimizationSuggestion {
	var largest *model.TransactionPattern
	for i := range patterns {
		p := &patterns[i]
		if p.Category != model.DirectionExpense {
			continue
		}
		if largest == nil || p.AverageAmount.GreaterThan(largest.AverageAmount) {
			largest = p
		}
	}
	if largest == nil {
		return nil
	}

	savings := largest.AverageAmount.Mul(decimal.NewFromFloat(recurringReviewRate)).Round(0)
	return []model.OptimizationSuggestion{{
		ID:    optimizationID("review", largest.ID),
		Title: fmt.Sprintf("Review recurring payment to %s", largest.Name),
		Description: fmt.Sprintf("You pay %s on average every %s to %s. Renegotiating terms or switching supplier could save around %.0f%% per cycle.",
			largest.AverageAmount.StringFixed(0), largest.Frequency, largest.Name, recurringReviewRate*100),
		PotentialSavings: savings,
		Category:         "recurring",
		Difficulty:       model.DifficultyMedium,
		Impact:           model.ImpactHigh,
	}}
}

func optimizationID(rule, subject string) string {
	hash := sha256.Sum256([]byte(rule + ":" + subject))
	return fmt.Sprintf("opt-%x", hash[:8])
}
