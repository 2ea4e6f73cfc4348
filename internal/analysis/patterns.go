package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

const (
	// minPatternOccurrences is the minimum group size before a recurring
	// pattern is reported at all.
	minPatternOccurrences = 3
	// amountTolerance is the band around the group mean within which an
	// amount counts as consistent.
	amountTolerance = 0.20
	// maxPatternConfidence caps reported confidence.
	maxPatternConfidence = 98.0
	// minIntervalConsistency is the fraction of intervals that must land
	// in the modal bucket for the group to qualify as recurring.
	minIntervalConsistency = 0.5
	// minAmountConsistency is the fraction of amounts that must fall in
	// the tolerance band for the group to qualify.
	minAmountConsistency = 0.6
)

// intervalBuckets maps day gaps between occurrences onto frequency
// buckets. Gaps outside every bucket are treated as irregular.
var intervalBuckets = []struct {
	freq    model.Frequency
	minDays int
	maxDays int
}{
	{model.FrequencyWeekly, 5, 9},
	{model.FrequencyBiweekly, 12, 17},
	{model.FrequencyMonthly, 26, 35},
}

type patternGroup struct {
	counterparty string
	method       string
	direction    model.Direction
	transactions []model.Transaction
}

// DetectPatterns identifies recurring transactions (rent, payroll, regular
// suppliers) in the history and predicts their next occurrence. Groups
// with fewer than three occurrences are never reported. Output is ordered
// by soonest expected occurrence first.
func DetectPatterns(transactions []model.Transaction) []model.TransactionPattern {
	groups := make(map[string]*patternGroup)
	for _, txn := range transactions {
		if !txn.Direction.Valid() {
			continue
		}
		key := txn.NormalizedCounterparty() + "|" + txn.Method + "|" + string(txn.Direction)
		g, ok := groups[key]
		if !ok {
			g = &patternGroup{
				counterparty: txn.NormalizedCounterparty(),
				method:       txn.Method,
				direction:    txn.Direction,
			}
			groups[key] = g
		}
		g.transactions = append(g.transactions, txn)
	}

	var patterns []model.TransactionPattern
	for _, g := range groups {
		if p, ok := g.detect(); ok {
			patterns = append(patterns, p)
		}
	}

	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].NextExpectedDate.Before(patterns[j].NextExpectedDate)
	})
	return patterns
}

// detect evaluates one counterparty/method/direction group against the
// recurrence criteria.
func (g *patternGroup) detect() (model.TransactionPattern, bool) {
	if len(g.transactions) < minPatternOccurrences {
		return model.TransactionPattern{}, false
	}

	txns := make([]model.Transaction, len(g.transactions))
	copy(txns, g.transactions)
	sort.Slice(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

	// Bucket the gaps between consecutive occurrences and find the mode.
	bucketCounts := make(map[model.Frequency]int)
	intervals := 0
	for i := 1; i < len(txns); i++ {
		gap := int(txns[i].Date.Sub(txns[i-1].Date).Hours() / 24)
		intervals++
		for _, b := range intervalBuckets {
			if gap >= b.minDays && gap <= b.maxDays {
				bucketCounts[b.freq]++
				break
			}
		}
	}

	var modal model.Frequency
	modalCount := 0
	for _, b := range intervalBuckets {
		if c := bucketCounts[b.freq]; c > modalCount {
			modal = b.freq
			modalCount = c
		}
	}
	if modalCount == 0 {
		return model.TransactionPattern{}, false
	}

	intervalConsistency := float64(modalCount) / float64(intervals)
	if intervalConsistency < minIntervalConsistency {
		return model.TransactionPattern{}, false
	}

	mean := meanAmount(txns)
	amountConsistency := amountConsistencyRatio(txns, mean)
	if amountConsistency < minAmountConsistency {
		return model.TransactionPattern{}, false
	}

	confidence := 30 + 5*float64(len(txns)) + 20*intervalConsistency + 20*amountConsistency
	if confidence > maxPatternConfidence {
		confidence = maxPatternConfidence
	}

	last := txns[len(txns)-1]
	return model.TransactionPattern{
		ID:               model.PatternFingerprint(g.counterparty, g.method, g.direction),
		Name:             g.counterparty,
		Type:             model.PatternRecurring,
		Category:         g.direction,
		AverageAmount:    mean.Round(2),
		Frequency:        modal,
		NextExpectedDate: last.Date.AddDate(0, 0, modal.Days()),
		Method:           g.method,
		Confidence:       confidence,
	}, true
}

func meanAmount(txns []model.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(txns))))
}

// amountConsistencyRatio is the fraction of amounts within the tolerance
// band around the group mean.
func amountConsistencyRatio(txns []model.Transaction, mean decimal.Decimal) float64 {
	if mean.IsZero() {
		return 0
	}
	band := mean.Mul(decimal.NewFromFloat(amountTolerance))
	within := 0
	for _, t := range txns {
		if t.Amount.Sub(mean).Abs().LessThanOrEqual(band) {
			within++
		}
	}
	return float64(within) / float64(len(txns))
}

// UpcomingPatterns filters patterns whose next expected occurrence falls
// within the given number of days from now.
func UpcomingPatterns(patterns []model.TransactionPattern, now time.Time, withinDays int) []model.TransactionPattern {
	cutoff := now.AddDate(0, 0, withinDays)
	var upcoming []model.TransactionPattern
	for _, p := range patterns {
		if !p.NextExpectedDate.Before(now.Truncate(24*time.Hour)) && !p.NextExpectedDate.After(cutoff) {
			upcoming = append(upcoming, p)
		}
	}
	return upcoming
}
