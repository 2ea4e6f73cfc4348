package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PatternType classifies a detected transaction pattern.
type PatternType string

const (
	// PatternRecurring is a regularly repeating transaction (rent, payroll).
	PatternRecurring PatternType = "recurring"
	// PatternSeasonal repeats on a longer, calendar-driven cycle.
	PatternSeasonal PatternType = "seasonal"
	// PatternOneTime is a non-repeating transaction.
	PatternOneTime PatternType = "one-time"
)

// Frequency is the modal interval bucket of a recurring pattern.
type Frequency string

const (
	// FrequencyWeekly repeats roughly every 7 days.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyBiweekly repeats roughly every 14 days.
	FrequencyBiweekly Frequency = "biweekly"
	// FrequencyMonthly repeats roughly every 30 days.
	FrequencyMonthly Frequency = "monthly"
)

// Days returns the nominal interval length of the bucket.
func (f Frequency) Days() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	case FrequencyMonthly:
		return 30
	default:
		return 0
	}
}

// TransactionPattern is a detected recurring transaction template.
// Recomputed wholesale on each analysis refresh; the ID is a content hash
// so consumers can track the same pattern across refreshes.
type TransactionPattern struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Type             PatternType     `json:"type"`
	Category         Direction       `json:"category"`
	AverageAmount    decimal.Decimal `json:"average_amount"`
	Frequency        Frequency       `json:"frequency"`
	NextExpectedDate time.Time       `json:"next_expected_date"`
	Method           string          `json:"method"`
	Confidence       float64         `json:"confidence"` // 0-100, capped at 98
}

// PatternFingerprint derives the stable content-based pattern ID from the
// grouping key. Two refreshes over overlapping history yield the same ID
// for the same counterparty/method/direction group.
func PatternFingerprint(counterparty, method string, direction Direction) string {
	data := fmt.Sprintf("%s:%s:%s", counterparty, method, direction)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("pat-%x", hash[:8])
}
