package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkamya/pesaflow/internal/model"
)

func recurringTxn(counterparty, method string, direction model.Direction, amount int64, date time.Time) model.Transaction {
	t := model.Transaction{
		Date:         date,
		Description:  counterparty + " payment",
		Counterparty: counterparty,
		Method:       method,
		Currency:     "UGX",
		Direction:    direction,
		Amount:       decimal.NewFromInt(amount),
	}
	t.ID = t.GenerateHash()[:16]
	return t
}

// monthlySeries generates n occurrences of the same payment 30 days apart.
func monthlySeries(counterparty string, amount int64, n int, start time.Time) []model.Transaction {
	var transactions []model.Transaction
	for i := 0; i < n; i++ {
		transactions = append(transactions,
			recurringTxn(counterparty, "bank", model.DirectionExpense, amount, start.AddDate(0, 0, 30*i)))
	}
	return transactions
}

func TestDetectPatterns_MonthlyRent(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	transactions := monthlySeries("Acacia Mall Properties", 1200000, 4, start)

	patterns := DetectPatterns(transactions)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, model.PatternRecurring, p.Type)
	assert.Equal(t, model.FrequencyMonthly, p.Frequency)
	assert.Equal(t, model.DirectionExpense, p.Category)
	assert.True(t, p.AverageAmount.Equal(decimal.NewFromInt(1200000)))
	assert.Equal(t, start.AddDate(0, 0, 30*3+30), p.NextExpectedDate)
	assert.Greater(t, p.Confidence, 80.0)
	assert.LessOrEqual(t, p.Confidence, 98.0)
}

func TestDetectPatterns_MinimumOccurrences(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	// Two perfectly consistent occurrences still never qualify.
	transactions := monthlySeries("Twice Only Ltd", 500000, 2, start)

	assert.Empty(t, DetectPatterns(transactions))
}

func TestDetectPatterns_InconsistentAmounts(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	transactions := []model.Transaction{
		recurringTxn("Erratic Vendor", "bank", model.DirectionExpense, 100000, start),
		recurringTxn("Erratic Vendor", "bank", model.DirectionExpense, 900000, start.AddDate(0, 0, 30)),
		recurringTxn("Erratic Vendor", "bank", model.DirectionExpense, 50000, start.AddDate(0, 0, 60)),
		recurringTxn("Erratic Vendor", "bank", model.DirectionExpense, 2500000, start.AddDate(0, 0, 90)),
	}

	assert.Empty(t, DetectPatterns(transactions))
}

func TestDetectPatterns_IrregularIntervals(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	transactions := []model.Transaction{
		recurringTxn("Sporadic Ltd", "bank", model.DirectionExpense, 500000, start),
		recurringTxn("Sporadic Ltd", "bank", model.DirectionExpense, 500000, start.AddDate(0, 0, 2)),
		recurringTxn("Sporadic Ltd", "bank", model.DirectionExpense, 500000, start.AddDate(0, 0, 50)),
		recurringTxn("Sporadic Ltd", "bank", model.DirectionExpense, 500000, start.AddDate(0, 0, 53)),
	}

	assert.Empty(t, DetectPatterns(transactions))
}

func TestDetectPatterns_OrderedBySoonest(t *testing.T) {
	payrollStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rentStart := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	var transactions []model.Transaction
	// Weekly payroll: last occurrence late, so next expected comes first.
	for i := 0; i < 6; i++ {
		transactions = append(transactions,
			recurringTxn("Weekly Wages", "mtn_momo", model.DirectionExpense, 350000, payrollStart.AddDate(0, 0, 7*i)))
	}
	transactions = append(transactions, monthlySeries("Monthly Rent", 1200000, 3, rentStart)...)

	patterns := DetectPatterns(transactions)
	require.Len(t, patterns, 2)
	assert.Equal(t, "weekly wages", patterns[0].Name)
	assert.Equal(t, model.FrequencyWeekly, patterns[0].Frequency)
	assert.True(t, !patterns[0].NextExpectedDate.After(patterns[1].NextExpectedDate))
}

func TestDetectPatterns_StableIDAcrossRefreshes(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	history := monthlySeries("Acacia Mall Properties", 1200000, 4, start)

	first := DetectPatterns(history)
	require.Len(t, first, 1)

	// A refresh over a longer history must keep the same pattern ID.
	extended := append(history, monthlySeries("Acacia Mall Properties", 1200000, 1, start.AddDate(0, 0, 120))...)
	second := DetectPatterns(extended)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestDetectPatterns_ConfidenceCapped(t *testing.T) {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	transactions := monthlySeries("Long Running Supplier", 800000, 24, start)

	patterns := DetectPatterns(transactions)
	require.Len(t, patterns, 1)
	assert.InDelta(t, 98.0, patterns[0].Confidence, 0.001)
}

func TestUpcomingPatterns(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	patterns := []model.TransactionPattern{
		{ID: "due-tomorrow", NextExpectedDate: now.AddDate(0, 0, 1)},
		{ID: "due-next-week", NextExpectedDate: now.AddDate(0, 0, 7)},
		{ID: "already-past", NextExpectedDate: now.AddDate(0, 0, -3)},
	}

	upcoming := UpcomingPatterns(patterns, now, 2)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "due-tomorrow", upcoming[0].ID)
}

func TestPatternFingerprint_Deterministic(t *testing.T) {
	a := model.PatternFingerprint("acme ltd", "bank", model.DirectionExpense)
	b := model.PatternFingerprint("acme ltd", "bank", model.DirectionExpense)
	c := model.PatternFingerprint("acme ltd", "mtn_momo", model.DirectionExpense)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, len(a) > 4, fmt.Sprintf("unexpected fingerprint %q", a))
}
