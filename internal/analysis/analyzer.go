package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

const (
	// DefaultHorizonDays is the projection horizon used when none is
	// configured.
	DefaultHorizonDays = 30
	// DefaultPeriodDays is the comparison period for insights and
	// optimizations.
	DefaultPeriodDays = 30
	// historyWindowDays is how far back the daily flow series reaches.
	historyWindowDays = 14
)

// Input carries everything one analysis run reads. The transaction
// history is treated as read-only.
type Input struct {
	Transactions   []model.Transaction
	CurrentBalance decimal.Decimal
	HorizonDays    int
	PeriodDays     int
}

// Snapshot is the full output of one analysis run. The alert store
// replaces its held snapshot wholesale on each refresh; nothing here is
// ever patched incrementally.
type Snapshot struct {
	TrendAnalysis model.TrendAnalysis            `json:"trend_analysis"`
	Patterns      []model.TransactionPattern     `json:"patterns"`
	Insights      []model.FinancialInsight       `json:"insights"`
	Optimizations []model.OptimizationSuggestion `json:"optimizations"`
	Anomalies     []model.AnomalyDetection       `json:"anomalies"`
	GeneratedAt   time.Time                      `json:"generated_at"`
}

// Analyzer runs the full analytics pipeline. Stateless; safe for
// concurrent use.
type Analyzer struct {
	projector *Projector
	now       func() time.Time
}

// NewAnalyzer creates an analyzer projecting with the given noise source.
func NewAnalyzer(noise NoiseSource) *Analyzer {
	return &Analyzer{
		projector: NewProjector(noise),
		now:       time.Now,
	}
}

// WithClock overrides the analyzer's clock. Test hook.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	a.projector.Now = now
	return a
}

// Analyze runs projection, pattern detection, anomaly detection and
// insight generation against the input, honoring the settings' feature
// toggles. An empty history produces an empty snapshot, not an error.
func (a *Analyzer) Analyze(ctx context.Context, input Input, settings model.AlertSettings) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}

	horizon := input.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}
	period := input.PeriodDays
	if period <= 0 {
		period = DefaultPeriodDays
	}

	now := a.now()
	inflows, outflows := dailyFlowSeries(input.Transactions, now, historyWindowDays)

	projections := a.projector.Project(inflows, outflows, input.CurrentBalance, horizon, settings.LowBalanceThreshold)
	trend := BuildTrendAnalysis(projections, settings.LowBalanceThreshold, fmt.Sprintf("%dd", horizon))

	patterns := DetectPatterns(input.Transactions)

	var anomalies []model.AnomalyDetection
	if settings.EnableAnomalyDetection {
		anomalies = DetectAnomalies(input.Transactions, settings.AnomalySensitivity)
	}

	var insights []model.FinancialInsight
	if settings.EnableInsights {
		insights = GenerateInsights(input.Transactions, now, period)
	}

	var optimizations []model.OptimizationSuggestion
	if settings.EnableOptimizations {
		optimizations = GenerateOptimizations(input.Transactions, patterns, now, period)
	}

	return &Snapshot{
		TrendAnalysis: trend,
		Patterns:      patterns,
		Insights:      insights,
		Optimizations: optimizations,
		Anomalies:     anomalies,
		GeneratedAt:   now,
	}, nil
}

// dailyFlowSeries aggregates the history into per-day inflow and outflow
// totals over the trailing window, oldest first. Days without activity
// contribute zero so the moving average reflects quiet days too.
func dailyFlowSeries(transactions []model.Transaction, now time.Time, windowDays int) ([]decimal.Decimal, []decimal.Decimal) {
	if len(transactions) == 0 {
		return nil, nil
	}

	today := now.Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -windowDays)

	inflowByDay := make(map[string]decimal.Decimal, windowDays)
	outflowByDay := make(map[string]decimal.Decimal, windowDays)
	seen := false
	for _, t := range transactions {
		if t.Date.Before(start) || t.Date.After(today.AddDate(0, 0, 1)) {
			continue
		}
		key := t.Date.Format("2006-01-02")
		switch t.Direction {
		case model.DirectionIncome:
			inflowByDay[key] = inflowByDay[key].Add(t.Amount)
			seen = true
		case model.DirectionExpense:
			outflowByDay[key] = outflowByDay[key].Add(t.Amount)
			seen = true
		}
	}
	if !seen {
		return nil, nil
	}

	inflows := make([]decimal.Decimal, 0, windowDays)
	outflows := make([]decimal.Decimal, 0, windowDays)
	for d := 0; d < windowDays; d++ {
		key := start.AddDate(0, 0, d+1).Format("2006-01-02")
		inflows = append(inflows, inflowByDay[key])
		outflows = append(outflows, outflowByDay[key])
	}
	return inflows, outflows
}
