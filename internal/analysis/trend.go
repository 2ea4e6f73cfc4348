package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

// trendBandPercent is the dead band around zero within which a balance
// movement is classified as stable.
const trendBandPercent = 5.0

// ClassifyTrend compares the mean projected balance of the first week of
// the horizon against the last week. Shorter horizons use whatever days
// are available on each end.
func ClassifyTrend(projections []model.CashFlowProjection) (model.Trend, float64) {
	if len(projections) == 0 {
		return model.TrendStable, 0
	}

	window := 7
	if len(projections) < window {
		window = len(projections)
	}

	firstAvg := meanBalance(projections[:window])
	lastAvg := meanBalance(projections[len(projections)-window:])

	if firstAvg == 0 {
		if lastAvg > 0 {
			return model.TrendUp, 100
		}
		return model.TrendStable, 0
	}

	pct := (lastAvg - firstAvg) / firstAvg * 100
	switch {
	case pct > trendBandPercent:
		return model.TrendUp, pct
	case pct < -trendBandPercent:
		return model.TrendDown, pct
	default:
		return model.TrendStable, pct
	}
}

// HealthScore reduces a trend analysis to a 0-100 composite score. A
// downward trend costs up to 30 points; proximity to the critical
// threshold costs a tiered penalty.
func HealthScore(ta model.TrendAnalysis) int {
	score := 100.0

	if ta.Trend == model.TrendDown {
		score -= math.Min(30, math.Abs(ta.TrendPercentage))
	}

	if ta.DaysUntilCritical != nil {
		switch d := *ta.DaysUntilCritical; {
		case d <= 3:
			score -= 40
		case d <= 7:
			score -= 25
		case d <= 14:
			score -= 15
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// BuildTrendAnalysis assembles the full trend assessment for one
// projection run: first risk-zone day, trend classification and health
// score.
func BuildTrendAnalysis(
	projections []model.CashFlowProjection,
	criticalThreshold decimal.Decimal,
	period string,
) model.TrendAnalysis {
	ta := model.TrendAnalysis{
		Period:            period,
		Projections:       projections,
		CriticalThreshold: criticalThreshold,
	}

	for i, p := range projections {
		if p.IsRiskZone {
			day := i
			ta.DaysUntilCritical = &day
			break
		}
	}

	ta.Trend, ta.TrendPercentage = ClassifyTrend(projections)
	ta.HealthScore = HealthScore(ta)
	return ta
}

func meanBalance(projections []model.CashFlowProjection) float64 {
	if len(projections) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range projections {
		sum += p.ProjectedBalance.InexactFloat64()
	}
	return sum / float64(len(projections))
}
