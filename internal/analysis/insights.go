package analysis

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"github.com/jkamya/pesaflow/internal/model"
)

// significantChangePercent is the period-over-period movement below which
// no growth/decline insight is generated.
const significantChangePercent = 20.0

// opportunityMarginPercent is how far a channel's inflow must outperform
// the channel mean to be called out as an opportunity.
const opportunityMarginPercent = 50.0

// periodTotals aggregates one comparison period.
type periodTotals struct {
	inflow        float64
	outflow       float64
	inflowByDay   map[time.Weekday]float64
	inflowByChan  map[string]float64
	outflowByChan map[string]float64
}

// GenerateInsights compares the current period against the immediately
// preceding period of equal length and derives growth, decline,
// opportunity and achievement findings. Pure function of its inputs.
func GenerateInsights(transactions []model.Transaction, now time.Time, periodDays int) []model.FinancialInsight {
	if periodDays <= 0 || len(transactions) == 0 {
		return nil
	}

	periodStart := now.AddDate(0, 0, -periodDays)
	previousStart := now.AddDate(0, 0, -2*periodDays)
	period := fmt.Sprintf("%dd", periodDays)

	current := aggregatePeriod(transactions, periodStart, now)
	previous := aggregatePeriod(transactions, previousStart, periodStart)

	var insights []model.FinancialInsight

	// Period-over-period inflow movement.
	if change, ok := percentChange(previous.inflow, current.inflow); ok {
		switch {
		case change >= significantChangePercent:
			insights = append(insights, insight(model.InsightGrowth, "inflow", period,
				"Income is growing",
				fmt.Sprintf("Total inflows rose %.0f%% compared with the previous %s.", change, periodLabel(periodDays)),
				current.inflow, previous.inflow, change))
		case change <= -significantChangePercent:
			insights = append(insights, insight(model.InsightDecline, "inflow", period,
				"Income is falling",
				fmt.Sprintf("Total inflows dropped %.0f%% compared with the previous %s.", -change, periodLabel(periodDays)),
				current.inflow, previous.inflow, change))
		}
	}

	// Period-over-period spend movement. Rising spend is a decline in
	// financial terms, falling spend an achievement.
	if change, ok := percentChange(previous.outflow, current.outflow); ok {
		switch {
		case change >= significantChangePercent:
			insights = append(insights, insight(model.InsightDecline, "outflow", period,
				"Spending is up sharply",
				fmt.Sprintf("Total outflows rose %.0f%% compared with the previous %s.", change, periodLabel(periodDays)),
				current.outflow, previous.outflow, change))
		case change <= -significantChangePercent:
			insights = append(insights, insight(model.InsightAchievement, "outflow", period,
				"Spending is under control",
				fmt.Sprintf("Total outflows fell %.0f%% compared with the previous %s.", -change, periodLabel(periodDays)),
				current.outflow, previous.outflow, change))
		}
	}

	// Channel opportunity: a channel whose inflow is well above the mean
	// across channels suggests where to focus collections.
	if name, value, meanValue, ok := bestChannel(current.inflowByChan); ok {
		margin := (value - meanValue) / meanValue * 100
		if margin >= opportunityMarginPercent {
			insights = append(insights, insight(model.InsightOpportunity, "channel:"+name, period,
				fmt.Sprintf("%s is your strongest channel", name),
				fmt.Sprintf("Inflows on %s are %.0f%% above your channel average this %s.", name, margin, periodLabel(periodDays)),
				value, meanValue, margin))
		}
	}

	// Net cash flow achievement.
	currentNet := current.inflow - current.outflow
	previousNet := previous.inflow - previous.outflow
	if currentNet > 0 && currentNet > previousNet {
		change, _ := percentChange(previousNet, currentNet)
		insights = append(insights, insight(model.InsightAchievement, "net_cashflow", period,
			"Positive cash flow",
			fmt.Sprintf("You kept a positive net cash flow of %.0f this %s.", currentNet, periodLabel(periodDays)),
			currentNet, previousNet, change))
	}

	return insights
}

func aggregatePeriod(transactions []model.Transaction, from, to time.Time) periodTotals {
	totals := periodTotals{
		inflowByDay:   make(map[time.Weekday]float64),
		inflowByChan:  make(map[string]float64),
		outflowByChan: make(map[string]float64),
	}
	for _, t := range transactions {
		if t.Date.Before(from) || !t.Date.Before(to) {
			continue
		}
		amount := t.Amount.InexactFloat64()
		switch t.Direction {
		case model.DirectionIncome:
			totals.inflow += amount
			totals.inflowByDay[t.Date.Weekday()] += amount
			totals.inflowByChan[t.Method] += amount
		case model.DirectionExpense:
			totals.outflow += amount
			totals.outflowByChan[t.Method] += amount
		}
	}
	return totals
}

// percentChange returns the movement from previous to current. A zero
// previous value has no meaningful percentage and reports not-ok.
func percentChange(previous, current float64) (float64, bool) {
	if previous == 0 {
		return 0, false
	}
	return (current - previous) / previous * 100, true
}

// bestChannel returns the channel with the highest inflow and the mean
// across channels. Needs at least two channels to be meaningful.
func bestChannel(byChannel map[string]float64) (string, float64, float64, bool) {
	if len(byChannel) < 2 {
		return "", 0, 0, false
	}

	names := make([]string, 0, len(byChannel))
	for name := range byChannel {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestValue := 0.0
	total := 0.0
	for _, name := range names {
		v := byChannel[name]
		total += v
		if v > bestValue {
			best = name
			bestValue = v
		}
	}

	meanValue := total / float64(len(byChannel))
	if meanValue == 0 {
		return "", 0, 0, false
	}
	return best, bestValue, meanValue, true
}

func insight(insightType model.InsightType, metric, period, title, description string, value, previous, change float64) model.FinancialInsight {
	return model.FinancialInsight{
		ID:            insightID(insightType, metric, period),
		Type:          insightType,
		Title:         title,
		Description:   description,
		Metric:        metric,
		Value:         value,
		PreviousValue: previous,
		ChangePercent: change,
		Period:        period,
	}
}

// insightID is a stable content hash so consumers can track the same
// finding across refreshes.
func insightID(insightType model.InsightType, metric, period string) string {
	hash := sha256.Sum256([]byte(string(insightType) + ":" + metric + ":" + period))
	return fmt.Sprintf("ins-%x", hash[:8])
}

func periodLabel(days int) string {
	switch days {
	case 7:
		return "week"
	case 30:
		return "month"
	case 90:
		return "quarter"
	default:
		return fmt.Sprintf("%d days", days)
	}
}
