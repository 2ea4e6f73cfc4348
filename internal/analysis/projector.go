// Package analysis implements the financial analytics engine: cash-flow
// projection, recurring-pattern detection, anomaly detection, insight
// generation and trend scoring. Everything here is a pure function of its
// inputs; state lives in the alert store.
package analysis

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

// movingAverageWindow is the number of trailing daily entries averaged to
// produce the base inflow/outflow rate.
const movingAverageWindow = 7

// weekendDampening is applied to both flows on Saturdays and Sundays.
var weekendDampening = decimal.NewFromFloat(0.4)

// NoiseSource supplies the per-day variance multiplier applied to projected
// flows. Production uses bounded pseudo-random noise; tests inject ZeroNoise
// for reproducible output.
type NoiseSource interface {
	// Factor returns a multiplier applied to a single day's flow.
	Factor() float64
}

// ZeroNoise is a NoiseSource that applies no variance.
type ZeroNoise struct{}

// Factor always returns 1.
func (ZeroNoise) Factor() float64 { return 1.0 }

// RandomNoise applies bounded uniform variance of ±Amplitude.
type RandomNoise struct {
	rng       *rand.Rand
	Amplitude float64
}

// NewRandomNoise creates a seeded noise source with the given amplitude
// (e.g. 0.075 for ±7.5%).
func NewRandomNoise(seed int64, amplitude float64) *RandomNoise {
	return &RandomNoise{
		rng:       rand.New(rand.NewSource(seed)),
		Amplitude: amplitude,
	}
}

// Factor returns a multiplier drawn uniformly from [1-Amplitude, 1+Amplitude].
func (n *RandomNoise) Factor() float64 {
	return 1.0 + (n.rng.Float64()*2-1)*n.Amplitude
}

// Projector produces forward balance projections from historical daily
// inflow/outflow series.
type Projector struct {
	Noise NoiseSource
	Now   func() time.Time
}

// NewProjector creates a projector with the given noise source. A nil
// source means no variance is applied.
func NewProjector(noise NoiseSource) *Projector {
	if noise == nil {
		noise = ZeroNoise{}
	}
	return &Projector{
		Noise: noise,
		Now:   time.Now,
	}
}

// Project returns one CashFlowProjection per day of the horizon, starting
// from today. Confidence decays linearly with distance and is floored at
// 50. The projected balance is clamped at zero before the risk-zone
// comparison, so a conceptually negative balance still reads as zero.
// If both historical series are empty there is nothing to project and an
// empty result is returned.
func (p *Projector) Project(
	historicalInflows, historicalOutflows []decimal.Decimal,
	currentBalance decimal.Decimal,
	horizonDays int,
	criticalThreshold decimal.Decimal,
) []model.CashFlowProjection {
	if len(historicalInflows) == 0 && len(historicalOutflows) == 0 {
		return nil
	}
	if horizonDays <= 0 {
		return nil
	}

	avgInflow := trailingAverage(historicalInflows, movingAverageWindow)
	avgOutflow := trailingAverage(historicalOutflows, movingAverageWindow)

	today := p.Now().Truncate(24 * time.Hour)
	balance := currentBalance
	projections := make([]model.CashFlowProjection, 0, horizonDays)

	for i := 0; i < horizonDays; i++ {
		date := today.AddDate(0, 0, i)

		dayFactor := decimal.NewFromInt(1)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			dayFactor = weekendDampening
		}

		inflow := avgInflow.Mul(dayFactor).Mul(decimal.NewFromFloat(p.Noise.Factor()))
		outflow := avgOutflow.Mul(dayFactor).Mul(decimal.NewFromFloat(p.Noise.Factor()))

		balance = balance.Add(inflow).Sub(outflow)

		projected := balance
		if projected.IsNegative() {
			projected = decimal.Zero
		}

		confidence := 95 - 2*i
		if confidence < 50 {
			confidence = 50
		}

		projections = append(projections, model.CashFlowProjection{
			Date:             date,
			ProjectedBalance: projected,
			Inflows:          inflow.Round(2),
			Outflows:         outflow.Round(2),
			IsRiskZone:       projected.LessThan(criticalThreshold),
			Confidence:       confidence,
		})
	}

	return projections
}

// trailingAverage returns the arithmetic mean of the last window entries,
// or of the whole series when it is shorter than the window.
func trailingAverage(series []decimal.Decimal, window int) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	start := len(series) - window
	if start < 0 {
		start = 0
	}
	tail := series[start:]

	sum := decimal.Zero
	for _, v := range tail {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(tail))))
}
