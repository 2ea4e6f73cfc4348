package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend classifies the direction of a projected balance curve.
type Trend string

const (
	// TrendUp indicates a rising projected balance.
	TrendUp Trend = "up"
	// TrendDown indicates a falling projected balance.
	TrendDown Trend = "down"
	// TrendStable indicates no significant movement either way.
	TrendStable Trend = "stable"
)

// Valid reports whether the trend is a known value.
func (t Trend) Valid() bool {
	return t == TrendUp || t == TrendDown || t == TrendStable
}

// CashFlowProjection is one projected day of account balance. Generated
// fresh on each analysis run and never persisted.
type CashFlowProjection struct {
	Date             time.Time       `json:"date"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
	Inflows          decimal.Decimal `json:"inflows"`
	Outflows         decimal.Decimal `json:"outflows"`
	IsRiskZone       bool            `json:"is_risk_zone"`
	Confidence       int             `json:"confidence"` // 0-100, non-increasing across the horizon
}

// TrendAnalysis aggregates a projection run into a single assessment.
// DaysUntilCritical is the index of the first risk-zone day, or nil when
// the balance stays above the critical threshold for the whole horizon.
type TrendAnalysis struct {
	Period            string               `json:"period"`
	Projections       []CashFlowProjection `json:"projections"`
	CriticalThreshold decimal.Decimal      `json:"critical_threshold"`
	DaysUntilCritical *int                 `json:"days_until_critical"`
	Trend             Trend                `json:"trend"`
	TrendPercentage   float64              `json:"trend_percentage"`
	HealthScore       int                  `json:"health_score"`
}
