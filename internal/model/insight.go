package model

import "github.com/shopspring/decimal"

// InsightType classifies a derived financial insight.
type InsightType string

const (
	// InsightGrowth marks a metric that improved period over period.
	InsightGrowth InsightType = "growth"
	// InsightDecline marks a metric that worsened period over period.
	InsightDecline InsightType = "decline"
	// InsightOpportunity highlights an outperforming channel or day.
	InsightOpportunity InsightType = "opportunity"
	// InsightWarning flags a condition that needs attention.
	InsightWarning InsightType = "warning"
	// InsightAchievement marks an exceeded goal.
	InsightAchievement InsightType = "achievement"
)

// FinancialInsight is a human-readable finding derived from aggregated
// spending patterns. Ephemeral per analysis run.
type FinancialInsight struct {
	ID            string      `json:"id"`
	Type          InsightType `json:"type"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Metric        string      `json:"metric"`
	Value         float64     `json:"value"`
	PreviousValue float64     `json:"previous_value"`
	ChangePercent float64     `json:"change_percent"`
	Period        string      `json:"period"`
}

// Difficulty grades how hard an optimization is to act on.
type Difficulty string

const (
	// DifficultyEasy requires no process change.
	DifficultyEasy Difficulty = "easy"
	// DifficultyMedium requires some coordination.
	DifficultyMedium Difficulty = "medium"
	// DifficultyHard requires renegotiation or structural change.
	DifficultyHard Difficulty = "hard"
)

// Impact grades the expected effect of an optimization.
type Impact string

const (
	// ImpactLow is a marginal saving.
	ImpactLow Impact = "low"
	// ImpactMedium is a noticeable saving.
	ImpactMedium Impact = "medium"
	// ImpactHigh is a significant saving.
	ImpactHigh Impact = "high"
)

// OptimizationSuggestion is a rule-based cost-saving recommendation.
// Ephemeral per analysis run.
type OptimizationSuggestion struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	PotentialSavings decimal.Decimal `json:"potential_savings"`
	Category         string          `json:"category"`
	Difficulty       Difficulty      `json:"difficulty"`
	Impact           Impact          `json:"impact"`
}

// AnomalySeverity grades how far an anomalous amount deviates.
type AnomalySeverity string

const (
	// SeverityMedium is beyond two standard deviations.
	SeverityMedium AnomalySeverity = "medium"
	// SeverityHigh is beyond three standard deviations.
	SeverityHigh AnomalySeverity = "high"
)

// AnomalyDetection flags a transaction whose amount deviates statistically
// from the historical mean. Derived per run; references the triggering
// transaction where one exists.
type AnomalyDetection struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	Type          string          `json:"type"`
	Severity      AnomalySeverity `json:"severity"`
	Description   string          `json:"description"`
	ExpectedValue decimal.Decimal `json:"expected_value"`
	ActualValue   decimal.Decimal `json:"actual_value"`
	Deviation     float64         `json:"deviation"` // percent above the mean
}
