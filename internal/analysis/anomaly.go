package analysis

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

// minAnomalySamples is the smallest population for which the mean and
// standard deviation are considered statistically meaningful.
const minAnomalySamples = 10

// highSeveritySigma is the deviation multiple beyond which an anomaly is
// graded high rather than medium.
const highSeveritySigma = 3.0

// DetectAnomalies flags transactions whose amount deviates from the
// population mean by more than the sensitivity's sigma multiple. Fewer
// than ten transactions yields an empty result, never an error.
func DetectAnomalies(transactions []model.Transaction, sensitivity model.AnomalySensitivity) []model.AnomalyDetection {
	if len(transactions) < minAnomalySamples {
		return nil
	}

	amounts := make([]float64, len(transactions))
	for i, t := range transactions {
		amounts[i] = t.Amount.InexactFloat64()
	}

	mean, stddev := meanStddev(amounts)
	if mean == 0 || stddev == 0 {
		return nil
	}

	threshold := mean + sensitivity.SigmaMultiplier()*stddev
	highThreshold := mean + highSeveritySigma*stddev

	var anomalies []model.AnomalyDetection
	for i, t := range transactions {
		amount := amounts[i]
		if amount <= threshold {
			continue
		}

		severity := model.SeverityMedium
		if amount > highThreshold {
			severity = model.SeverityHigh
		}

		anomalies = append(anomalies, model.AnomalyDetection{
			TransactionID: t.ID,
			Type:          "amount_spike",
			Severity:      severity,
			Description: fmt.Sprintf("%s of %s %s is %.0f%% above the typical amount",
				t.Direction, t.Amount.StringFixed(0), t.Currency, (amount-mean)/mean*100),
			ExpectedValue: decimal.NewFromFloat(mean).Round(2),
			ActualValue:   t.Amount,
			Deviation:     (amount - mean) / mean * 100,
		})
	}
	return anomalies
}

// meanStddev computes the population mean and standard deviation.
func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
