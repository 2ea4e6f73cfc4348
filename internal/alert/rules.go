package alert

import (
	"fmt"

	"github.com/jkamya/pesaflow/internal/analysis"
	"github.com/jkamya/pesaflow/internal/model"
)

// evaluateRulesLocked inspects the fresh snapshot and synthesizes alerts
// for threshold breaches. Every synthesized alert carries a stable
// fingerprint of its underlying condition; while an active alert with the
// same fingerprint exists, repeated refreshes create no duplicate.
// Callers hold the store lock. Returns the number of alerts created.
func (s *Store) evaluateRulesLocked(snapshot *analysis.Snapshot) int {
	created := 0
	created += s.cashflowRuleLocked(snapshot)
	created += s.anomalyRuleLocked(snapshot)
	created += s.reminderRuleLocked(snapshot)
	created += s.optimizationRuleLocked(snapshot)
	return created
}

// cashflowRuleLocked raises a low-balance alert when the projection
// breaches the critical threshold within the warning window.
func (s *Store) cashflowRuleLocked(snapshot *analysis.Snapshot) int {
	days := snapshot.TrendAnalysis.DaysUntilCritical
	if days == nil || *days > s.settings.LowBalanceWarningDays {
		return 0
	}

	fingerprint := model.AlertFingerprint(model.AlertCashflow, "low_balance")
	if s.hasActiveFingerprintLocked(fingerprint) {
		return 0
	}

	priority := model.PriorityHigh
	if *days <= 1 {
		priority = model.PriorityCritical
	}

	s.prependLocked(model.Alert{
		ID:       s.newID(),
		Type:     model.AlertCashflow,
		Priority: priority,
		Title:    "Balance approaching critical threshold",
		Message: fmt.Sprintf("Projected balance falls below %s in %d day(s).",
			s.settings.LowBalanceThreshold.StringFixed(0), *days),
		ActionLabel: "Review cash flow",
		ActionURL:   "/cashflow",
		CreatedAt:   s.now(),
		Status:      model.StatusActive,
		Fingerprint: fingerprint,
		Metadata: map[string]string{
			"days_until_critical": fmt.Sprintf("%d", *days),
		},
	})
	return 1
}

// anomalyRuleLocked raises one alert per high-severity anomaly, keyed by
// the triggering transaction so the same spike never alerts twice.
func (s *Store) anomalyRuleLocked(snapshot *analysis.Snapshot) int {
	if !s.settings.EnableAnomalyDetection {
		return 0
	}

	created := 0
	for _, anomaly := range snapshot.Anomalies {
		if anomaly.Severity != model.SeverityHigh {
			continue
		}
		fingerprint := model.AlertFingerprint(model.AlertAnomaly, anomaly.TransactionID)
		if s.hasActiveFingerprintLocked(fingerprint) {
			continue
		}

		s.prependLocked(model.Alert{
			ID:          s.newID(),
			Type:        model.AlertAnomaly,
			Priority:    model.PriorityHigh,
			Title:       "Unusual transaction amount",
			Message:     anomaly.Description,
			Details:     fmt.Sprintf("Expected around %s, saw %s.", anomaly.ExpectedValue.StringFixed(0), anomaly.ActualValue.StringFixed(0)),
			ActionLabel: "Review transaction",
			ActionURL:   "/transactions/" + anomaly.TransactionID,
			CreatedAt:   s.now(),
			Status:      model.StatusActive,
			Fingerprint: fingerprint,
			Metadata: map[string]string{
				"transaction_id": anomaly.TransactionID,
				"severity":       string(anomaly.Severity),
			},
		})
		created++
	}
	return created
}

// reminderRuleLocked raises a reminder for each recurring expense due
// within the configured lead time, keyed by the pattern's stable ID.
func (s *Store) reminderRuleLocked(snapshot *analysis.Snapshot) int {
	if !s.settings.EnableRecurringReminders {
		return 0
	}

	upcoming := analysis.UpcomingPatterns(snapshot.Patterns, s.now(), s.settings.ReminderDaysBefore)
	created := 0
	for _, p := range upcoming {
		if p.Category != model.DirectionExpense {
			continue
		}
		fingerprint := model.AlertFingerprint(model.AlertReminder, p.ID, p.NextExpectedDate.Format("2006-01-02"))
		if s.hasActiveFingerprintLocked(fingerprint) {
			continue
		}

		expires := p.NextExpectedDate.AddDate(0, 0, 1)
		s.prependLocked(model.Alert{
			ID:       s.newID(),
			Type:     model.AlertReminder,
			Priority: model.PriorityMedium,
			Title:    fmt.Sprintf("Upcoming payment to %s", p.Name),
			Message: fmt.Sprintf("Around %s expected on %s via %s.",
				p.AverageAmount.StringFixed(0), p.NextExpectedDate.Format("Mon, 02 Jan"), p.Method),
			CreatedAt:   s.now(),
			ExpiresAt:   &expires,
			Status:      model.StatusActive,
			Fingerprint: fingerprint,
			Metadata: map[string]string{
				"pattern_id": p.ID,
			},
		})
		created++
	}
	return created
}

// optimizationRuleLocked surfaces the highest-impact suggestion as a
// low-priority alert.
func (s *Store) optimizationRuleLocked(snapshot *analysis.Snapshot) int {
	if !s.settings.EnableOptimizations {
		return 0
	}

	for _, suggestion := range snapshot.Optimizations {
		if suggestion.Impact != model.ImpactHigh {
			continue
		}
		fingerprint := model.AlertFingerprint(model.AlertOptimization, suggestion.ID)
		if s.hasActiveFingerprintLocked(fingerprint) {
			return 0
		}

		s.prependLocked(model.Alert{
			ID:          s.newID(),
			Type:        model.AlertOptimization,
			Priority:    model.PriorityLow,
			Title:       suggestion.Title,
			Message:     suggestion.Description,
			Details:     fmt.Sprintf("Potential savings: %s", suggestion.PotentialSavings.StringFixed(0)),
			CreatedAt:   s.now(),
			Status:      model.StatusActive,
			Fingerprint: fingerprint,
			Metadata: map[string]string{
				"suggestion_id": suggestion.ID,
			},
		})
		return 1
	}
	return 0
}

// prependLocked inserts a new alert at the head of the list, keeping
// most-recent-first ordering.
func (s *Store) prependLocked(a model.Alert) {
	s.alerts = append([]model.Alert{a}, s.alerts...)
}
