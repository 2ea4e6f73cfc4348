package model

import "github.com/shopspring/decimal"

// AnomalySensitivity selects how aggressively the anomaly detector flags
// deviations. Medium corresponds to the standard two-sigma rule.
type AnomalySensitivity string

const (
	// SensitivityLow flags only extreme deviations.
	SensitivityLow AnomalySensitivity = "low"
	// SensitivityMedium is the default two-sigma rule.
	SensitivityMedium AnomalySensitivity = "medium"
	// SensitivityHigh flags smaller deviations.
	SensitivityHigh AnomalySensitivity = "high"
)

// SigmaMultiplier returns the standard-deviation multiple above the mean
// at which a transaction is flagged.
func (s AnomalySensitivity) SigmaMultiplier() float64 {
	switch s {
	case SensitivityLow:
		return 2.5
	case SensitivityHigh:
		return 1.5
	default:
		return 2.0
	}
}

// NotificationChannels toggles delivery channels for alert notifications.
type NotificationChannels struct {
	Push  bool `json:"push"`
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// AlertSettings holds the thresholds and feature toggles that drive alert
// generation. Owned exclusively by the alert store; mutated only through
// its settings-update operation.
type AlertSettings struct {
	LowBalanceThreshold      decimal.Decimal      `json:"low_balance_threshold" validate:"required"`
	LowBalanceWarningDays    int                  `json:"low_balance_warning_days" validate:"gte=0,lte=90"`
	EnableAnomalyDetection   bool                 `json:"enable_anomaly_detection"`
	AnomalySensitivity       AnomalySensitivity   `json:"anomaly_sensitivity" validate:"oneof=low medium high"`
	EnableRecurringReminders bool                 `json:"enable_recurring_reminders"`
	ReminderDaysBefore       int                  `json:"reminder_days_before" validate:"gte=0,lte=30"`
	EnableInsights           bool                 `json:"enable_insights"`
	EnableOptimizations      bool                 `json:"enable_optimizations"`
	NotificationChannels     NotificationChannels `json:"notification_channels"`
}

// DefaultAlertSettings returns the initial configuration used before any
// user customization.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		LowBalanceThreshold:      decimal.NewFromInt(500000),
		LowBalanceWarningDays:    3,
		EnableAnomalyDetection:   true,
		AnomalySensitivity:       SensitivityMedium,
		EnableRecurringReminders: true,
		ReminderDaysBefore:       2,
		EnableInsights:           true,
		EnableOptimizations:      true,
		NotificationChannels: NotificationChannels{
			Push:  true,
			Email: true,
			SMS:   false,
		},
	}
}

// SettingsPatch is a partial update to AlertSettings. Nil fields are left
// untouched by the merge.
type SettingsPatch struct {
	LowBalanceThreshold      *decimal.Decimal      `json:"low_balance_threshold,omitempty"`
	LowBalanceWarningDays    *int                  `json:"low_balance_warning_days,omitempty"`
	EnableAnomalyDetection   *bool                 `json:"enable_anomaly_detection,omitempty"`
	AnomalySensitivity       *AnomalySensitivity   `json:"anomaly_sensitivity,omitempty"`
	EnableRecurringReminders *bool                 `json:"enable_recurring_reminders,omitempty"`
	ReminderDaysBefore       *int                  `json:"reminder_days_before,omitempty"`
	EnableInsights           *bool                 `json:"enable_insights,omitempty"`
	EnableOptimizations      *bool                 `json:"enable_optimizations,omitempty"`
	NotificationChannels     *NotificationChannels `json:"notification_channels,omitempty"`
}

// Apply returns a copy of s with the patch's non-nil fields merged in.
func (p SettingsPatch) Apply(s AlertSettings) AlertSettings {
	if p.LowBalanceThreshold != nil {
		s.LowBalanceThreshold = *p.LowBalanceThreshold
	}
	if p.LowBalanceWarningDays != nil {
		s.LowBalanceWarningDays = *p.LowBalanceWarningDays
	}
	if p.EnableAnomalyDetection != nil {
		s.EnableAnomalyDetection = *p.EnableAnomalyDetection
	}
	if p.AnomalySensitivity != nil {
		s.AnomalySensitivity = *p.AnomalySensitivity
	}
	if p.EnableRecurringReminders != nil {
		s.EnableRecurringReminders = *p.EnableRecurringReminders
	}
	if p.ReminderDaysBefore != nil {
		s.ReminderDaysBefore = *p.ReminderDaysBefore
	}
	if p.EnableInsights != nil {
		s.EnableInsights = *p.EnableInsights
	}
	if p.EnableOptimizations != nil {
		s.EnableOptimizations = *p.EnableOptimizations
	}
	if p.NotificationChannels != nil {
		s.NotificationChannels = *p.NotificationChannels
	}
	return s
}
