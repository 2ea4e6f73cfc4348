package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// AlertType is the closed set of alert categories.
type AlertType string

const (
	// AlertCashflow warns about projected balance dropping below the threshold.
	AlertCashflow AlertType = "cashflow"
	// AlertAnomaly flags a statistically unusual transaction.
	AlertAnomaly AlertType = "anomaly"
	// AlertReminder announces an upcoming recurring payment.
	AlertReminder AlertType = "reminder"
	// AlertOptimization surfaces a cost-saving suggestion.
	AlertOptimization AlertType = "optimization"
	// AlertInsight surfaces a notable financial insight.
	AlertInsight AlertType = "insight"
)

// Valid reports whether the alert type is a known value.
func (t AlertType) Valid() bool {
	switch t {
	case AlertCashflow, AlertAnomaly, AlertReminder, AlertOptimization, AlertInsight:
		return true
	}
	return false
}

// AlertPriority is the closed set of alert priorities.
type AlertPriority string

const (
	// PriorityLow is informational.
	PriorityLow AlertPriority = "low"
	// PriorityMedium should be reviewed soon.
	PriorityMedium AlertPriority = "medium"
	// PriorityHigh needs attention within days.
	PriorityHigh AlertPriority = "high"
	// PriorityCritical needs immediate attention.
	PriorityCritical AlertPriority = "critical"
)

// Valid reports whether the priority is a known value.
func (p AlertPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// AlertStatus is the alert lifecycle state. Transitions are
// active -> dismissed and active -> resolved only; both are terminal.
type AlertStatus string

const (
	// StatusActive is the initial state of every alert.
	StatusActive AlertStatus = "active"
	// StatusDismissed means the user waved the alert away.
	StatusDismissed AlertStatus = "dismissed"
	// StatusResolved means the underlying condition was addressed.
	StatusResolved AlertStatus = "resolved"
)

// Valid reports whether the status is a known value.
func (s AlertStatus) Valid() bool {
	return s == StatusActive || s == StatusDismissed || s == StatusResolved
}

// Terminal reports whether the status permits no further transitions.
func (s AlertStatus) Terminal() bool {
	return s == StatusDismissed || s == StatusResolved
}

// Alert is the only entity with a real lifecycle. Created by the alert
// store when analysis crosses a threshold, or explicitly by a caller.
// ID and CreatedAt are immutable after creation.
type Alert struct {
	ID          string            `json:"id"`
	Type        AlertType         `json:"type"`
	Priority    AlertPriority     `json:"priority"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	ActionLabel string            `json:"action_label,omitempty"`
	ActionURL   string            `json:"action_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	Status      AlertStatus       `json:"status"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Expired reports whether the alert has an expiry in the past.
func (a *Alert) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// AlertFingerprint derives the stable dedup key for a synthesized alert
// from its type and the salient parameters of the underlying condition.
// While an active alert with the same fingerprint exists, repeated
// refreshes must not create a duplicate.
func AlertFingerprint(alertType AlertType, params ...string) string {
	data := string(alertType)
	for _, p := range params {
		data += ":" + p
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:12])
}
