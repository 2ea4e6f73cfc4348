// Package alert implements the stateful alert store: it ingests analysis
// snapshots, synthesizes deduplicated alerts from threshold rules, and
// manages each alert's lifecycle.
package alert

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/analysis"
	"github.com/jkamya/pesaflow/internal/model"
)

// DataSource supplies the read-only inputs of an analysis run.
type DataSource interface {
	// Transactions returns the transaction history, oldest first.
	Transactions(ctx context.Context) ([]model.Transaction, error)
	// CurrentBalance returns the present account balance.
	CurrentBalance(ctx context.Context) (decimal.Decimal, error)
}

// Analyzer runs the analytics pipeline against a data snapshot.
type Analyzer interface {
	Analyze(ctx context.Context, input analysis.Input, settings model.AlertSettings) (*analysis.Snapshot, error)
}

// PersistedState is the single record written to durable storage: the
// settings plus the alerts that were still active. Dismissed and resolved
// alerts are not retained across sessions.
type PersistedState struct {
	Settings model.AlertSettings `json:"settings"`
	Alerts   []model.Alert       `json:"alerts"`
}

// Persister loads and saves the store's durable state. Load returns
// (nil, nil) when no prior state exists.
type Persister interface {
	Load(ctx context.Context) (*PersistedState, error)
	Save(ctx context.Context, state PersistedState) error
}
