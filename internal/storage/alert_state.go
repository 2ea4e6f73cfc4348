package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jkamya/pesaflow/internal/alert"
	"github.com/jkamya/pesaflow/internal/common"
)

// DefaultNamespace keys the single alert-state record most deployments
// use. Multiple namespaces allow several stores to share one database.
const DefaultNamespace = "default"

// AlertStatePersister implements alert.Persister against the alert_state
// table. One JSON payload per namespace holds the settings plus the
// alerts that were active at save time.
type AlertStatePersister struct {
	storage   *SQLiteStorage
	namespace string
}

// NewAlertStatePersister creates a persister bound to a namespace.
func (s *SQLiteStorage) NewAlertStatePersister(namespace string) *AlertStatePersister {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &AlertStatePersister{storage: s, namespace: namespace}
}

// Load reads the persisted state, or (nil, nil) when none exists yet.
func (p *AlertStatePersister) Load(ctx context.Context) (*alert.PersistedState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var payload string
	err := p.storage.db.QueryRowContext(ctx,
		"SELECT payload FROM alert_state WHERE namespace = ?", p.namespace,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert state: %w", err)
	}

	var state alert.PersistedState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("%w: alert state payload: %v", common.ErrDatabaseCorrupted, err)
	}
	return &state, nil
}

// Save replaces the namespace's record with the given state.
func (p *AlertStatePersister) Save(ctx context.Context, state alert.PersistedState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal alert state: %w", err)
	}

	_, err = p.storage.db.ExecContext(ctx, `
		INSERT INTO alert_state (namespace, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, p.namespace, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save alert state: %w", err)
	}
	return nil
}
