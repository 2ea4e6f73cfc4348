package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jkamya/pesaflow/internal/analysis"
	"github.com/jkamya/pesaflow/internal/common"
	"github.com/jkamya/pesaflow/internal/model"
)

// DefaultRefreshTimeout bounds how long one analysis refresh may run
// before the prior snapshot is retained instead.
const DefaultRefreshTimeout = 30 * time.Second

// sourceRetryOptions bounds retries of transient storage errors (locked
// database, busy timeout) before a refresh is declared failed.
var sourceRetryOptions = common.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     time.Second,
}

// Store owns all alert and settings state. It is the sole writer; every
// mutation happens under its mutex, and concurrent refreshes are coalesced
// so two runs never race to replace the snapshot.
type Store struct {
	mu sync.Mutex

	settings    model.AlertSettings
	alerts      []model.Alert // most-recent-first
	snapshot    *analysis.Snapshot
	lastUpdated time.Time
	isLoading   bool
	lastErr     error

	source    DataSource
	analyzer  Analyzer
	persister Persister
	validate  *validator.Validate

	refreshGroup   singleflight.Group
	refreshTimeout time.Duration

	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the store's clock. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides alert ID generation. Test hook.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithRefreshTimeout bounds the duration of one analysis refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Store) { s.refreshTimeout = d }
}

// NewStore creates a store and restores any persisted settings and active
// alerts. A nil persister means state lives only in memory.
func NewStore(ctx context.Context, source DataSource, analyzer Analyzer, persister Persister, opts ...Option) (*Store, error) {
	if source == nil {
		return nil, errors.New("data source is required")
	}
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	s := &Store{
		settings:       model.DefaultAlertSettings(),
		source:         source,
		analyzer:       analyzer,
		persister:      persister,
		validate:       validator.New(),
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
		newID:          func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if persister != nil {
		state, err := persister.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted alert state: %w", err)
		}
		if state != nil {
			s.settings = state.Settings
			for _, a := range state.Alerts {
				if a.Status == model.StatusActive {
					s.alerts = append(s.alerts, a)
				}
			}
		}
	}

	return s, nil
}

// RefreshAnalysis runs the full analytics pipeline and replaces the held
// snapshot atomically, then evaluates the alert-generation rules against
// the new snapshot. A concurrent call while a refresh is in flight
// receives the in-flight result instead of starting a second run. On
// failure the prior snapshot is retained and the error recorded.
func (s *Store) RefreshAnalysis(ctx context.Context) error {
	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *Store) refresh(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	settings := s.settings
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	snapshot, err := s.runAnalysis(ctx, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false

	if err != nil {
		// Last-known-good snapshot stays in place.
		s.lastErr = err
		common.LogError(err, "analysis refresh failed", common.Fields{})
		return fmt.Errorf("%w: %v", common.ErrAnalysisFailed, err)
	}

	s.snapshot = snapshot
	s.lastUpdated = s.now()
	s.lastErr = nil

	s.pruneExpiredLocked()
	created := s.evaluateRulesLocked(snapshot)
	if created > 0 {
		common.LogInfo("synthesized alerts from analysis", common.Fields{"count": created})
	}

	return s.persistLocked(ctx)
}

// runAnalysis fetches inputs and executes the pipeline outside the lock.
// The storage fetches retry on transient errors before the whole refresh
// is reported as failed.
func (s *Store) runAnalysis(ctx context.Context, settings model.AlertSettings) (*analysis.Snapshot, error) {
	var transactions []model.Transaction
	var balance decimal.Decimal

	err := common.WithRetry(ctx, func() error {
		var err error
		transactions, err = s.source.Transactions(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch transactions: %w", err)
		}
		balance, err = s.source.CurrentBalance(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch balance: %w", err)
		}
		return nil
	}, sourceRetryOptions)
	if err != nil {
		return nil, err
	}

	return s.analyzer.Analyze(ctx, analysis.Input{
		Transactions:   transactions,
		CurrentBalance: balance,
	}, settings)
}

// NewAlertInput carries caller-supplied fields for a manually created
// alert. ID, CreatedAt and Status are assigned by the store.
type NewAlertInput struct {
	Type        model.AlertType
	Priority    model.AlertPriority
	Title       string
	Message     string
	Details     string
	ActionLabel string
	ActionURL   string
	ExpiresAt   *time.Time
	Fingerprint string
	Metadata    map[string]string
}

// AddAlert creates a new active alert and prepends it to the list
// (most-recent-first ordering).
func (s *Store) AddAlert(ctx context.Context, input NewAlertInput) (model.Alert, error) {
	if !input.Type.Valid() {
		return model.Alert{}, fmt.Errorf("invalid alert type: %q", input.Type)
	}
	if !input.Priority.Valid() {
		return model.Alert{}, fmt.Errorf("invalid alert priority: %q", input.Priority)
	}
	if input.Title == "" {
		return model.Alert{}, errors.New("alert title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := model.Alert{
		ID:          s.newID(),
		Type:        input.Type,
		Priority:    input.Priority,
		Title:       input.Title,
		Message:     input.Message,
		Details:     input.Details,
		ActionLabel: input.ActionLabel,
		ActionURL:   input.ActionURL,
		CreatedAt:   s.now(),
		ExpiresAt:   input.ExpiresAt,
		Status:      model.StatusActive,
		Fingerprint: input.Fingerprint,
		Metadata:    input.Metadata,
	}
	s.alerts = append([]model.Alert{a}, s.alerts...)

	if err := s.persistLocked(ctx); err != nil {
		return a, err
	}
	return a, nil
}

// DismissAlert transitions an active alert to dismissed. Dismissing an
// already-terminal or unknown alert is a no-op.
func (s *Store) DismissAlert(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusDismissed)
}

// ResolveAlert transitions an active alert to resolved. Resolving an
// already-terminal or unknown alert is a no-op.
func (s *Store) ResolveAlert(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusResolved)
}

func (s *Store) transition(ctx context.Context, id string, to model.AlertStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		if s.alerts[i].Status.Terminal() {
			return nil
		}
		s.alerts[i].Status = to
		return s.persistLocked(ctx)
	}
	// Unknown id: idempotent no-op.
	return nil
}

// ClearAllAlerts empties the alert list entirely.
func (s *Store) ClearAllAlerts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
	return s.persistLocked(ctx)
}

// UpdateSettings shallow-merges the patch into the current settings. An
// invalid result (negative threshold, unknown sensitivity) is rejected
// and the prior settings are retained.
func (s *Store) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.AlertSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := patch.Apply(s.settings)
	if merged.LowBalanceThreshold.IsNegative() {
		return s.settings, fmt.Errorf("%w: low balance threshold cannot be negative", common.ErrInvalidSettings)
	}
	if err := s.validate.Struct(merged); err != nil {
		return s.settings, fmt.Errorf("%w: %v", common.ErrInvalidSettings, err)
	}

	s.settings = merged
	if err := s.persistLocked(ctx); err != nil {
		return s.settings, err
	}
	return s.settings, nil
}

// Settings returns the current alert settings.
func (s *Store) Settings() model.AlertSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Alerts returns a copy of all alerts held in memory, most recent first.
func (s *Store) Alerts() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// ActiveAlerts returns only the alerts still in the active state.
func (s *Store) ActiveAlerts() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Alert
	for _, a := range s.alerts {
		if a.Status == model.StatusActive {
			out = append(out, a)
		}
	}
	return out
}

// Snapshot returns the last-computed analysis snapshot, or nil before the
// first successful refresh.
func (s *Store) Snapshot() *analysis.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// IsLoading reports whether a refresh is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// LastUpdated returns the time of the last successful refresh.
func (s *Store) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// LastError returns the error recorded by the most recent failed refresh,
// or nil after a successful one.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// hasActiveFingerprintLocked reports whether an active alert already
// covers the same underlying condition.
func (s *Store) hasActiveFingerprintLocked(fingerprint string) bool {
	for _, a := range s.alerts {
		if a.Status == model.StatusActive && a.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}

// pruneExpiredLocked drops active alerts whose expiry has passed.
func (s *Store) pruneExpiredLocked() {
	now := s.now()
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.Status == model.StatusActive && a.Expired(now) {
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
}

// persistLocked writes settings plus active alerts. Callers hold the lock.
func (s *Store) persistLocked(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	state := PersistedState{Settings: s.settings}
	for _, a := range s.alerts {
		if a.Status == model.StatusActive {
			state.Alerts = append(state.Alerts, a)
		}
	}

	if err := s.persister.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to persist alert state: %w", err)
	}
	return nil
}
