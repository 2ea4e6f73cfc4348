package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkamya/pesaflow/internal/analysis"
	"github.com/jkamya/pesaflow/internal/common"
	"github.com/jkamya/pesaflow/internal/model"
)

// fakeSource fails its first transientFailures fetches when err is set; a
// zero count makes the failure persistent.
type fakeSource struct {
	transactions      []model.Transaction
	balance           decimal.Decimal
	err               error
	transientFailures int
	calls             int
}

func (f *fakeSource) failing() bool {
	return f.err != nil && (f.transientFailures == 0 || f.calls <= f.transientFailures)
}

func (f *fakeSource) Transactions(_ context.Context) ([]model.Transaction, error) {
	f.calls++
	if f.failing() {
		return nil, f.err
	}
	return f.transactions, nil
}

func (f *fakeSource) CurrentBalance(_ context.Context) (decimal.Decimal, error) {
	if f.failing() {
		return decimal.Zero, f.err
	}
	return f.balance, nil
}

// fastSourceRetries shrinks the refresh retry backoff for the duration of
// a test.
func fastSourceRetries(t *testing.T) {
	t.Helper()
	saved := sourceRetryOptions
	sourceRetryOptions = common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}
	t.Cleanup(func() { sourceRetryOptions = saved })
}

// fakeAnalyzer returns a canned snapshot and counts invocations. The
// optional gate blocks every call until released.
type fakeAnalyzer struct {
	snapshot *analysis.Snapshot
	err      error
	calls    atomic.Int32
	gate     chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, _ analysis.Input, _ model.AlertSettings) (*analysis.Snapshot, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

type memPersister struct {
	mu    sync.Mutex
	state *PersistedState
	saves int
}

func (m *memPersister) Load(_ context.Context) (*PersistedState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	copied := *m.state
	return &copied, nil
}

func (m *memPersister) Save(_ context.Context, state PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &state
	m.saves++
	return nil
}

func emptySnapshot(at time.Time) *analysis.Snapshot {
	return &analysis.Snapshot{
		TrendAnalysis: model.TrendAnalysis{Trend: model.TrendStable, HealthScore: 100},
		GeneratedAt:   at,
	}
}

func criticalSnapshot(at time.Time, daysUntilCritical int) *analysis.Snapshot {
	s := emptySnapshot(at)
	s.TrendAnalysis.DaysUntilCritical = &daysUntilCritical
	return s
}

func newTestStore(t *testing.T, analyzer Analyzer, persister Persister) *Store {
	t.Helper()
	seq := 0
	store, err := NewStore(context.Background(), &fakeSource{balance: decimal.NewFromInt(1000000)}, analyzer, persister,
		WithClock(func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("alert-%d", seq) }),
	)
	require.NoError(t, err)
	return store
}

func TestNewStore_RequiresDependencies(t *testing.T) {
	_, err := NewStore(context.Background(), nil, &fakeAnalyzer{}, nil)
	assert.Error(t, err)

	_, err = NewStore(context.Background(), &fakeSource{}, nil, nil)
	assert.Error(t, err)
}

func TestNewStore_RestoresSettingsAndActiveAlerts(t *testing.T) {
	persisted := &memPersister{}
	settings := model.DefaultAlertSettings()
	settings.LowBalanceThreshold = decimal.NewFromInt(750000)
	persisted.state = &PersistedState{
		Settings: settings,
		Alerts: []model.Alert{
			{ID: "keep", Type: model.AlertCashflow, Status: model.StatusActive},
			{ID: "drop", Type: model.AlertAnomaly, Status: model.StatusDismissed},
		},
	}

	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, persisted)

	assert.True(t, store.Settings().LowBalanceThreshold.Equal(decimal.NewFromInt(750000)))
	alerts := store.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "keep", alerts[0].ID)
}

func TestRefreshAnalysis_SynthesizesCashflowAlert(t *testing.T) {
	analyzer := &fakeAnalyzer{snapshot: criticalSnapshot(time.Now(), 2)}
	store := newTestStore(t, analyzer, nil)

	require.NoError(t, store.RefreshAnalysis(context.Background()))

	alerts := store.ActiveAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertCashflow, alerts[0].Type)
	assert.Equal(t, model.PriorityHigh, alerts[0].Priority)
	assert.NotEmpty(t, alerts[0].Fingerprint)
}

func TestRefreshAnalysis_CriticalPriorityWhenImminent(t *testing.T) {
	analyzer := &fakeAnalyzer{snapshot: criticalSnapshot(time.Now(), 1)}
	store := newTestStore(t, analyzer, nil)

	require.NoError(t, store.RefreshAnalysis(context.Background()))

	alerts := store.ActiveAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, model.PriorityCritical, alerts[0].Priority)
}

func TestRefreshAnalysis_NoAlertOutsideWarningWindow(t *testing.T) {
	// Ten days out is beyond the default three-day warning window.
	analyzer := &fakeAnalyzer{snapshot: criticalSnapshot(time.Now(), 10)}
	store := newTestStore(t, analyzer, nil)

	require.NoError(t, store.RefreshAnalysis(context.Background()))
	assert.Empty(t, store.ActiveAlerts())
}

func TestRefreshAnalysis_FingerprintDeduplication(t *testing.T) {
	analyzer := &fakeAnalyzer{snapshot: criticalSnapshot(time.Now(), 2)}
	store := newTestStore(t, analyzer, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RefreshAnalysis(context.Background()))
	}

	assert.Len(t, store.ActiveAlerts(), 1, "repeated refreshes must not duplicate the same condition")
}

func TestRefreshAnalysis_ReAlertsAfterDismissal(t *testing.T) {
	analyzer := &fakeAnalyzer{snapshot: criticalSnapshot(time.Now(), 2)}
	store := newTestStore(t, analyzer, nil)
	ctx := context.Background()

	require.NoError(t, store.RefreshAnalysis(ctx))
	first := store.ActiveAlerts()
	require.Len(t, first, 1)

	require.NoError(t, store.DismissAlert(ctx, first[0].ID))
	require.Empty(t, store.ActiveAlerts())

	// The condition persists, so the next refresh raises it again.
	require.NoError(t, store.RefreshAnalysis(ctx))
	again := store.ActiveAlerts()
	require.Len(t, again, 1)
	assert.NotEqual(t, first[0].ID, again[0].ID)
	assert.Equal(t, first[0].Fingerprint, again[0].Fingerprint)
}

func TestRefreshAnalysis_AnomalyRule(t *testing.T) {
	snapshot := emptySnapshot(time.Now())
	snapshot.Anomalies = []model.AnomalyDetection{
		{
			TransactionID: "txn-high",
			Type:          "amount_spike",
			Severity:      model.SeverityHigh,
			ExpectedValue: decimal.NewFromInt(100000),
			ActualValue:   decimal.NewFromInt(400000),
		},
		{
			TransactionID: "txn-medium",
			Type:          "amount_spike",
			Severity:      model.SeverityMedium,
			ExpectedValue: decimal.NewFromInt(100000),
			ActualValue:   decimal.NewFromInt(150000),
		},
	}
	store := newTestStore(t, &fakeAnalyzer{snapshot: snapshot}, nil)

	require.NoError(t, store.RefreshAnalysis(context.Background()))

	alerts := store.ActiveAlerts()
	require.Len(t, alerts, 1, "only high-severity anomalies alert")
	assert.Equal(t, model.AlertAnomaly, alerts[0].Type)
	assert.Equal(t, "txn-high", alerts[0].Metadata["transaction_id"])
}

func TestRefreshAnalysis_ReminderRule(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	snapshot := emptySnapshot(now)
	snapshot.Patterns = []model.TransactionPattern{
		{
			ID:               "pat-rent",
			Name:             "acacia mall properties",
			Category:         model.DirectionExpense,
			AverageAmount:    decimal.NewFromInt(1200000),
			NextExpectedDate: now.AddDate(0, 0, 1),
			Method:           "bank",
		},
		{
			ID:               "pat-client",
			Name:             "weekly client",
			Category:         model.DirectionIncome,
			AverageAmount:    decimal.NewFromInt(2000000),
			NextExpectedDate: now.AddDate(0, 0, 1),
			Method:           "bank",
		},
	}
	store := newTestStore(t, &fakeAnalyzer{snapshot: snapshot}, nil)

	require.NoError(t, store.RefreshAnalysis(context.Background()))

	alerts := store.ActiveAlerts()
	require.Len(t, alerts, 1, "income patterns get no reminder")
	assert.Equal(t, model.AlertReminder, alerts[0].Type)
	assert.Equal(t, model.PriorityMedium, alerts[0].Priority)
	require.NotNil(t, alerts[0].ExpiresAt)
	assert.Equal(t, "pat-rent", alerts[0].Metadata["pattern_id"])
}

func TestRefreshAnalysis_OptimizationRule(t *testing.T) {
	snapshot := emptySnapshot(time.Now())
	snapshot.Optimizations = []model.OptimizationSuggestion{
		{ID: "opt-small", Title: "Consolidate transfers", Impact: model.ImpactLow},
		{ID: "opt-big", Title: "Review recurring payment", Impact: model.ImpactHigh, PotentialSavings: decimal.NewFromInt(120000)},
	}
	store := newTestStore(t, &fakeAnalyzer{snapshot: snapshot}, nil)

	require.NoError(t, store.RefreshAnalysis(context.Background()))

	alerts := store.ActiveAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertOptimization, alerts[0].Type)
	assert.Equal(t, model.PriorityLow, alerts[0].Priority)
	assert.Equal(t, "opt-big", alerts[0].Metadata["suggestion_id"])
}

func TestRefreshAnalysis_FailureRetainsLastSnapshot(t *testing.T) {
	good := emptySnapshot(time.Now())
	analyzer := &fakeAnalyzer{snapshot: good}
	store := newTestStore(t, analyzer, nil)
	ctx := context.Background()

	require.NoError(t, store.RefreshAnalysis(ctx))
	require.Same(t, good, store.Snapshot())
	firstUpdated := store.LastUpdated()

	analyzer.err = errors.New("upstream unavailable")
	err := store.RefreshAnalysis(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAnalysisFailed)

	assert.Same(t, good, store.Snapshot(), "failed refresh must keep the last good snapshot")
	assert.Error(t, store.LastError())
	assert.Equal(t, firstUpdated, store.LastUpdated())
	assert.False(t, store.IsLoading())

	// A later success clears the recorded error.
	analyzer.err = nil
	require.NoError(t, store.RefreshAnalysis(ctx))
	assert.NoError(t, store.LastError())
}

func TestRefreshAnalysis_ConcurrentCallsCoalesce(t *testing.T) {
	analyzer := &fakeAnalyzer{
		snapshot: emptySnapshot(time.Now()),
		gate:     make(chan struct{}),
	}
	store := newTestStore(t, analyzer, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.RefreshAnalysis(context.Background())
		}()
	}

	// Let every goroutine reach the in-flight refresh before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(analyzer.gate)
	wg.Wait()

	assert.Equal(t, int32(1), analyzer.calls.Load(), "concurrent refreshes must share one run")
}

func TestDismissAlert_TerminalStatesAndUnknownIDs(t *testing.T) {
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	ctx := context.Background()

	created, err := store.AddAlert(ctx, NewAlertInput{
		Type:     model.AlertCashflow,
		Priority: model.PriorityHigh,
		Title:    "Balance approaching critical threshold",
	})
	require.NoError(t, err)

	require.NoError(t, store.DismissAlert(ctx, created.ID))
	require.NoError(t, store.DismissAlert(ctx, created.ID), "dismissing twice is a no-op")

	// A terminal alert never changes state again.
	require.NoError(t, store.ResolveAlert(ctx, created.ID))
	alerts := store.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, model.StatusDismissed, alerts[0].Status)

	assert.NoError(t, store.DismissAlert(ctx, "no-such-alert"))
}

func TestResolveAlert(t *testing.T) {
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	ctx := context.Background()

	created, err := store.AddAlert(ctx, NewAlertInput{
		Type:     model.AlertAnomaly,
		Priority: model.PriorityHigh,
		Title:    "Unusual transaction amount",
	})
	require.NoError(t, err)

	require.NoError(t, store.ResolveAlert(ctx, created.ID))
	alerts := store.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, model.StatusResolved, alerts[0].Status)
	assert.Empty(t, store.ActiveAlerts())
}

func TestAddAlert_Validation(t *testing.T) {
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	ctx := context.Background()

	_, err := store.AddAlert(ctx, NewAlertInput{Type: "bogus", Priority: model.PriorityLow, Title: "x"})
	assert.Error(t, err)

	_, err = store.AddAlert(ctx, NewAlertInput{Type: model.AlertCashflow, Priority: "urgent-ish", Title: "x"})
	assert.Error(t, err)

	_, err = store.AddAlert(ctx, NewAlertInput{Type: model.AlertCashflow, Priority: model.PriorityLow})
	assert.Error(t, err, "a title is required")
}

func TestAddAlert_PrependsMostRecentFirst(t *testing.T) {
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	ctx := context.Background()

	_, err := store.AddAlert(ctx, NewAlertInput{Type: model.AlertInsight, Priority: model.PriorityLow, Title: "first"})
	require.NoError(t, err)
	_, err = store.AddAlert(ctx, NewAlertInput{Type: model.AlertInsight, Priority: model.PriorityLow, Title: "second"})
	require.NoError(t, err)

	alerts := store.Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, "second", alerts[0].Title)
	assert.Equal(t, "first", alerts[1].Title)
}

func TestClearAllAlerts(t *testing.T) {
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	ctx := context.Background()

	_, err := store.AddAlert(ctx, NewAlertInput{Type: model.AlertInsight, Priority: model.PriorityLow, Title: "one"})
	require.NoError(t, err)

	require.NoError(t, store.ClearAllAlerts(ctx))
	assert.Empty(t, store.Alerts())
}

func TestRefreshAnalysis_PrunesExpiredAlerts(t *testing.T) {
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	ctx := context.Background()

	// The store clock is pinned to 2026-03-02; this expiry is in its past.
	expired := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.AddAlert(ctx, NewAlertInput{
		Type:      model.AlertReminder,
		Priority:  model.PriorityMedium,
		Title:     "Upcoming payment",
		ExpiresAt: &expired,
	})
	require.NoError(t, err)

	require.NoError(t, store.RefreshAnalysis(ctx))
	assert.Empty(t, store.Alerts())
}

func TestUpdateSettings(t *testing.T) {
	persister := &memPersister{}
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, persister)
	ctx := context.Background()

	threshold := decimal.NewFromInt(750000)
	sensitivity := model.SensitivityHigh
	updated, err := store.UpdateSettings(ctx, model.SettingsPatch{
		LowBalanceThreshold: &threshold,
		AnomalySensitivity:  &sensitivity,
	})
	require.NoError(t, err)
	assert.True(t, updated.LowBalanceThreshold.Equal(threshold))
	assert.Equal(t, model.SensitivityHigh, updated.AnomalySensitivity)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3, updated.LowBalanceWarningDays)

	require.NotNil(t, persister.state)
	assert.True(t, persister.state.Settings.LowBalanceThreshold.Equal(threshold))
}

func TestUpdateSettings_RejectsInvalidPatch(t *testing.T) {
	store := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	ctx := context.Background()
	before := store.Settings()

	negative := decimal.NewFromInt(-1)
	_, err := store.UpdateSettings(ctx, model.SettingsPatch{LowBalanceThreshold: &negative})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidSettings)

	bogus := model.AnomalySensitivity("paranoid")
	_, err = store.UpdateSettings(ctx, model.SettingsPatch{AnomalySensitivity: &bogus})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidSettings)

	assert.Equal(t, before, store.Settings(), "a rejected patch must leave settings untouched")
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	persister := &memPersister{}
	ctx := context.Background()

	first := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, persister)

	threshold := decimal.NewFromInt(750000)
	_, err := first.UpdateSettings(ctx, model.SettingsPatch{LowBalanceThreshold: &threshold})
	require.NoError(t, err)

	kept, err := first.AddAlert(ctx, NewAlertInput{Type: model.AlertCashflow, Priority: model.PriorityHigh, Title: "still active"})
	require.NoError(t, err)
	gone, err := first.AddAlert(ctx, NewAlertInput{Type: model.AlertAnomaly, Priority: model.PriorityHigh, Title: "dismissed before restart"})
	require.NoError(t, err)
	require.NoError(t, first.DismissAlert(ctx, gone.ID))

	// A fresh store over the same persister sees the surviving state.
	second := newTestStore(t, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, persister)

	assert.True(t, second.Settings().LowBalanceThreshold.Equal(threshold))
	alerts := second.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, kept.ID, alerts[0].ID)
	assert.Equal(t, model.StatusActive, alerts[0].Status)
}

func TestRefreshAnalysis_SourceFailure(t *testing.T) {
	fastSourceRetries(t)
	seq := 0
	source := &fakeSource{err: errors.New("database is locked")}
	store, err := NewStore(context.Background(), source, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil,
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("alert-%d", seq) }),
	)
	require.NoError(t, err)

	err = store.RefreshAnalysis(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAnalysisFailed)
	assert.Equal(t, 3, source.calls, "a persistent failure exhausts every attempt")
	assert.Nil(t, store.Snapshot())
}

func TestRefreshAnalysis_RetriesTransientSourceErrors(t *testing.T) {
	fastSourceRetries(t)
	source := &fakeSource{
		balance:           decimal.NewFromInt(1000000),
		err:               errors.New("database is locked"),
		transientFailures: 2,
	}
	store, err := NewStore(context.Background(), source, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	require.NoError(t, err)

	require.NoError(t, store.RefreshAnalysis(context.Background()),
		"a lock that clears mid-refresh must not fail the refresh")
	assert.Equal(t, 3, source.calls)
	assert.NotNil(t, store.Snapshot())
	assert.NoError(t, store.LastError())
}

func TestRefreshAnalysis_PermanentSourceErrorNotRetried(t *testing.T) {
	fastSourceRetries(t)
	source := &fakeSource{
		err: &common.RetryableError{Err: errors.New("schema mismatch"), Retryable: false},
	}
	store, err := NewStore(context.Background(), source, &fakeAnalyzer{snapshot: emptySnapshot(time.Now())}, nil)
	require.NoError(t, err)

	err = store.RefreshAnalysis(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAnalysisFailed)
	assert.Equal(t, 1, source.calls)
}
