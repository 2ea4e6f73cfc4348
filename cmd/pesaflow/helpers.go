package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jkamya/pesaflow/internal/alert"
	"github.com/jkamya/pesaflow/internal/analysis"
	"github.com/jkamya/pesaflow/internal/common"
	"github.com/jkamya/pesaflow/internal/config"
	"github.com/jkamya/pesaflow/internal/storage"
)

// noiseAmplitude is the production variance applied to projected flows.
const noiseAmplitude = 0.075

// openStorage opens (and migrates) the configured SQLite database.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open the database at %s", dbPath), err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("could not upgrade the database schema", err)
	}
	return store, nil
}

// newAlertStore wires the analyzer and persistence into an alert store.
func newAlertStore(ctx context.Context, db *storage.SQLiteStorage) (*alert.Store, error) {
	noise := analysis.NewRandomNoise(time.Now().UnixNano(), noiseAmplitude)
	analyzer := analysis.NewAnalyzer(noise)
	persister := db.NewAlertStatePersister(storage.DefaultNamespace)

	store, err := alert.NewStore(ctx, db, analyzer, persister)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert store: %w", err)
	}
	return store, nil
}
