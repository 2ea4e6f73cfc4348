package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/common"
	"github.com/jkamya/pesaflow/internal/model"
)

// SaveTransactions saves transactions, skipping duplicates by content
// hash. Returns the number actually inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, description, counterparty, method, currency, direction, amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range transactions {
		txn := &transactions[i]
		res, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.GenerateHash(),
			txn.Date.UTC(),
			txn.Description,
			txn.Counterparty,
			txn.Method,
			txn.Currency,
			string(txn.Direction),
			txn.Amount.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// Transactions returns the full history, oldest first. Implements the
// alert store's DataSource.
func (s *SQLiteStorage) Transactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, description, counterparty, method, currency, direction, amount
		FROM transactions
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// TransactionsSince returns transactions on or after the given date,
// oldest first.
func (s *SQLiteStorage) TransactionsSince(ctx context.Context, from time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, description, counterparty, method, currency, direction, amount
		FROM transactions
		WHERE date >= ?
		ORDER BY date ASC
	`, from.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// CurrentBalance derives the present balance as total income minus total
// expenses over the recorded history. Implements the alert store's
// DataSource.
func (s *SQLiteStorage) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT direction, amount FROM transactions
	`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	balance := decimal.Zero
	for rows.Next() {
		var direction, amountStr string
		if err := rows.Scan(&direction, &amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: amount %q: %v", common.ErrDatabaseCorrupted, amountStr, err)
		}
		if model.Direction(direction) == model.DirectionIncome {
			balance = balance.Add(amount)
		} else {
			balance = balance.Sub(amount)
		}
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("row iteration failed: %w", err)
	}
	return balance, nil
}

// TransactionCount returns the number of stored transactions.
func (s *SQLiteStorage) TransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var (
			txn          model.Transaction
			counterparty sql.NullString
			direction    string
			amountStr    string
		)
		if err := rows.Scan(&txn.ID, &txn.Date, &txn.Description, &counterparty,
			&txn.Method, &txn.Currency, &direction, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Counterparty = counterparty.String
		txn.Direction = model.Direction(direction)

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q for transaction %s: %v", common.ErrDatabaseCorrupted, amountStr, txn.ID, err)
		}
		txn.Amount = amount

		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return transactions, nil
}
