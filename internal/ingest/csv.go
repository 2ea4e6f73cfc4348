// Package ingest parses bank and mobile-money statements into transactions.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

// ErrMissingHeader indicates the CSV lacks the expected header row.
var ErrMissingHeader = errors.New("missing or malformed CSV header")

// csvColumns is the expected header of an exported statement.
var csvColumns = []string{"date", "description", "counterparty", "method", "currency", "direction", "amount"}

// CSVParser parses statement exports in the dashboard CSV format.
type CSVParser struct{}

// NewCSVParser creates a new CSV statement parser.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads a CSV statement and returns transactions. Rows with
// malformed dates or amounts fail the whole parse; a statement is either
// imported completely or not at all.
func (p *CSVParser) Parse(reader io.Reader) ([]model.Transaction, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingHeader, err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line+1, err)
		}
		line++

		txn, err := p.parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

func (p *CSVParser) parseRecord(record []string, index map[string]int) (model.Transaction, error) {
	get := func(column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseDate(get("date"))
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(get("amount"), ",", ""))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount %q: %w", get("amount"), err)
	}
	if amount.IsNegative() {
		return model.Transaction{}, fmt.Errorf("negative amount %s", amount)
	}

	direction := model.Direction(strings.ToLower(get("direction")))
	if !direction.Valid() {
		return model.Transaction{}, fmt.Errorf("invalid direction %q", get("direction"))
	}

	txn := model.Transaction{
		Date:         date,
		Description:  get("description"),
		Counterparty: get("counterparty"),
		Method:       strings.ToLower(get("method")),
		Currency:     strings.ToUpper(get("currency")),
		Direction:    direction,
		Amount:       amount,
	}
	// Statement exports carry no IDs; the content hash is the identity.
	txn.ID = txn.GenerateHash()[:16]
	return txn, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range csvColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMissingHeader, required)
		}
	}
	return index, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
