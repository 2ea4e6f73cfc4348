package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/jkamya/pesaflow/internal/model"
)

// OFXParser parses OFX/QFX bank statement files.
type OFXParser struct{}

// NewOFXParser creates a new OFX parser.
func NewOFXParser() *OFXParser {
	return &OFXParser{}
}

// Parse reads an OFX statement and returns transactions. Statements that
// fail to convert are skipped with a warning rather than failing the
// whole file.
func (p *OFXParser) Parse(reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		currency := strings.ToUpper(stmt.CurDef.String())
		for _, ofxTx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, convertOFXTransaction(ofxTx, currency))
		}
	}

	slog.Info("parsed OFX statement", "transactions", len(transactions))
	return transactions, nil
}

// preprocessOFX fixes common formatting issues in SGML-style OFX exports.
func preprocessOFX(content string) string {
	return strings.TrimLeft(content, " \t\r\n")
}

// convertOFXTransaction maps one OFX record to the domain model. OFX uses
// negative amounts for debits; direction is derived from the sign.
func convertOFXTransaction(ofxTx ofxgo.Transaction, currency string) model.Transaction {
	amountFloat, _ := ofxTx.TrnAmt.Float64()
	direction := model.DirectionIncome
	if amountFloat < 0 {
		direction = model.DirectionExpense
		amountFloat = -amountFloat
	}

	counterparty := string(ofxTx.Name)
	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		counterparty = string(ofxTx.Payee.Name)
	}

	txn := model.Transaction{
		ID:           string(ofxTx.FiTID),
		Date:         ofxTx.DtPosted.Time,
		Description:  string(ofxTx.Name),
		Counterparty: strings.TrimSpace(counterparty),
		Method:       "bank",
		Currency:     currency,
		Direction:    direction,
		Amount:       decimal.NewFromFloat(amountFloat).Round(2),
	}
	if txn.ID == "" {
		txn.ID = txn.GenerateHash()[:16]
	}
	return txn
}
