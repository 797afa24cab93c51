package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Custom Portfolio").
//	    Archived().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID          string
	Name        string
	Description string
	IsArchived  bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		Name:        "Test Portfolio " + randomAlphanumeric(6),
		Description: "Test description",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Archived marks the portfolio as archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, name, description, is_archived)
		VALUES (?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.Description, b.IsArchived)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		IsArchived:  b.IsArchived,
	}
}

// CreatePortfolio creates a portfolio with the given name and default values.
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// CreateFund creates a fund with generated identifiers.
func CreateFund(t *testing.T, db *sql.DB, name string) model.Fund {
	t.Helper()

	fund := model.Fund{
		ID:       MakeID(),
		Name:     name,
		Isin:     MakeISIN("US"),
		Symbol:   randomAlphanumeric(4),
		Currency: "USD",
	}

	query := `
		INSERT INTO fund (id, name, isin, symbol, currency)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, fund.ID, fund.Name, fund.Isin, fund.Symbol, fund.Currency)
	if err != nil {
		t.Fatalf("Failed to create test fund: %v", err)
	}

	return fund
}

// CreatePortfolioFund assigns a fund to a portfolio.
func CreatePortfolioFund(t *testing.T, db *sql.DB, portfolioID, fundID string) model.PortfolioFund {
	t.Helper()

	pf := model.PortfolioFund{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		FundID:      fundID,
	}

	query := `
		INSERT INTO portfolio_fund (id, portfolio_id, fund_id)
		VALUES (?, ?, ?)
	`

	_, err := db.Exec(query, pf.ID, pf.PortfolioID, pf.FundID)
	if err != nil {
		t.Fatalf("Failed to create test portfolio fund: %v", err)
	}

	return pf
}

// CreateTransaction records a transaction on the given calendar day.
func CreateTransaction(t *testing.T, db *sql.DB, portfolioFundID, transactionType string, date time.Time, shares, costPerShare float64) model.Transaction {
	t.Helper()

	tx := model.Transaction{
		ID:              MakeID(),
		PortfolioFundID: portfolioFundID,
		Date:            daterange.Normalize(date),
		Type:            transactionType,
		Shares:          shares,
		CostPerShare:    costPerShare,
	}

	query := `
		INSERT INTO "transaction" (id, portfolio_fund_id, date, type, shares, cost_per_share)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, tx.ID, tx.PortfolioFundID, daterange.Key(tx.Date), tx.Type, tx.Shares, tx.CostPerShare)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return tx
}

// CreateDividend records a dividend anchored on the given ex-dividend date.
func CreateDividend(t *testing.T, db *sql.DB, portfolioFundID, fundID string, exDate time.Time, sharesOwned, perShare float64) model.Dividend {
	t.Helper()

	d := model.Dividend{
		ID:               MakeID(),
		PortfolioFundID:  portfolioFundID,
		FundID:           fundID,
		RecordDate:       daterange.Normalize(exDate),
		ExDividendDate:   daterange.Normalize(exDate),
		SharesOwned:      sharesOwned,
		DividendPerShare: perShare,
		TotalAmount:      sharesOwned * perShare,
	}

	query := `
		INSERT INTO dividend (id, portfolio_fund_id, fund_id, record_date, ex_dividend_date,
			shares_owned, dividend_per_share, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, d.ID, d.PortfolioFundID, d.FundID,
		daterange.Key(d.RecordDate), daterange.Key(d.ExDividendDate),
		d.SharesOwned, d.DividendPerShare, d.TotalAmount)
	if err != nil {
		t.Fatalf("Failed to create test dividend: %v", err)
	}

	return d
}

// CreateFundPrice records a closing price for a fund on one day.
func CreateFundPrice(t *testing.T, db *sql.DB, fundID string, date time.Time, price float64) model.FundPrice {
	t.Helper()

	p := model.FundPrice{
		ID:     MakeID(),
		FundID: fundID,
		Date:   daterange.Normalize(date),
		Price:  price,
	}

	query := `
		INSERT INTO fund_price (id, fund_id, date, price)
		VALUES (?, ?, ?, ?)
	`

	_, err := db.Exec(query, p.ID, p.FundID, daterange.Key(p.Date), p.Price)
	if err != nil {
		t.Fatalf("Failed to create test fund price: %v", err)
	}

	return p
}

// CreateFundPrices records one price per day over an inclusive range, all at
// the same value. Handy for scenarios where the price level is irrelevant.
func CreateFundPrices(t *testing.T, db *sql.DB, fundID string, start, end time.Time, price float64) {
	t.Helper()

	it := daterange.New(start, end)
	for day, ok := it.Next(); ok; day, ok = it.Next() {
		CreateFundPrice(t, db, fundID, day, price)
	}
}

// CreateMaterializedRecord stores a snapshot row directly, bypassing the
// valuation engine. Useful for coverage and query-path tests that only care
// about which rows exist.
func CreateMaterializedRecord(t *testing.T, db *sql.DB, portfolioID string, date time.Time, value float64) model.MaterializedRecord {
	t.Helper()

	record := model.MaterializedRecord{
		ID:           MakeID(),
		CalculatedAt: time.Now().UTC(),
		HistoryRecord: model.HistoryRecord{
			PortfolioID: portfolioID,
			Date:        daterange.Normalize(date),
			Value:       value,
		},
	}

	query := `
		INSERT INTO portfolio_history_materialized (id, portfolio_id, date, value, cost,
			realized_gain, unrealized_gain, total_dividends, total_sale_proceeds,
			total_original_cost, total_gain_loss, is_archived, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, record.ID, record.PortfolioID, daterange.Key(record.Date),
		record.Value, record.Cost, record.RealizedGain, record.UnrealizedGain,
		record.TotalDividends, record.TotalSaleProceeds, record.TotalOriginalCost,
		record.TotalGainLoss, record.IsArchived, record.CalculatedAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test materialized record: %v", err)
	}

	return record
}

// CreateMaterializedRange stores one snapshot per day over an inclusive range.
func CreateMaterializedRange(t *testing.T, db *sql.DB, portfolioID string, start, end time.Time, value float64) {
	t.Helper()

	it := daterange.New(start, end)
	for day, ok := it.Next(); ok; day, ok = it.Next() {
		CreateMaterializedRecord(t, db, portfolioID, day, value)
	}
}

// MakeID generates a UUID string for use in tests.
func MakeID() string {
	return uuid.New().String()
}
