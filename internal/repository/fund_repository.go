package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jkoster/folio-backend/internal/apperrors"
	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
)

// FundRepository provides data access methods for the fund and fund_price tables.
type FundRepository struct {
	db *sql.DB
}

// NewFundRepository creates a new FundRepository with the provided database connection.
func NewFundRepository(db *sql.DB) *FundRepository {
	return &FundRepository{db: db}
}

// GetFunds retrieves all funds.
func (s *FundRepository) GetFunds() ([]model.Fund, error) {
	query := `
		SELECT id, name, isin, symbol, currency
		FROM fund
		ORDER BY name ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund table: %w", err)
	}
	defer rows.Close()

	funds := []model.Fund{}

	for rows.Next() {
		var f model.Fund
		if err := rows.Scan(&f.ID, &f.Name, &f.Isin, &f.Symbol, &f.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan fund table results: %w", err)
		}
		funds = append(funds, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund table: %w", err)
	}

	return funds, nil
}

// GetFundOnID retrieves a single fund by ID.
func (s *FundRepository) GetFundOnID(fundID string) (model.Fund, error) {
	query := `
		SELECT id, name, isin, symbol, currency
		FROM fund
		WHERE id = ?
	`
	var f model.Fund

	err := s.db.QueryRow(query, fundID).Scan(&f.ID, &f.Name, &f.Isin, &f.Symbol, &f.Currency)
	if err == sql.ErrNoRows {
		return model.Fund{}, apperrors.ErrFundNotFound
	}
	if err != nil {
		return model.Fund{}, fmt.Errorf("failed to query fund: %w", err)
	}

	return f, nil
}

// InsertFund creates a new fund row.
func (s *FundRepository) InsertFund(f model.Fund) error {
	query := `
		INSERT INTO fund (id, name, isin, symbol, currency)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := s.db.Exec(query, f.ID, f.Name, f.Isin, f.Symbol, f.Currency); err != nil {
		return fmt.Errorf("failed to insert fund: %w", err)
	}

	return nil
}

// GetPrices retrieves all prices for the given fund IDs up to and including
// endDate, sorted by date ascending and grouped by fund ID. Ascending order
// is what the valuation engine's carry-forward lookup expects.
func (s *FundRepository) GetPrices(fundIDs []string, endDate time.Time) (map[string][]model.FundPrice, error) {
	if len(fundIDs) == 0 {
		return make(map[string][]model.FundPrice), nil
	}

	placeholders := make([]string, len(fundIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT id, fund_id, date, price
		FROM fund_price
		WHERE fund_id IN (` + strings.Join(placeholders, ",") + `)
		AND date <= ?
		ORDER BY date ASC
	`

	args := make([]any, 0, len(fundIDs)+1)
	for _, id := range fundIDs {
		args = append(args, id)
	}
	args = append(args, daterange.Key(endDate))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund_price table: %w", err)
	}
	defer rows.Close()

	pricesByFund := make(map[string][]model.FundPrice)

	for rows.Next() {
		var p model.FundPrice
		var dateStr string

		if err := rows.Scan(&p.ID, &p.FundID, &dateStr, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan fund_price table results: %w", err)
		}

		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		pricesByFund[p.FundID] = append(pricesByFund[p.FundID], p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund_price table: %w", err)
	}

	return pricesByFund, nil
}

// UpsertPrice inserts or overwrites the price for (fund_id, date).
func (s *FundRepository) UpsertPrice(fundID string, date time.Time, price float64) error {
	query := `
		INSERT INTO fund_price (id, fund_id, date, price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fund_id, date) DO UPDATE SET price = excluded.price
	`

	_, err := s.db.Exec(query, uuid.New().String(), fundID, daterange.Key(date), price)
	if err != nil {
		return fmt.Errorf("failed to upsert fund_price: %w", err)
	}

	return nil
}
