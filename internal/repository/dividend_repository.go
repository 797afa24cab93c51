package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jkoster/folio-backend/internal/apperrors"
	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
)

// DividendRepository provides data access methods for the dividend table.
type DividendRepository struct {
	db *sql.DB
}

// NewDividendRepository creates a new DividendRepository with the provided database connection.
func NewDividendRepository(db *sql.DB) *DividendRepository {
	return &DividendRepository{db: db}
}

// GetDividends retrieves all dividends for the given portfolio_fund IDs with
// an ex-dividend date up to and including endDate, sorted by ex-dividend date
// ascending and grouped by portfolio_fund ID.
func (s *DividendRepository) GetDividends(pfIDs []string, endDate time.Time) (map[string][]model.Dividend, error) {
	if len(pfIDs) == 0 {
		return make(map[string][]model.Dividend), nil
	}

	placeholders := make([]string, len(pfIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT id, portfolio_fund_id, fund_id, record_date, ex_dividend_date,
		       shares_owned, dividend_per_share, total_amount
		FROM dividend
		WHERE portfolio_fund_id IN (` + strings.Join(placeholders, ",") + `)
		AND ex_dividend_date <= ?
		ORDER BY ex_dividend_date ASC
	`

	args := make([]any, 0, len(pfIDs)+1)
	for _, id := range pfIDs {
		args = append(args, id)
	}
	args = append(args, daterange.Key(endDate))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	dividendsByPF := make(map[string][]model.Dividend)

	for rows.Next() {
		var d model.Dividend
		var recordDateStr, exDateStr string

		err := rows.Scan(
			&d.ID,
			&d.PortfolioFundID,
			&d.FundID,
			&recordDateStr,
			&exDateStr,
			&d.SharesOwned,
			&d.DividendPerShare,
			&d.TotalAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend table results: %w", err)
		}

		if d.RecordDate, err = ParseTime(recordDateStr); err != nil {
			return nil, fmt.Errorf("failed to parse record date: %w", err)
		}
		if d.ExDividendDate, err = ParseTime(exDateStr); err != nil {
			return nil, fmt.Errorf("failed to parse ex-dividend date: %w", err)
		}

		dividendsByPF[d.PortfolioFundID] = append(dividendsByPF[d.PortfolioFundID], d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend table: %w", err)
	}

	return dividendsByPF, nil
}

// GetDividend retrieves a single dividend by its ID.
func (s *DividendRepository) GetDividend(dividendID string) (model.Dividend, error) {
	query := `
		SELECT id, portfolio_fund_id, fund_id, record_date, ex_dividend_date,
		       shares_owned, dividend_per_share, total_amount
		FROM dividend
		WHERE id = ?
	`

	var d model.Dividend
	var recordDateStr, exDateStr string

	err := s.db.QueryRow(query, dividendID).Scan(
		&d.ID,
		&d.PortfolioFundID,
		&d.FundID,
		&recordDateStr,
		&exDateStr,
		&d.SharesOwned,
		&d.DividendPerShare,
		&d.TotalAmount,
	)
	if err == sql.ErrNoRows {
		return model.Dividend{}, apperrors.ErrDividendNotFound
	}
	if err != nil {
		return model.Dividend{}, fmt.Errorf("failed to query dividend: %w", err)
	}

	if d.RecordDate, err = ParseTime(recordDateStr); err != nil {
		return model.Dividend{}, fmt.Errorf("failed to parse record date: %w", err)
	}
	if d.ExDividendDate, err = ParseTime(exDateStr); err != nil {
		return model.Dividend{}, fmt.Errorf("failed to parse ex-dividend date: %w", err)
	}

	return d, nil
}

// InsertDividend creates a new dividend row.
func (s *DividendRepository) InsertDividend(d *model.Dividend) error {
	query := `
		INSERT INTO dividend (id, portfolio_fund_id, fund_id, record_date, ex_dividend_date,
		                      shares_owned, dividend_per_share, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		d.ID,
		d.PortfolioFundID,
		d.FundID,
		daterange.Key(d.RecordDate),
		daterange.Key(d.ExDividendDate),
		d.SharesOwned,
		d.DividendPerShare,
		d.TotalAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dividend: %w", err)
	}

	return nil
}

// UpdateDividend overwrites a dividend row.
func (s *DividendRepository) UpdateDividend(d *model.Dividend) error {
	query := `
		UPDATE dividend
		SET portfolio_fund_id = ?, fund_id = ?, record_date = ?, ex_dividend_date = ?,
		    shares_owned = ?, dividend_per_share = ?, total_amount = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query,
		d.PortfolioFundID,
		d.FundID,
		daterange.Key(d.RecordDate),
		daterange.Key(d.ExDividendDate),
		d.SharesOwned,
		d.DividendPerShare,
		d.TotalAmount,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dividend: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrDividendNotFound
	}

	return nil
}

// DeleteDividend removes a dividend row.
func (s *DividendRepository) DeleteDividend(dividendID string) error {
	result, err := s.db.Exec(`DELETE FROM dividend WHERE id = ?`, dividendID)
	if err != nil {
		return fmt.Errorf("failed to delete dividend: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrDividendNotFound
	}

	return nil
}

// GetOldestExDividendDate finds the earliest ex-dividend date across the
// given portfolio_fund IDs. Returns the zero time if there are none.
func (s *DividendRepository) GetOldestExDividendDate(pfIDs []string) time.Time {
	if len(pfIDs) == 0 {
		return time.Time{}
	}

	placeholders := make([]string, len(pfIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT MIN(ex_dividend_date)
		FROM dividend
		WHERE portfolio_fund_id IN (` + strings.Join(placeholders, ",") + `)
	`

	args := make([]any, len(pfIDs))
	for i, id := range pfIDs {
		args[i] = id
	}

	var oldestDateStr sql.NullString
	err := s.db.QueryRow(query, args...).Scan(&oldestDateStr)
	if err != nil || !oldestDateStr.Valid {
		return time.Time{}
	}

	oldestDate, err := time.Parse("2006-01-02", oldestDateStr.String)
	if err != nil {
		return time.Time{}
	}

	return oldestDate
}
