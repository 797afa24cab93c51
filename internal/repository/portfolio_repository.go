package repository

import (
	"database/sql"
	"fmt"

	"github.com/jkoster/folio-backend/internal/apperrors"
	"github.com/jkoster/folio-backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio and
// portfolio_fund tables.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves portfolios from the database based on filter criteria.
// Returns an empty slice if no portfolios match.
func (s *PortfolioRepository) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
		SELECT id, name, description, is_archived
		FROM portfolio
		WHERE 1=1
	`
	var args []any

	if !filter.IncludeArchived {
		query += " AND is_archived = ?"
		args = append(args, 0)
	}

	query += " ORDER BY name ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}

	for rows.Next() {
		var p model.Portfolio

		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.IsArchived,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}

		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolioOnID retrieves a single portfolio by ID.
func (s *PortfolioRepository) GetPortfolioOnID(portfolioID string) (model.Portfolio, error) {
	query := `
		SELECT id, name, description, is_archived
		FROM portfolio
		WHERE id = ?
	`
	var p model.Portfolio

	err := s.db.QueryRow(query, portfolioID).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.IsArchived,
	)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}

	return p, nil
}

// InsertPortfolio creates a new portfolio row.
func (s *PortfolioRepository) InsertPortfolio(p model.Portfolio) error {
	query := `
		INSERT INTO portfolio (id, name, description, is_archived)
		VALUES (?, ?, ?, ?)
	`

	if _, err := s.db.Exec(query, p.ID, p.Name, p.Description, p.IsArchived); err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}

	return nil
}

// UpdatePortfolio updates the mutable portfolio fields.
func (s *PortfolioRepository) UpdatePortfolio(p model.Portfolio) error {
	query := `
		UPDATE portfolio
		SET name = ?, description = ?, is_archived = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query, p.Name, p.Description, p.IsArchived, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}

// DeletePortfolio removes a portfolio. Dependent rows (portfolio_fund,
// transactions, dividends, materialized history) cascade via foreign keys.
func (s *PortfolioRepository) DeletePortfolio(portfolioID string) error {
	result, err := s.db.Exec(`DELETE FROM portfolio WHERE id = ?`, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}

// InsertPortfolioFund assigns a fund to a portfolio.
func (s *PortfolioRepository) InsertPortfolioFund(pf model.PortfolioFund) error {
	query := `
		INSERT INTO portfolio_fund (id, portfolio_id, fund_id)
		VALUES (?, ?, ?)
	`

	if _, err := s.db.Exec(query, pf.ID, pf.PortfolioID, pf.FundID); err != nil {
		return fmt.Errorf("failed to insert portfolio_fund: %w", err)
	}

	return nil
}

// GetPortfolioFund retrieves a single portfolio-fund assignment by ID.
func (s *PortfolioRepository) GetPortfolioFund(pfID string) (model.PortfolioFund, error) {
	query := `
		SELECT id, portfolio_id, fund_id
		FROM portfolio_fund
		WHERE id = ?
	`
	var pf model.PortfolioFund

	err := s.db.QueryRow(query, pfID).Scan(&pf.ID, &pf.PortfolioID, &pf.FundID)
	if err == sql.ErrNoRows {
		return model.PortfolioFund{}, apperrors.ErrPortfolioFundNotFound
	}
	if err != nil {
		return model.PortfolioFund{}, fmt.Errorf("failed to query portfolio_fund: %w", err)
	}

	return pf, nil
}

// GetPortfolioFundsOnPortfolioID retrieves all fund assignments for a portfolio.
func (s *PortfolioRepository) GetPortfolioFundsOnPortfolioID(portfolioID string) ([]model.PortfolioFund, error) {
	query := `
		SELECT id, portfolio_id, fund_id
		FROM portfolio_fund
		WHERE portfolio_id = ?
	`

	rows, err := s.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_fund table: %w", err)
	}
	defer rows.Close()

	pfs := []model.PortfolioFund{}

	for rows.Next() {
		var pf model.PortfolioFund
		if err := rows.Scan(&pf.ID, &pf.PortfolioID, &pf.FundID); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_fund table results: %w", err)
		}
		pfs = append(pfs, pf)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_fund table: %w", err)
	}

	return pfs, nil
}

// GetPortfoliosByFundID retrieves all portfolios that hold a specific fund.
// A single fund price correction ripples into every one of these, so the
// invalidator uses this join to resolve its fan-out. Returns an empty slice
// if the fund is not assigned to any portfolio (not an error).
func (s *PortfolioRepository) GetPortfoliosByFundID(fundID string) ([]model.Portfolio, error) {
	query := `
		SELECT p.id, p.name, p.description, p.is_archived
		FROM portfolio p
		INNER JOIN portfolio_fund pf ON pf.portfolio_id = p.id
		WHERE pf.fund_id = ?
	`

	rows, err := s.db.Query(query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_fund or portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}

	for rows.Next() {
		var p model.Portfolio

		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.IsArchived,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_fund or portfolio table results: %w", err)
		}

		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_fund or portfolio table: %w", err)
	}

	return portfolios, nil
}
