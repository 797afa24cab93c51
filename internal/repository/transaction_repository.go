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

// TransactionRepository provides data access methods for the transaction table.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetTransactions retrieves all transactions for the given portfolio_fund IDs
// up to and including endDate, sorted by date ascending and grouped by
// portfolio_fund ID. The valuation engine always needs the full history from
// the first transaction onward, because share counts and cost basis depend on
// every prior booking.
func (s *TransactionRepository) GetTransactions(pfIDs []string, endDate time.Time) (map[string][]model.Transaction, error) {
	if len(pfIDs) == 0 {
		return make(map[string][]model.Transaction), nil
	}

	placeholders := make([]string, len(pfIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT id, portfolio_fund_id, date, type, shares, cost_per_share
		FROM "transaction"
		WHERE portfolio_fund_id IN (` + strings.Join(placeholders, ",") + `)
		AND date <= ?
		ORDER BY date ASC
	`

	args := make([]any, 0, len(pfIDs)+1)
	for _, id := range pfIDs {
		args = append(args, id)
	}
	args = append(args, daterange.Key(endDate))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactionsByPF := make(map[string][]model.Transaction)

	for rows.Next() {
		var dateStr string
		var t model.Transaction

		err := rows.Scan(
			&t.ID,
			&t.PortfolioFundID,
			&dateStr,
			&t.Type,
			&t.Shares,
			&t.CostPerShare,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		transactionsByPF[t.PortfolioFundID] = append(transactionsByPF[t.PortfolioFundID], t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactionsByPF, nil
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionRepository) GetTransaction(transactionID string) (model.Transaction, error) {
	query := `
		SELECT id, portfolio_fund_id, date, type, shares, cost_per_share
		FROM "transaction"
		WHERE id = ?
	`

	var t model.Transaction
	var dateStr string

	err := s.db.QueryRow(query, transactionID).Scan(
		&t.ID,
		&t.PortfolioFundID,
		&dateStr,
		&t.Type,
		&t.Shares,
		&t.CostPerShare,
	)
	if err == sql.ErrNoRows {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to query transaction: %w", err)
	}

	t.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return t, nil
}

// InsertTransaction creates a new transaction row.
func (s *TransactionRepository) InsertTransaction(t *model.Transaction) error {
	query := `
		INSERT INTO "transaction" (id, portfolio_fund_id, date, type, shares, cost_per_share)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		t.ID,
		t.PortfolioFundID,
		daterange.Key(t.Date),
		t.Type,
		t.Shares,
		t.CostPerShare,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// UpdateTransaction overwrites a transaction row.
func (s *TransactionRepository) UpdateTransaction(t *model.Transaction) error {
	query := `
		UPDATE "transaction"
		SET portfolio_fund_id = ?, date = ?, type = ?, shares = ?, cost_per_share = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query,
		t.PortfolioFundID,
		daterange.Key(t.Date),
		t.Type,
		t.Shares,
		t.CostPerShare,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// DeleteTransaction removes a transaction row.
func (s *TransactionRepository) DeleteTransaction(transactionID string) error {
	result, err := s.db.Exec(`DELETE FROM "transaction" WHERE id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// GetOldestTransactionDate finds the date of the earliest transaction across
// the given portfolio_fund IDs. Returns the zero time if there are none.
func (s *TransactionRepository) GetOldestTransactionDate(pfIDs []string) time.Time {
	if len(pfIDs) == 0 {
		return time.Time{}
	}

	placeholders := make([]string, len(pfIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT MIN(date)
		FROM "transaction"
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
