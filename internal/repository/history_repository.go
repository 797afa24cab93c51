package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
)

// HistoryRepository provides data access methods for the
// portfolio_history_materialized table: the durable store of per-day,
// per-portfolio valuation snapshots.
//
// The table holds derived data only. Writers are the materializer (Upsert)
// and the invalidator (DeleteFrom/DeleteAll); readers are the history query
// path and the stats reporter. No in-process locking is done here; SQLite's
// own transaction guarantees cover the individual statements.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new repository instance.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert inserts or overwrites the snapshot for (portfolio_id, date).
// TotalGainLoss is recomputed here from realized + unrealized gain rather
// than taken from the record, so the stored invariant cannot drift.
// Upserting the same record twice yields identical stored values.
func (r *HistoryRepository) Upsert(record model.HistoryRecord) error {
	query := `
		INSERT INTO portfolio_history_materialized (
			id, portfolio_id, date, value, cost, realized_gain, unrealized_gain,
			total_dividends, total_sale_proceeds, total_original_cost,
			total_gain_loss, is_archived, calculated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, date) DO UPDATE SET
			value = excluded.value,
			cost = excluded.cost,
			realized_gain = excluded.realized_gain,
			unrealized_gain = excluded.unrealized_gain,
			total_dividends = excluded.total_dividends,
			total_sale_proceeds = excluded.total_sale_proceeds,
			total_original_cost = excluded.total_original_cost,
			total_gain_loss = excluded.total_gain_loss,
			is_archived = excluded.is_archived,
			calculated_at = excluded.calculated_at
	`

	totalGainLoss := record.RealizedGain + record.UnrealizedGain

	_, err := r.db.Exec(query,
		uuid.New().String(),
		record.PortfolioID,
		daterange.Key(record.Date),
		record.Value,
		record.Cost,
		record.RealizedGain,
		record.UnrealizedGain,
		record.TotalDividends,
		record.TotalSaleProceeds,
		record.TotalOriginalCost,
		totalGainLoss,
		record.IsArchived,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio_history_materialized: %w", err)
	}

	return nil
}

// DeleteFrom deletes all snapshots for the portfolio with date >= fromDate.
// A no-op if no rows match.
func (r *HistoryRepository) DeleteFrom(portfolioID string, fromDate time.Time) error {
	query := `
		DELETE FROM portfolio_history_materialized
		WHERE portfolio_id = ? AND date >= ?
	`

	if _, err := r.db.Exec(query, portfolioID, daterange.Key(fromDate)); err != nil {
		return fmt.Errorf("failed to delete from portfolio_history_materialized: %w", err)
	}

	return nil
}

// DeleteAll deletes every snapshot for a portfolio.
func (r *HistoryRepository) DeleteAll(portfolioID string) error {
	query := `DELETE FROM portfolio_history_materialized WHERE portfolio_id = ?`

	if _, err := r.db.Exec(query, portfolioID); err != nil {
		return fmt.Errorf("failed to clear portfolio_history_materialized: %w", err)
	}

	return nil
}

// Query returns all snapshots for the given portfolios within the inclusive
// date range, ordered by date ascending, then portfolio.
func (r *HistoryRepository) Query(portfolioIDs []string, startDate, endDate time.Time) ([]model.MaterializedRecord, error) {
	if len(portfolioIDs) == 0 {
		return []model.MaterializedRecord{}, nil
	}

	placeholders := make([]string, len(portfolioIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT id, portfolio_id, date, value, cost, realized_gain, unrealized_gain,
		       total_dividends, total_sale_proceeds, total_original_cost,
		       total_gain_loss, is_archived, calculated_at
		FROM portfolio_history_materialized
		WHERE portfolio_id IN (` + strings.Join(placeholders, ",") + `)
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC, portfolio_id ASC
	`

	args := make([]any, 0, len(portfolioIDs)+2)
	for _, id := range portfolioIDs {
		args = append(args, id)
	}
	args = append(args, daterange.Key(startDate))
	args = append(args, daterange.Key(endDate))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_history_materialized: %w", err)
	}
	defer rows.Close()

	records := []model.MaterializedRecord{}

	for rows.Next() {
		var record model.MaterializedRecord
		var dateStr, calculatedAtStr string

		err := rows.Scan(
			&record.ID,
			&record.PortfolioID,
			&dateStr,
			&record.Value,
			&record.Cost,
			&record.RealizedGain,
			&record.UnrealizedGain,
			&record.TotalDividends,
			&record.TotalSaleProceeds,
			&record.TotalOriginalCost,
			&record.TotalGainLoss,
			&record.IsArchived,
			&calculatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_history_materialized results: %w", err)
		}

		record.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		record.CalculatedAt, err = ParseTime(calculatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse calculated_at: %w", err)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_history_materialized: %w", err)
	}

	return records, nil
}

// ExistingDates returns the set of days within [startDate, endDate] that
// have a snapshot for the portfolio, keyed by YYYY-MM-DD. Used by the
// coverage checker and the materializer's gap detection.
func (r *HistoryRepository) ExistingDates(portfolioID string, startDate, endDate time.Time) (map[string]bool, error) {
	query := `
		SELECT date
		FROM portfolio_history_materialized
		WHERE portfolio_id = ?
		AND date >= ?
		AND date <= ?
	`

	rows, err := r.db.Query(query, portfolioID, daterange.Key(startDate), daterange.Key(endDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query materialized dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]bool)

	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan materialized date: %w", err)
		}

		date, err := ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		dates[daterange.Key(date)] = true
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating materialized dates: %w", err)
	}

	return dates, nil
}

// Stats returns aggregate counts and the date span of the materialized table.
func (r *HistoryRepository) Stats() (model.HistoryStats, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT portfolio_id), MIN(date), MAX(date)
		FROM portfolio_history_materialized
	`

	var stats model.HistoryStats
	var minDate, maxDate sql.NullString

	err := r.db.QueryRow(query).Scan(
		&stats.TotalRecords,
		&stats.PortfolioCount,
		&minDate,
		&maxDate,
	)
	if err != nil {
		return model.HistoryStats{}, fmt.Errorf("failed to query materialized stats: %w", err)
	}

	if minDate.Valid {
		if stats.OldestDate, err = ParseTime(minDate.String); err != nil {
			return model.HistoryStats{}, fmt.Errorf("failed to parse oldest date: %w", err)
		}
	}
	if maxDate.Valid {
		if stats.NewestDate, err = ParseTime(maxDate.String); err != nil {
			return model.HistoryStats{}, fmt.Errorf("failed to parse newest date: %w", err)
		}
	}

	return stats, nil
}
