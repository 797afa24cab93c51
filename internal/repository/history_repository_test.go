package repository_test

import (
	"testing"
	"time"

	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
	"github.com/jkoster/folio-backend/internal/testutil"
)

// TestHistoryRepository_Upsert tests snapshot writes.
//
// WHY: Materialization and backfill runs revisit the same (portfolio, date)
// pairs. The store must treat a rewrite as a replace, never a duplicate, or
// repeated runs would corrupt the table.
func TestHistoryRepository_Upsert(t *testing.T) {
	t.Run("writing the same day twice keeps one row with the latest values", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)
		portfolio := testutil.CreatePortfolio(t, db, "Upsert Portfolio")
		day := testutil.Date(2024, time.March, 15)

		record := model.HistoryRecord{
			PortfolioID: portfolio.ID,
			Date:        day,
			Value:       1000,
			Cost:        800,
		}

		// Execute
		if err := repo.Upsert(record); err != nil {
			t.Fatalf("Upsert() returned unexpected error: %v", err)
		}
		record.Value = 1100
		if err := repo.Upsert(record); err != nil {
			t.Fatalf("second Upsert() returned unexpected error: %v", err)
		}

		// Assert
		records, err := repo.Query([]string{portfolio.ID}, day, day)
		if err != nil {
			t.Fatalf("Query() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 row after double upsert, got %d", len(records))
		}
		if records[0].Value != 1100 {
			t.Errorf("Expected latest value 1100, got %v", records[0].Value)
		}
	})

	t.Run("total gain loss is derived from realized and unrealized gain", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)
		portfolio := testutil.CreatePortfolio(t, db, "Gain Portfolio")
		day := testutil.Date(2024, time.March, 15)

		// Execute: a stale TotalGainLoss in the input must not survive the write
		err := repo.Upsert(model.HistoryRecord{
			PortfolioID:    portfolio.ID,
			Date:           day,
			RealizedGain:   50,
			UnrealizedGain: 25,
			TotalGainLoss:  9999,
		})
		if err != nil {
			t.Fatalf("Upsert() returned unexpected error: %v", err)
		}

		// Assert
		records, err := repo.Query([]string{portfolio.ID}, day, day)
		if err != nil {
			t.Fatalf("Query() returned unexpected error: %v", err)
		}
		if records[0].TotalGainLoss != 75 {
			t.Errorf("Expected total gain loss 75, got %v", records[0].TotalGainLoss)
		}
	})
}

// TestHistoryRepository_DeleteFrom tests forward deletion.
//
// WHY: Invalidation deletes from a date onward and must hit the boundary day
// itself while leaving everything before it alone. An off-by-one here leaves
// stale snapshots that the coverage check would happily serve.
func TestHistoryRepository_DeleteFrom(t *testing.T) {
	t.Run("removes the from date and everything after, keeps earlier days", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)
		portfolio := testutil.CreatePortfolio(t, db, "Delete Portfolio")
		start := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 10)
		testutil.CreateMaterializedRange(t, db, portfolio.ID, start, end, 100)

		// Execute
		if err := repo.DeleteFrom(portfolio.ID, testutil.Date(2024, time.March, 5)); err != nil {
			t.Fatalf("DeleteFrom() returned unexpected error: %v", err)
		}

		// Assert
		existing, err := repo.ExistingDates(portfolio.ID, start, end)
		if err != nil {
			t.Fatalf("ExistingDates() returned unexpected error: %v", err)
		}
		if len(existing) != 4 {
			t.Errorf("Expected 4 surviving days, got %d", len(existing))
		}
		if !existing["2024-03-04"] {
			t.Error("Day before the cutoff should survive")
		}
		if existing["2024-03-05"] {
			t.Error("The cutoff day itself should be deleted")
		}
	})

	t.Run("does not touch other portfolios", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)
		p1 := testutil.CreatePortfolio(t, db, "Invalidated")
		p2 := testutil.CreatePortfolio(t, db, "Untouched")
		day := testutil.Date(2024, time.March, 5)
		testutil.CreateMaterializedRecord(t, db, p1.ID, day, 100)
		testutil.CreateMaterializedRecord(t, db, p2.ID, day, 200)

		// Execute
		if err := repo.DeleteFrom(p1.ID, day); err != nil {
			t.Fatalf("DeleteFrom() returned unexpected error: %v", err)
		}

		// Assert
		existing, err := repo.ExistingDates(p2.ID, day, day)
		if err != nil {
			t.Fatalf("ExistingDates() returned unexpected error: %v", err)
		}
		if !existing["2024-03-05"] {
			t.Error("Other portfolio's snapshot should survive")
		}
	})
}

// TestHistoryRepository_Query tests the fast-path read.
//
// WHY: The query path promises date-then-portfolio ordering; the HTTP layer
// folds the flat list into per-day groups and relies on it.
func TestHistoryRepository_Query(t *testing.T) {
	t.Run("orders by date then portfolio", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)
		p1 := testutil.CreatePortfolio(t, db, "P1")
		p2 := testutil.CreatePortfolio(t, db, "P2")
		d1 := testutil.Date(2024, time.March, 1)
		d2 := testutil.Date(2024, time.March, 2)
		// Insert out of order
		testutil.CreateMaterializedRecord(t, db, p2.ID, d2, 4)
		testutil.CreateMaterializedRecord(t, db, p1.ID, d2, 3)
		testutil.CreateMaterializedRecord(t, db, p2.ID, d1, 2)
		testutil.CreateMaterializedRecord(t, db, p1.ID, d1, 1)

		// Execute
		records, err := repo.Query([]string{p1.ID, p2.ID}, d1, d2)
		if err != nil {
			t.Fatalf("Query() returned unexpected error: %v", err)
		}

		// Assert
		if len(records) != 4 {
			t.Fatalf("Expected 4 records, got %d", len(records))
		}
		for i := 1; i < len(records); i++ {
			prev, cur := records[i-1], records[i]
			if cur.Date.Before(prev.Date) {
				t.Fatalf("Records out of date order at index %d", i)
			}
			if cur.Date.Equal(prev.Date) && cur.PortfolioID < prev.PortfolioID {
				t.Fatalf("Records out of portfolio order at index %d", i)
			}
		}
	})

	t.Run("range bounds are inclusive", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)
		portfolio := testutil.CreatePortfolio(t, db, "Bounds")
		testutil.CreateMaterializedRange(t, db, portfolio.ID,
			testutil.Date(2024, time.March, 1), testutil.Date(2024, time.March, 5), 10)

		// Execute
		records, err := repo.Query([]string{portfolio.ID},
			testutil.Date(2024, time.March, 2), testutil.Date(2024, time.March, 4))
		if err != nil {
			t.Fatalf("Query() returned unexpected error: %v", err)
		}

		// Assert
		if len(records) != 3 {
			t.Errorf("Expected 3 records in inclusive range, got %d", len(records))
		}
	})
}

// TestHistoryRepository_Stats tests the stats aggregate.
//
// WHY: Stats feed the operational endpoint and CLI; the empty-table case must
// not fail on NULL MIN/MAX dates.
func TestHistoryRepository_Stats(t *testing.T) {
	t.Run("empty table yields zero counts", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)

		// Execute
		stats, err := repo.Stats()

		// Assert
		if err != nil {
			t.Fatalf("Stats() returned unexpected error: %v", err)
		}
		if stats.TotalRecords != 0 || stats.PortfolioCount != 0 {
			t.Errorf("Expected zero stats, got %+v", stats)
		}
	})

	t.Run("counts rows, portfolios and date bounds", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHistoryRepository(db)
		p1 := testutil.CreatePortfolio(t, db, "S1")
		p2 := testutil.CreatePortfolio(t, db, "S2")
		testutil.CreateMaterializedRange(t, db, p1.ID,
			testutil.Date(2024, time.January, 1), testutil.Date(2024, time.January, 3), 1)
		testutil.CreateMaterializedRecord(t, db, p2.ID, testutil.Date(2024, time.February, 1), 1)

		// Execute
		stats, err := repo.Stats()

		// Assert
		if err != nil {
			t.Fatalf("Stats() returned unexpected error: %v", err)
		}
		if stats.TotalRecords != 4 {
			t.Errorf("Expected 4 records, got %d", stats.TotalRecords)
		}
		if stats.PortfolioCount != 2 {
			t.Errorf("Expected 2 portfolios, got %d", stats.PortfolioCount)
		}
		if !stats.OldestDate.Equal(testutil.Date(2024, time.January, 1)) {
			t.Errorf("Unexpected oldest date: %v", stats.OldestDate)
		}
		if !stats.NewestDate.Equal(testutil.Date(2024, time.February, 1)) {
			t.Errorf("Unexpected newest date: %v", stats.NewestDate)
		}
	})
}
