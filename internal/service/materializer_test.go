package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
	"github.com/jkoster/folio-backend/internal/testutil"
)

// TestMaterializer_MaterializePortfolio tests single-portfolio snapshot runs.
//
// WHY: Materialization is the producer for the fast path. It must fill the
// whole activity range without leaving gaps, keep already-written days
// untouched on incremental runs, and survive days the engine cannot price.
func TestMaterializer_MaterializePortfolio(t *testing.T) {
	t.Run("writes one snapshot per day over the default activity range", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Default Range")
		fund := testutil.CreateFund(t, db, "Index Fund")
		pf := testutil.CreatePortfolioFund(t, db, portfolio.ID, fund.ID)

		buyDate := testutil.Date(2024, time.March, 1)
		endDate := testutil.Date(2024, time.March, 10)
		testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, buyDate, 10, 100)
		testutil.CreateFundPrices(t, db, fund.ID, buyDate, endDate, 100)

		// Execute
		summary, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, &endDate, false)

		// Assert
		if err != nil {
			t.Fatalf("MaterializePortfolio() returned unexpected error: %v", err)
		}
		if summary.Written != 10 {
			t.Errorf("Expected 10 written days, got %d", summary.Written)
		}
		if !summary.Start.Equal(buyDate) {
			t.Errorf("Expected range to start at first activity %v, got %v", buyDate, summary.Start)
		}

		// The range must be gap-free afterwards
		coverage := testutil.NewTestHistoryService(t, db)
		result, err := coverage.CheckCoverage([]string{portfolio.ID}, buyDate, endDate)
		if err != nil {
			t.Fatalf("CheckCoverage() returned unexpected error: %v", err)
		}
		if !result.Complete {
			t.Errorf("Expected complete coverage after materialization, got %+v", result.Portfolios)
		}
	})

	t.Run("incremental run leaves existing days untouched", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Incremental")
		fund := testutil.CreateFund(t, db, "Index Fund")
		pf := testutil.CreatePortfolioFund(t, db, portfolio.ID, fund.ID)

		start := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 5)
		testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, start, 10, 100)
		testutil.CreateFundPrices(t, db, fund.ID, start, end, 100)

		if _, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, &end, false); err != nil {
			t.Fatalf("first MaterializePortfolio() returned unexpected error: %v", err)
		}

		// Execute
		summary, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, &end, false)

		// Assert
		if err != nil {
			t.Fatalf("second MaterializePortfolio() returned unexpected error: %v", err)
		}
		if summary.Written != 0 {
			t.Errorf("Expected 0 written on rerun, got %d", summary.Written)
		}
		if summary.Existing != 5 {
			t.Errorf("Expected 5 existing on rerun, got %d", summary.Existing)
		}
	})

	t.Run("force recalculate rewrites every day", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Forced")
		fund := testutil.CreateFund(t, db, "Index Fund")
		pf := testutil.CreatePortfolioFund(t, db, portfolio.ID, fund.ID)

		start := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 5)
		testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, start, 10, 100)
		testutil.CreateFundPrices(t, db, fund.ID, start, end, 100)

		if _, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, &end, false); err != nil {
			t.Fatalf("first MaterializePortfolio() returned unexpected error: %v", err)
		}

		// Execute
		summary, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, &end, true)

		// Assert
		if err != nil {
			t.Fatalf("forced MaterializePortfolio() returned unexpected error: %v", err)
		}
		if summary.Written != 5 {
			t.Errorf("Expected 5 rewritten days with force, got %d", summary.Written)
		}
	})

	t.Run("days without any known price are skipped, not failed", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Skips")
		fund := testutil.CreateFund(t, db, "Late Priced Fund")
		pf := testutil.CreatePortfolioFund(t, db, portfolio.ID, fund.ID)

		// Holdings exist from March 1, but the first price arrives March 3
		buyDate := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 5)
		testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, buyDate, 10, 100)
		testutil.CreateFundPrices(t, db, fund.ID, testutil.Date(2024, time.March, 3), end, 100)

		// Execute
		summary, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, &end, false)

		// Assert
		if err != nil {
			t.Fatalf("MaterializePortfolio() returned unexpected error: %v", err)
		}
		if summary.Skipped != 2 {
			t.Errorf("Expected 2 skipped days before the first price, got %d", summary.Skipped)
		}
		if summary.Written != 3 {
			t.Errorf("Expected 3 written days, got %d", summary.Written)
		}
	})

	t.Run("portfolio without activity materializes nothing", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Empty")

		// Execute
		summary, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, nil, false)

		// Assert
		if err != nil {
			t.Fatalf("MaterializePortfolio() returned unexpected error: %v", err)
		}
		if summary.Written != 0 || summary.Skipped != 0 || summary.Existing != 0 {
			t.Errorf("Expected empty summary for portfolio without activity, got %+v", summary)
		}
	})

	t.Run("unknown portfolio fails loudly", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)

		// Execute
		_, err := m.MaterializePortfolio(context.Background(), "no-such-id", nil, nil, false)

		// Assert
		if err == nil {
			t.Fatal("Expected error for unknown portfolio ID")
		}
	})

	t.Run("stored snapshot carries the engine's valuation", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)
		repo := repository.NewHistoryRepository(db)
		portfolio := testutil.CreatePortfolio(t, db, "Valued")
		fund := testutil.CreateFund(t, db, "Index Fund")
		pf := testutil.CreatePortfolioFund(t, db, portfolio.ID, fund.ID)

		day := testutil.Date(2024, time.March, 1)
		testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, day, 10, 100)
		testutil.CreateFundPrice(t, db, fund.ID, day, 110)

		// Execute
		if _, err := m.MaterializePortfolio(context.Background(), portfolio.ID, nil, &day, false); err != nil {
			t.Fatalf("MaterializePortfolio() returned unexpected error: %v", err)
		}

		// Assert
		records, err := repo.Query([]string{portfolio.ID}, day, day)
		if err != nil {
			t.Fatalf("Query() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 snapshot, got %d", len(records))
		}
		record := records[0]
		if record.Cost != 1000 {
			t.Errorf("Expected cost 1000, got %v", record.Cost)
		}
		if record.Value != 1100 {
			t.Errorf("Expected value 1100 at price 110, got %v", record.Value)
		}
		if record.UnrealizedGain != 100 {
			t.Errorf("Expected unrealized gain 100, got %v", record.UnrealizedGain)
		}
	})
}

// TestMaterializer_MaterializeAll tests the batch run.
//
// WHY: The nightly job runs over every portfolio, archived included, and one
// broken portfolio must not stop the rest.
func TestMaterializer_MaterializeAll(t *testing.T) {
	t.Run("covers active and archived portfolios", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)

		active := testutil.CreatePortfolio(t, db, "Active")
		archived := testutil.NewPortfolio().WithName("Archived").Archived().Build(t, db)
		fund := testutil.CreateFund(t, db, "Shared Fund")

		// Recent activity keeps the default range (activity through today) short
		day := time.Now().UTC().AddDate(0, 0, -3)
		for _, p := range []model.Portfolio{active, archived} {
			pf := testutil.CreatePortfolioFund(t, db, p.ID, fund.ID)
			testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, day, 5, 10)
		}
		testutil.CreateFundPrice(t, db, fund.ID, day, 10)

		// Execute
		summary, err := m.MaterializeAll(context.Background(), false)

		// Assert
		if err != nil {
			t.Fatalf("MaterializeAll() returned unexpected error: %v", err)
		}
		if summary.Portfolios != 2 {
			t.Errorf("Expected 2 portfolios in batch, got %d", summary.Portfolios)
		}
		if summary.Failed != 0 {
			t.Errorf("Expected no failures, got %d", summary.Failed)
		}

		repo := repository.NewHistoryRepository(db)
		for _, p := range []model.Portfolio{active, archived} {
			existing, err := repo.ExistingDates(p.ID, day, time.Now().UTC())
			if err != nil {
				t.Fatalf("ExistingDates() returned unexpected error: %v", err)
			}
			if len(existing) == 0 {
				t.Errorf("Expected snapshots for portfolio %s", p.Name)
			}
		}
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		m := testutil.NewTestMaterializer(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Never Reached")
		fund := testutil.CreateFund(t, db, "Fund")
		pf := testutil.CreatePortfolioFund(t, db, portfolio.ID, fund.ID)
		day := testutil.Date(2024, time.March, 1)
		testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, day, 5, 10)
		testutil.CreateFundPrice(t, db, fund.ID, day, 10)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Execute
		summary, _ := m.MaterializeAll(ctx, false)

		// Assert
		if summary.Written != 0 {
			t.Errorf("Expected no writes under a cancelled context, got %d", summary.Written)
		}
	})
}
