package service_test

import (
	"testing"
	"time"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/apperrors"
	"github.com/jkoster/folio-backend/internal/repository"
	"github.com/jkoster/folio-backend/internal/testutil"
)

// TestPortfolioService_GetPortfolios tests portfolio listing.
//
// WHY: The archived filter drives both the UI listing and the default
// portfolio resolution for history queries; leaking archived portfolios into
// the default view would also change which histories a bare query computes.
func TestPortfolioService_GetPortfolios(t *testing.T) {
	t.Run("excludes archived portfolios by default", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		testutil.CreatePortfolio(t, db, "Active")
		testutil.NewPortfolio().WithName("Archived").Archived().Build(t, db)

		// Execute
		portfolios, err := svc.GetPortfolios(false)

		// Assert
		if err != nil {
			t.Fatalf("GetPortfolios() returned unexpected error: %v", err)
		}
		if len(portfolios) != 1 {
			t.Fatalf("Expected 1 active portfolio, got %d", len(portfolios))
		}
		if portfolios[0].Name != "Active" {
			t.Errorf("Expected the active portfolio, got %s", portfolios[0].Name)
		}
	})

	t.Run("includes archived portfolios on request", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		testutil.CreatePortfolio(t, db, "Active")
		testutil.NewPortfolio().WithName("Archived").Archived().Build(t, db)

		// Execute
		portfolios, err := svc.GetPortfolios(true)

		// Assert
		if err != nil {
			t.Fatalf("GetPortfolios() returned unexpected error: %v", err)
		}
		if len(portfolios) != 2 {
			t.Errorf("Expected 2 portfolios with archived included, got %d", len(portfolios))
		}
	})
}

// TestPortfolioService_UpdatePortfolio tests portfolio updates.
//
// WHY: Archiving is a metadata change. It must not discard materialized
// history; an archived portfolio's past valuations are still valid facts.
func TestPortfolioService_UpdatePortfolio(t *testing.T) {
	t.Run("archiving keeps materialized snapshots intact", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		repo := repository.NewHistoryRepository(db)
		portfolio := testutil.CreatePortfolio(t, db, "Soon Archived")
		start := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 10)
		testutil.CreateMaterializedRange(t, db, portfolio.ID, start, end, 100)

		// Execute
		archived := true
		updated, err := svc.UpdatePortfolio(portfolio.ID, request.UpdatePortfolioRequest{
			IsArchived: &archived,
		})

		// Assert
		if err != nil {
			t.Fatalf("UpdatePortfolio() returned unexpected error: %v", err)
		}
		if !updated.IsArchived {
			t.Error("Expected the portfolio to be archived")
		}
		existing, err := repo.ExistingDates(portfolio.ID, start, end)
		if err != nil {
			t.Fatalf("ExistingDates() returned unexpected error: %v", err)
		}
		if len(existing) != 10 {
			t.Errorf("Expected all 10 snapshots to survive archiving, got %d", len(existing))
		}
	})

	t.Run("unknown portfolio yields not found", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		// Execute
		_, err := svc.UpdatePortfolio(testutil.MakeID(), request.UpdatePortfolioRequest{})

		// Assert
		if err != apperrors.ErrPortfolioNotFound {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})
}

// TestPortfolioService_DeletePortfolio tests portfolio deletion.
//
// WHY: Deletion must take the materialized history with it; orphaned
// snapshots would show up in stats forever.
func TestPortfolioService_DeletePortfolio(t *testing.T) {
	t.Run("removes the portfolio and its snapshots", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		repo := repository.NewHistoryRepository(db)
		portfolio := testutil.CreatePortfolio(t, db, "Doomed")
		testutil.CreateMaterializedRange(t, db, portfolio.ID,
			testutil.Date(2024, time.March, 1), testutil.Date(2024, time.March, 5), 100)

		// Execute
		if err := svc.DeletePortfolio(portfolio.ID); err != nil {
			t.Fatalf("DeletePortfolio() returned unexpected error: %v", err)
		}

		// Assert
		if _, err := svc.GetPortfolio(portfolio.ID); err != apperrors.ErrPortfolioNotFound {
			t.Errorf("Expected the portfolio to be gone, got %v", err)
		}
		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("Stats() returned unexpected error: %v", err)
		}
		if stats.TotalRecords != 0 {
			t.Errorf("Expected no orphaned snapshots, got %d", stats.TotalRecords)
		}
	})
}
