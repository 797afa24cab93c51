package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jkoster/folio-backend/internal/api/handlers"
	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/testutil"
)

// TestHistoryHandler_PortfolioHistory tests GET /api/portfolio/history.
//
// WHY: This is the endpoint the charting frontend lives on. The per-day
// grouping, the date-parameter handling and the use_materialized escape
// hatch are all API contract.
func TestHistoryHandler_PortfolioHistory(t *testing.T) {
	t.Run("groups records per day across portfolios", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewHistoryHandler(
			testutil.NewTestHistoryService(t, db),
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestMaterializer(t, db),
			testutil.NewTestInvalidator(t, db),
		)

		p1 := testutil.CreatePortfolio(t, db, "Chart One")
		p2 := testutil.CreatePortfolio(t, db, "Chart Two")
		start := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 3)
		testutil.CreateMaterializedRange(t, db, p1.ID, start, end, 100)
		testutil.CreateMaterializedRange(t, db, p2.ID, start, end, 200)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/history", map[string]string{
			"start_date": "2024-03-01",
			"end_date":   "2024-03-03",
		})
		w := httptest.NewRecorder()

		// Execute
		handler.PortfolioHistory(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response []handlers.HistoryDayResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 3 {
			t.Fatalf("Expected 3 day groups, got %d", len(response))
		}
		if response[0].Date != "2024-03-01" {
			t.Errorf("Expected first group on 2024-03-01, got %s", response[0].Date)
		}
		for _, day := range response {
			if len(day.Portfolios) != 2 {
				t.Errorf("Expected 2 portfolios on %s, got %d", day.Date, len(day.Portfolios))
			}
		}
	})

	t.Run("rejects an inverted date range", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewHistoryHandler(
			testutil.NewTestHistoryService(t, db),
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestMaterializer(t, db),
			testutil.NewTestInvalidator(t, db),
		)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/history", map[string]string{
			"start_date": "2024-03-10",
			"end_date":   "2024-03-01",
		})
		w := httptest.NewRecorder()

		// Execute
		handler.PortfolioHistory(w, req)

		// Assert
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for inverted range, got %d", w.Code)
		}
	})

	t.Run("unknown portfolio_id yields 404", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewHistoryHandler(
			testutil.NewTestHistoryService(t, db),
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestMaterializer(t, db),
			testutil.NewTestInvalidator(t, db),
		)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/history", map[string]string{
			"portfolio_id": testutil.MakeID(),
		})
		w := httptest.NewRecorder()

		// Execute
		handler.PortfolioHistory(w, req)

		// Assert
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404 for unknown portfolio, got %d", w.Code)
		}
	})
}

// TestHistoryHandler_Materialize tests POST /api/history/materialize.
//
// WHY: Operational backfills go through this endpoint; the summary it
// returns is how operators verify a run did what they expected.
func TestHistoryHandler_Materialize(t *testing.T) {
	t.Run("materializes one portfolio and reports the summary", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewHistoryHandler(
			testutil.NewTestHistoryService(t, db),
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestMaterializer(t, db),
			testutil.NewTestInvalidator(t, db),
		)

		portfolio := testutil.CreatePortfolio(t, db, "Backfill")
		fund := testutil.CreateFund(t, db, "Fund")
		pf := testutil.CreatePortfolioFund(t, db, portfolio.ID, fund.ID)
		start := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 5)
		testutil.CreateTransaction(t, db, pf.ID, model.TransactionBuy, start, 10, 100)
		testutil.CreateFundPrices(t, db, fund.ID, start, end, 100)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/history/materialize", request.MaterializeRequest{
			PortfolioID: portfolio.ID,
			StartDate:   "2024-03-01",
			EndDate:     "2024-03-05",
		})
		w := httptest.NewRecorder()

		// Execute
		handler.Materialize(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var summary model.MaterializeSummary
		if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if summary.Written != 5 {
			t.Errorf("Expected 5 written days, got %d", summary.Written)
		}
	})

	t.Run("invalid body yields 400", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewHistoryHandler(
			testutil.NewTestHistoryService(t, db),
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestMaterializer(t, db),
			testutil.NewTestInvalidator(t, db),
		)

		req := httptest.NewRequest(http.MethodPost, "/api/history/materialize", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Materialize(w, req)

		// Assert
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for missing body, got %d", w.Code)
		}
	})
}

// TestHistoryHandler_Stats tests GET /api/history/stats.
//
// WHY: Stats are the operator's view of store health; the endpoint must work
// on an empty store.
func TestHistoryHandler_Stats(t *testing.T) {
	t.Run("reports counts for the materialized store", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewHistoryHandler(
			testutil.NewTestHistoryService(t, db),
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestMaterializer(t, db),
			testutil.NewTestInvalidator(t, db),
		)

		portfolio := testutil.CreatePortfolio(t, db, "Counted")
		testutil.CreateMaterializedRange(t, db, portfolio.ID,
			testutil.Date(2024, time.March, 1), testutil.Date(2024, time.March, 5), 100)

		req := httptest.NewRequest(http.MethodGet, "/api/history/stats", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Stats(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var stats model.HistoryStats
		if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if stats.TotalRecords != 5 || stats.PortfolioCount != 1 {
			t.Errorf("Unexpected stats: %+v", stats)
		}
	})
}
