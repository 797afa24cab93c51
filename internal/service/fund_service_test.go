package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/apperrors"
	"github.com/jkoster/folio-backend/internal/repository"
	"github.com/jkoster/folio-backend/internal/secrets"
	"github.com/jkoster/folio-backend/internal/service"
	"github.com/jkoster/folio-backend/internal/testutil"
)

// TestFundService_SetPrice tests price writes.
//
// WHY: A price correction invalidates every portfolio holding the fund; a
// rewrite of the same day must replace, not duplicate.
func TestFundService_SetPrice(t *testing.T) {
	t.Run("upserts the price and fans invalidation out to holders", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFundService(t, db)
		historyRepo := repository.NewHistoryRepository(db)
		fundRepo := repository.NewFundRepository(db)

		fund := testutil.CreateFund(t, db, "Priced Fund")
		holder := testutil.CreatePortfolio(t, db, "Holder")
		bystander := testutil.CreatePortfolio(t, db, "Bystander")
		testutil.CreatePortfolioFund(t, db, holder.ID, fund.ID)

		start := testutil.Date(2024, time.March, 1)
		end := testutil.Date(2024, time.March, 10)
		testutil.CreateMaterializedRange(t, db, holder.ID, start, end, 100)
		testutil.CreateMaterializedRange(t, db, bystander.ID, start, end, 100)

		// Execute: write the same day twice with different values
		for _, price := range []float64{50, 55} {
			err := svc.SetPrice(context.Background(), fund.ID, request.SetPriceRequest{
				Date:  "2024-03-05",
				Price: price,
			})
			if err != nil {
				t.Fatalf("SetPrice() returned unexpected error: %v", err)
			}
		}

		// Assert
		prices, err := fundRepo.GetPrices([]string{fund.ID}, end)
		if err != nil {
			t.Fatalf("GetPrices() returned unexpected error: %v", err)
		}
		if len(prices[fund.ID]) != 1 {
			t.Fatalf("Expected 1 price row after double write, got %d", len(prices[fund.ID]))
		}
		if prices[fund.ID][0].Price != 55 {
			t.Errorf("Expected latest price 55, got %v", prices[fund.ID][0].Price)
		}

		holderExisting, err := historyRepo.ExistingDates(holder.ID, start, end)
		if err != nil {
			t.Fatalf("ExistingDates() returned unexpected error: %v", err)
		}
		if len(holderExisting) != 4 {
			t.Errorf("Expected holder snapshots from March 5 onward invalidated, got %d surviving", len(holderExisting))
		}

		bystanderExisting, err := historyRepo.ExistingDates(bystander.ID, start, end)
		if err != nil {
			t.Fatalf("ExistingDates() returned unexpected error: %v", err)
		}
		if len(bystanderExisting) != 10 {
			t.Errorf("Expected bystander snapshots untouched, got %d surviving", len(bystanderExisting))
		}
	})

	t.Run("unknown fund yields not found", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFundService(t, db)

		// Execute
		err := svc.SetPrice(context.Background(), testutil.MakeID(), request.SetPriceRequest{
			Date:  "2024-03-05",
			Price: 50,
		})

		// Assert
		if err != apperrors.ErrFundNotFound {
			t.Errorf("Expected ErrFundNotFound, got %v", err)
		}
	})

	t.Run("rejects negative prices", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFundService(t, db)
		fund := testutil.CreateFund(t, db, "Fund")

		// Execute
		err := svc.SetPrice(context.Background(), fund.ID, request.SetPriceRequest{
			Date:  "2024-03-05",
			Price: -1,
		})

		// Assert
		if err != apperrors.ErrNegativeAmount {
			t.Errorf("Expected ErrNegativeAmount, got %v", err)
		}
	})
}

// TestFundService_ProviderToken tests encrypted token storage.
//
// WHY: The provider API token must round-trip through encryption and never
// sit in the settings table in the clear.
func TestFundService_ProviderToken(t *testing.T) {
	t.Run("round-trips through encrypted storage", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		key, err := secrets.GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey() returned unexpected error: %v", err)
		}
		box, err := secrets.NewBox(key)
		if err != nil {
			t.Fatalf("NewBox() returned unexpected error: %v", err)
		}
		settingRepo := repository.NewSettingRepository(db)
		svc := service.NewFundService(
			repository.NewFundRepository(db),
			settingRepo,
			testutil.NewTestInvalidator(t, db),
			box,
		)

		// Execute
		if err := svc.SetProviderToken("api-token-123"); err != nil {
			t.Fatalf("SetProviderToken() returned unexpected error: %v", err)
		}
		token, err := svc.ProviderToken()

		// Assert
		if err != nil {
			t.Fatalf("ProviderToken() returned unexpected error: %v", err)
		}
		if token != "api-token-123" {
			t.Errorf("Expected round-tripped token, got %q", token)
		}

		stored, err := settingRepo.Get("price_provider_token")
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if stored == "api-token-123" {
			t.Error("Token must not be stored in the clear")
		}
	})

	t.Run("without a key token storage is disabled", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFundService(t, db)

		// Execute
		err := svc.SetProviderToken("api-token-123")

		// Assert
		if err == nil {
			t.Error("Expected an error when no encryption key is configured")
		}
	})
}
