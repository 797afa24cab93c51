package testutil

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
	"github.com/jkoster/folio-backend/internal/service"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(b)
}

// MakeISIN generates a realistic ISIN code for testing.
func MakeISIN(prefix string) string {
	if prefix == "" {
		prefix = "US"
	}
	return prefix + randomAlphanumeric(10)
}

// Date is shorthand for a midnight-UTC day in tests.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewHistoryRepository(db),
	)
}

func NewTestValuationService(t *testing.T, db *sql.DB) *service.ValuationService {
	t.Helper()

	return service.NewValuationService(
		repository.NewPortfolioRepository(db),
		repository.NewFundRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewDividendRepository(db),
	)
}

func NewTestMaterializer(t *testing.T, db *sql.DB) *service.Materializer {
	t.Helper()

	return service.NewMaterializer(
		repository.NewHistoryRepository(db),
		repository.NewPortfolioRepository(db),
		NewTestValuationService(t, db),
	)
}

func NewTestInvalidator(t *testing.T, db *sql.DB) *service.Invalidator {
	t.Helper()

	return service.NewInvalidator(
		repository.NewHistoryRepository(db),
		repository.NewPortfolioRepository(db),
		NewTestMaterializer(t, db),
	)
}

func NewTestHistoryService(t *testing.T, db *sql.DB) *service.HistoryService {
	t.Helper()

	historyRepo := repository.NewHistoryRepository(db)

	return service.NewHistoryService(
		historyRepo,
		service.NewCoverageChecker(historyRepo),
		NewTestValuationService(t, db),
	)
}

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		repository.NewTransactionRepository(db),
		NewTestInvalidator(t, db),
	)
}

func NewTestDividendService(t *testing.T, db *sql.DB) *service.DividendService {
	t.Helper()

	return service.NewDividendService(
		repository.NewDividendRepository(db),
		repository.NewPortfolioRepository(db),
		NewTestInvalidator(t, db),
	)
}

func NewTestFundService(t *testing.T, db *sql.DB) *service.FundService {
	t.Helper()

	return service.NewFundService(
		repository.NewFundRepository(db),
		repository.NewSettingRepository(db),
		NewTestInvalidator(t, db),
		nil,
	)
}

// FailingInvalidator implements service.HistoryInvalidator and fails every
// call. It verifies the contract that mutations commit even when history
// invalidation breaks.
type FailingInvalidator struct {
	Calls int
}

var errInvalidatorBroken = errors.New("invalidator broken")

func (f *FailingInvalidator) InvalidateFromTransaction(ctx context.Context, tx model.Transaction) error {
	f.Calls++
	return errInvalidatorBroken
}

func (f *FailingInvalidator) InvalidateFromDividend(ctx context.Context, old, updated *model.Dividend) error {
	f.Calls++
	return errInvalidatorBroken
}

func (f *FailingInvalidator) InvalidateFromPriceUpdate(ctx context.Context, fundID string, priceDate time.Time) error {
	f.Calls++
	return errInvalidatorBroken
}
