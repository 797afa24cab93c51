package service

import (
	"context"
	"time"

	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
)

// HistoryInvalidator is the narrow interface mutation services depend on.
// Every write path that changes a fact the materialized history is derived
// from (transactions, dividends, fund prices) receives one of these by
// constructor injection, which keeps the "who invalidates the cache"
// relationship auditable and lets tests substitute a failing implementation.
type HistoryInvalidator interface {
	// InvalidateFromTransaction discards snapshots of the transaction's
	// portfolio from the transaction date forward.
	InvalidateFromTransaction(ctx context.Context, tx model.Transaction) error

	// InvalidateFromDividend discards snapshots of the dividend's portfolio.
	// For updates both the old and new state are passed; for creates old is
	// nil and for deletes new is nil. When an update moves the ex-dividend
	// date, invalidation starts at the earlier of the two dates so no stale
	// hole is left between them.
	InvalidateFromDividend(ctx context.Context, oldDividend, newDividend *model.Dividend) error

	// InvalidateFromPriceUpdate discards snapshots from priceDate forward
	// for every portfolio holding the fund.
	InvalidateFromPriceUpdate(ctx context.Context, fundID string, priceDate time.Time) error
}

// Invalidator translates domain mutation events into deletions of derived
// snapshots. Deleting is always safe: materialized rows carry no information
// of their own and are rebuilt from source data on the next materialize run,
// or served via the slow path until then.
type Invalidator struct {
	historyRepo   *repository.HistoryRepository
	portfolioRepo *repository.PortfolioRepository
	materializer  *Materializer
}

// NewInvalidator creates a new Invalidator with the provided dependencies.
func NewInvalidator(
	historyRepo *repository.HistoryRepository,
	portfolioRepo *repository.PortfolioRepository,
	materializer *Materializer,
) *Invalidator {
	return &Invalidator{
		historyRepo:   historyRepo,
		portfolioRepo: portfolioRepo,
		materializer:  materializer,
	}
}

// Invalidate is the generic primitive: delete all snapshots for the
// portfolio from fromDate forward. Every subsequent day's cumulative
// aggregates depend on the changed fact, so forward deletion is always the
// right scope. With recalculate set the affected range is rebuilt
// immediately instead of lazily on the next read.
func (i *Invalidator) Invalidate(ctx context.Context, portfolioID string, fromDate time.Time, recalculate bool) error {
	fromDate = daterange.Normalize(fromDate)

	if err := i.historyRepo.DeleteFrom(portfolioID, fromDate); err != nil {
		return err
	}

	if recalculate {
		if _, err := i.materializer.MaterializePortfolio(ctx, portfolioID, &fromDate, nil, true); err != nil {
			return err
		}
	}

	return nil
}

// InvalidateAll wipes every snapshot for a portfolio. Used for full
// recomputes and portfolio deletion cleanup.
func (i *Invalidator) InvalidateAll(portfolioID string) error {
	return i.historyRepo.DeleteAll(portfolioID)
}

// InvalidateFromTransaction resolves the portfolio owning the transaction's
// portfolio-fund and invalidates from the transaction date forward.
func (i *Invalidator) InvalidateFromTransaction(ctx context.Context, tx model.Transaction) error {
	pf, err := i.portfolioRepo.GetPortfolioFund(tx.PortfolioFundID)
	if err != nil {
		return err
	}

	return i.Invalidate(ctx, pf.PortfolioID, tx.Date, false)
}

// InvalidateFromDividend invalidates the owning portfolio from the earliest
// involved ex-dividend date forward.
func (i *Invalidator) InvalidateFromDividend(ctx context.Context, oldDividend, newDividend *model.Dividend) error {
	anchor := newDividend
	if anchor == nil {
		anchor = oldDividend
	}
	if anchor == nil {
		return nil
	}

	fromDate := anchor.ExDividendDate
	if oldDividend != nil && oldDividend.ExDividendDate.Before(fromDate) {
		fromDate = oldDividend.ExDividendDate
	}
	if newDividend != nil && newDividend.ExDividendDate.Before(fromDate) {
		fromDate = newDividend.ExDividendDate
	}

	pf, err := i.portfolioRepo.GetPortfolioFund(anchor.PortfolioFundID)
	if err != nil {
		return err
	}

	return i.Invalidate(ctx, pf.PortfolioID, fromDate, false)
}

// InvalidateFromPriceUpdate fans out to every portfolio holding the fund.
// A portfolio that never held the fund is untouched.
func (i *Invalidator) InvalidateFromPriceUpdate(ctx context.Context, fundID string, priceDate time.Time) error {
	portfolios, err := i.portfolioRepo.GetPortfoliosByFundID(fundID)
	if err != nil {
		return err
	}

	for _, portfolio := range portfolios {
		if err := i.Invalidate(ctx, portfolio.ID, priceDate, false); err != nil {
			return err
		}
	}

	return nil
}
