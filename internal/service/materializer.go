package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
)

// Portfolios materialized concurrently during a batch run. Each portfolio's
// day range is owned by exactly one worker, so no two workers ever upsert the
// same (portfolio, date) key.
const materializeWorkers = 4

// Materializer populates and refreshes the materialized history table by
// running the valuation engine and upserting its day records.
//
// Each day's upsert commits independently. An interrupted run leaves days
// written so far correctly materialized and the remainder simply missing,
// which the coverage checker detects as a gap on the next read.
type Materializer struct {
	historyRepo   *repository.HistoryRepository
	portfolioRepo *repository.PortfolioRepository
	valuation     *ValuationService
}

// NewMaterializer creates a new Materializer with the provided dependencies.
func NewMaterializer(
	historyRepo *repository.HistoryRepository,
	portfolioRepo *repository.PortfolioRepository,
	valuation *ValuationService,
) *Materializer {
	return &Materializer{
		historyRepo:   historyRepo,
		portfolioRepo: portfolioRepo,
		valuation:     valuation,
	}
}

// MaterializePortfolio computes and stores daily snapshots for one portfolio.
//
// A nil start defaults to the portfolio's earliest transaction or dividend
// date; a nil end defaults to today. A portfolio with no activity
// materializes nothing. Unless forceRecalculate is set, days already present
// in the store are left untouched and only gaps are filled.
//
// Days the valuation engine tags as skipped (typically missing price data)
// are logged and counted, never fatal: one bad day must not abort the batch.
func (m *Materializer) MaterializePortfolio(
	ctx context.Context,
	portfolioID string,
	start, end *time.Time,
	forceRecalculate bool,
) (model.MaterializeSummary, error) {

	summary := model.MaterializeSummary{PortfolioID: portfolioID}

	rangeStart, rangeEnd, empty, err := m.resolveRange(portfolioID, start, end)
	if err != nil {
		return summary, err
	}
	if empty {
		return summary, nil
	}
	summary.Start, summary.End = rangeStart, rangeEnd

	existing := map[string]bool{}
	if !forceRecalculate {
		existing, err = m.historyRepo.ExistingDates(portfolioID, rangeStart, rangeEnd)
		if err != nil {
			return summary, err
		}
	}

	results, err := m.valuation.ComputeHistory(portfolioID, rangeStart, rangeEnd)
	if err != nil {
		return summary, err
	}

	for _, day := range results {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if day.Skipped {
			log.Printf("materialize: skipping %s for portfolio %s: %s",
				daterange.Key(day.Date), portfolioID, day.SkipReason)
			summary.Skipped++
			continue
		}

		if existing[daterange.Key(day.Date)] {
			summary.Existing++
			continue
		}

		if err := m.historyRepo.Upsert(day.Record); err != nil {
			return summary, err
		}
		summary.Written++
	}

	return summary, nil
}

// MaterializeAll runs MaterializePortfolio for every known portfolio,
// archived ones included: archived portfolios still need historical
// snapshots.
//
// Per-portfolio failures are isolated; one portfolio's engine error is
// logged and counted without stopping the others. The run is cancellable:
// cancellation is honored at the per-portfolio boundary and, through the
// per-day context check, mid-portfolio as well.
func (m *Materializer) MaterializeAll(ctx context.Context, forceRecalculate bool) (model.MaterializeSummary, error) {
	portfolios, err := m.portfolioRepo.GetPortfolios(model.PortfolioFilter{IncludeArchived: true})
	if err != nil {
		// Nothing to iterate without the portfolio list.
		return model.MaterializeSummary{}, err
	}

	var mu sync.Mutex
	aggregate := model.MaterializeSummary{Portfolios: len(portfolios)}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(materializeWorkers)

	for _, portfolio := range portfolios {
		portfolio := portfolio
		if err := groupCtx.Err(); err != nil {
			break
		}

		group.Go(func() error {
			summary, err := m.MaterializePortfolio(groupCtx, portfolio.ID, nil, nil, forceRecalculate)

			mu.Lock()
			defer mu.Unlock()
			aggregate.Written += summary.Written
			aggregate.Existing += summary.Existing
			aggregate.Skipped += summary.Skipped
			if aggregate.Start.IsZero() || (!summary.Start.IsZero() && summary.Start.Before(aggregate.Start)) {
				aggregate.Start = summary.Start
			}
			if summary.End.After(aggregate.End) {
				aggregate.End = summary.End
			}

			if err != nil {
				if groupCtx.Err() != nil {
					return err
				}
				log.Printf("materialize: portfolio %s failed: %v", portfolio.ID, err)
				aggregate.Failed++
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return aggregate, err
	}

	return aggregate, nil
}

// resolveRange applies the default-range rules. The empty flag is set when
// the portfolio has no activity and no explicit start, meaning there is
// nothing to materialize.
func (m *Materializer) resolveRange(portfolioID string, start, end *time.Time) (time.Time, time.Time, bool, error) {
	// Existence check up front so a bad ID fails loudly, not as an empty range.
	if _, err := m.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return time.Time{}, time.Time{}, false, err
	}

	var rangeStart time.Time
	if start != nil {
		rangeStart = daterange.Normalize(*start)
	} else {
		oldest, err := m.valuation.OldestActivityDate(portfolioID)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		if oldest.IsZero() {
			return time.Time{}, time.Time{}, true, nil
		}
		rangeStart = daterange.Normalize(oldest)
	}

	rangeEnd := daterange.Normalize(time.Now().UTC())
	if end != nil {
		rangeEnd = daterange.Normalize(*end)
	}

	if rangeStart.After(rangeEnd) {
		return time.Time{}, time.Time{}, true, nil
	}

	return rangeStart, rangeEnd, false, nil
}
