package service

import (
	"time"

	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
)

// CoverageChecker decides fast-path eligibility: whether the materialized
// table holds a snapshot for every calendar day of a requested range, for
// every requested portfolio.
//
// Coverage is over calendar days, not trading days. The materializer stores
// one row per day regardless of market closure (the valuation engine carries
// the prior price forward), so downstream charting always gets one point per
// day and a gap always means missing data, never a weekend.
type CoverageChecker struct {
	historyRepo *repository.HistoryRepository
}

// NewCoverageChecker creates a new CoverageChecker with the provided repository.
func NewCoverageChecker(historyRepo *repository.HistoryRepository) *CoverageChecker {
	return &CoverageChecker{historyRepo: historyRepo}
}

// CheckCoverage reports, per portfolio, whether every day in [start, end] has
// a materialized snapshot, and which sub-ranges are missing if not. The
// overall verdict is the AND across all portfolios.
//
// An empty portfolio list is vacuously complete. This is intentional: a
// request for no portfolios has nothing left to compute, on either path.
func (c *CoverageChecker) CheckCoverage(portfolioIDs []string, start, end time.Time) (model.CoverageResult, error) {
	start, end = daterange.Normalize(start), daterange.Normalize(end)

	result := model.CoverageResult{
		Start:      start,
		End:        end,
		Complete:   true,
		Portfolios: make([]model.PortfolioCoverage, 0, len(portfolioIDs)),
	}

	for _, portfolioID := range portfolioIDs {
		existing, err := c.historyRepo.ExistingDates(portfolioID, start, end)
		if err != nil {
			return model.CoverageResult{}, err
		}

		coverage := model.PortfolioCoverage{
			PortfolioID: portfolioID,
			Complete:    true,
			Missing:     missingRanges(existing, start, end),
		}
		if len(coverage.Missing) > 0 {
			coverage.Complete = false
			result.Complete = false
		}

		result.Portfolios = append(result.Portfolios, coverage)
	}

	return result, nil
}

// missingRanges walks every day of [start, end] and collapses days absent
// from the existing set into contiguous ranges.
func missingRanges(existing map[string]bool, start, end time.Time) []model.DateRange {
	var missing []model.DateRange
	var open *model.DateRange

	it := daterange.New(start, end)
	for day, ok := it.Next(); ok; day, ok = it.Next() {
		if existing[daterange.Key(day)] {
			open = nil
			continue
		}
		if open == nil {
			missing = append(missing, model.DateRange{Start: day, End: day})
			open = &missing[len(missing)-1]
		} else {
			open.End = day
		}
	}

	return missing
}
