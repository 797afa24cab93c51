package service

import (
	"sort"
	"time"

	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
)

// HistoryService is the single public read path for portfolio history.
//
// It routes each request to the materialized table when coverage is complete
// (fast path) and to the valuation engine otherwise (slow path). Both paths
// return the same answer for the same underlying data; materialization only
// changes latency, never content.
type HistoryService struct {
	historyRepo *repository.HistoryRepository
	coverage    *CoverageChecker
	valuation   *ValuationService
}

// NewHistoryService creates a new HistoryService with the provided dependencies.
func NewHistoryService(
	historyRepo *repository.HistoryRepository,
	coverage *CoverageChecker,
	valuation *ValuationService,
) *HistoryService {
	return &HistoryService{
		historyRepo: historyRepo,
		coverage:    coverage,
		valuation:   valuation,
	}
}

// GetPortfolioHistory returns one record per portfolio per day in the
// inclusive range, ordered by date, then portfolio.
//
// With useMaterialized set, the coverage checker decides the path: full
// coverage for every requested portfolio serves stored snapshots directly;
// any gap anywhere sends the entire request through the valuation engine.
// There is no splicing of materialized and computed days within one request:
// cumulative day aggregates computed in two passes invite boundary bugs, so
// a partially covered range is recomputed wholesale.
//
// The slow path never persists what it computes. Persistence is the
// materializer's job; keeping writes off the read path keeps read latency
// predictable.
func (s *HistoryService) GetPortfolioHistory(
	portfolioIDs []string,
	start, end time.Time,
	useMaterialized bool,
) ([]model.HistoryRecord, error) {
	start, end = daterange.Normalize(start), daterange.Normalize(end)

	if useMaterialized {
		coverage, err := s.coverage.CheckCoverage(portfolioIDs, start, end)
		if err != nil {
			return nil, err
		}

		if coverage.Complete {
			stored, err := s.historyRepo.Query(portfolioIDs, start, end)
			if err != nil {
				return nil, err
			}

			records := make([]model.HistoryRecord, len(stored))
			for i, record := range stored {
				records[i] = record.HistoryRecord
			}
			return records, nil
		}
	}

	return s.computeHistory(portfolioIDs, start, end)
}

// computeHistory is the slow path: run the valuation engine per portfolio
// over the full range and interleave the results in date order.
func (s *HistoryService) computeHistory(portfolioIDs []string, start, end time.Time) ([]model.HistoryRecord, error) {
	byDate := make(map[string][]model.HistoryRecord)

	for _, portfolioID := range portfolioIDs {
		results, err := s.valuation.ComputeHistory(portfolioID, start, end)
		if err != nil {
			return nil, err
		}

		for _, day := range results {
			if day.Skipped {
				continue
			}
			key := daterange.Key(day.Date)
			byDate[key] = append(byDate[key], day.Record)
		}
	}

	records := []model.HistoryRecord{}
	it := daterange.New(start, end)
	for day, ok := it.Next(); ok; day, ok = it.Next() {
		dayRecords := byDate[daterange.Key(day)]
		sort.Slice(dayRecords, func(i, j int) bool {
			return dayRecords[i].PortfolioID < dayRecords[j].PortfolioID
		})
		records = append(records, dayRecords...)
	}

	return records, nil
}

// CheckCoverage exposes the coverage verdict, mainly for the operational CLI.
func (s *HistoryService) CheckCoverage(portfolioIDs []string, start, end time.Time) (model.CoverageResult, error) {
	return s.coverage.CheckCoverage(portfolioIDs, start, end)
}

// Stats returns the read-only operational view of the materialized table:
// row count, portfolios covered and the stored date span.
func (s *HistoryService) Stats() (model.HistoryStats, error) {
	return s.historyRepo.Stats()
}
