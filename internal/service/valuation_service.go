package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/jkoster/folio-backend/internal/daterange"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
)

// Share counts are accumulated as float64; positions below this are dust
// left over from rounding, not real holdings.
const shareEpsilon = 1e-9

// ValuationService computes portfolio valuations on demand by replaying all
// transactions, dividends and fund prices. It is deterministic for fixed
// underlying data: the same inputs always produce the same day records.
//
// This is the slow path. One call covers roughly 50ms for a year of history,
// against single-digit milliseconds when the same range is served from the
// materialized table.
type ValuationService struct {
	portfolioRepo   *repository.PortfolioRepository
	fundRepo        *repository.FundRepository
	transactionRepo *repository.TransactionRepository
	dividendRepo    *repository.DividendRepository
}

// NewValuationService creates a new ValuationService with the provided repository dependencies.
func NewValuationService(
	portfolioRepo *repository.PortfolioRepository,
	fundRepo *repository.FundRepository,
	transactionRepo *repository.TransactionRepository,
	dividendRepo *repository.DividendRepository,
) *ValuationService {
	return &ValuationService{
		portfolioRepo:   portfolioRepo,
		fundRepo:        fundRepo,
		transactionRepo: transactionRepo,
		dividendRepo:    dividendRepo,
	}
}

// positionState tracks the running holdings of one portfolio fund during replay.
type positionState struct {
	pfID   string
	fundID string
	shares float64
	cost   float64

	transactions []model.Transaction
	txIdx        int
}

// priceState tracks the carry-forward price of one fund during replay.
type priceState struct {
	prices []model.FundPrice
	idx    int
	last   float64
	known  bool
}

// OldestActivityDate returns the earliest transaction or ex-dividend date for
// the portfolio, or the zero time if the portfolio has no activity at all.
func (s *ValuationService) OldestActivityDate(portfolioID string) (time.Time, error) {
	pfs, err := s.portfolioRepo.GetPortfolioFundsOnPortfolioID(portfolioID)
	if err != nil {
		return time.Time{}, err
	}

	pfIDs := make([]string, len(pfs))
	for i, pf := range pfs {
		pfIDs[i] = pf.ID
	}

	oldestTx := s.transactionRepo.GetOldestTransactionDate(pfIDs)
	oldestDiv := s.dividendRepo.GetOldestExDividendDate(pfIDs)

	switch {
	case oldestTx.IsZero():
		return oldestDiv, nil
	case oldestDiv.IsZero():
		return oldestTx, nil
	case oldestDiv.Before(oldestTx):
		return oldestDiv, nil
	default:
		return oldestTx, nil
	}
}

// ComputeHistory values the portfolio for every calendar day in [start, end],
// returning one tagged result per day: Ok with a record, or Skip with a
// reason when a day cannot be valued (holdings exist but no price is known
// on or before that day).
//
// Share counts and cost basis depend on every prior booking, so the replay
// always starts at the portfolio's first activity even when the requested
// start is later; only days within [start, end] are emitted.
func (s *ValuationService) ComputeHistory(portfolioID string, start, end time.Time) ([]model.DayResult, error) {
	start, end = daterange.Normalize(start), daterange.Normalize(end)

	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return nil, err
	}

	pfs, err := s.portfolioRepo.GetPortfolioFundsOnPortfolioID(portfolioID)
	if err != nil {
		return nil, err
	}

	pfIDs := make([]string, len(pfs))
	fundIDs := make([]string, 0, len(pfs))
	seenFunds := make(map[string]bool)
	for i, pf := range pfs {
		pfIDs[i] = pf.ID
		if !seenFunds[pf.FundID] {
			seenFunds[pf.FundID] = true
			fundIDs = append(fundIDs, pf.FundID)
		}
	}

	oldestTx := s.transactionRepo.GetOldestTransactionDate(pfIDs)
	oldestDiv := s.dividendRepo.GetOldestExDividendDate(pfIDs)
	oldest := oldestActivity(oldestTx, oldestDiv)
	if oldest.IsZero() {
		// No activity: nothing to value.
		return []model.DayResult{}, nil
	}

	replayStart := oldest
	if start.Before(replayStart) {
		replayStart = start
	}

	txByPF, err := s.transactionRepo.GetTransactions(pfIDs, end)
	if err != nil {
		return nil, err
	}

	divByPF, err := s.dividendRepo.GetDividends(pfIDs, end)
	if err != nil {
		return nil, err
	}

	pricesByFund, err := s.fundRepo.GetPrices(fundIDs, end)
	if err != nil {
		return nil, err
	}

	positions := make([]*positionState, len(pfs))
	for i, pf := range pfs {
		positions[i] = &positionState{
			pfID:         pf.ID,
			fundID:       pf.FundID,
			transactions: txByPF[pf.ID],
		}
	}

	priceStates := make(map[string]*priceState, len(fundIDs))
	for _, fundID := range fundIDs {
		priceStates[fundID] = &priceState{prices: pricesByFund[fundID]}
	}

	dividends := flattenDividends(divByPF)

	var (
		realized      float64
		saleProceeds  float64
		originalCost  float64
		dividendTotal float64
		divIdx        int
	)

	results := make([]model.DayResult, 0, daterange.Days(start, end))

	it := daterange.New(replayStart, end)
	for day, ok := it.Next(); ok; day, ok = it.Next() {

		// Apply this day's transactions to the running positions.
		for _, pos := range positions {
			for pos.txIdx < len(pos.transactions) && !pos.transactions[pos.txIdx].Date.After(day) {
				tx := pos.transactions[pos.txIdx]
				pos.txIdx++

				switch tx.Type {
				case model.TransactionBuy:
					amount := tx.Shares * tx.CostPerShare
					pos.shares += tx.Shares
					pos.cost += amount
					originalCost += amount
				case model.TransactionSell:
					proceeds := tx.Shares * tx.CostPerShare
					saleProceeds += proceeds

					var removed float64
					if pos.shares > shareEpsilon {
						removed = (pos.cost / pos.shares) * tx.Shares
					}
					pos.shares -= tx.Shares
					if pos.shares > shareEpsilon {
						pos.cost -= removed
					} else {
						// Position fully closed; any cost left over is
						// rounding residue and counts against the sale.
						removed = pos.cost
						pos.shares = 0
						pos.cost = 0
					}
					realized += proceeds - removed
				case model.TransactionFee:
					pos.cost += tx.CostPerShare
				default:
					return nil, fmt.Errorf("unknown transaction type %q on transaction %s", tx.Type, tx.ID)
				}
			}
		}

		// Carry the latest known price forward.
		for _, ps := range priceStates {
			for ps.idx < len(ps.prices) && !ps.prices[ps.idx].Date.After(day) {
				ps.last = ps.prices[ps.idx].Price
				ps.known = true
				ps.idx++
			}
		}

		// Dividends count from their ex-dividend date onward.
		for divIdx < len(dividends) && !dividends[divIdx].ExDividendDate.After(day) {
			dividendTotal += dividends[divIdx].TotalAmount
			divIdx++
		}

		if day.Before(start) {
			continue
		}

		var value, cost float64
		skipReason := ""
		for _, pos := range positions {
			if pos.shares <= shareEpsilon {
				continue
			}
			cost += pos.cost

			ps := priceStates[pos.fundID]
			if !ps.known {
				skipReason = fmt.Sprintf("no price for fund %s on or before %s", pos.fundID, daterange.Key(day))
				break
			}
			value += pos.shares * ps.last
		}

		if skipReason != "" {
			results = append(results, model.DayResult{
				Date:       day,
				Skipped:    true,
				SkipReason: skipReason,
			})
			continue
		}

		results = append(results, model.DayResult{
			Date: day,
			Record: model.HistoryRecord{
				PortfolioID:       portfolioID,
				Date:              day,
				Value:             value,
				Cost:              cost,
				RealizedGain:      realized,
				UnrealizedGain:    value - cost,
				TotalDividends:    dividendTotal,
				TotalSaleProceeds: saleProceeds,
				TotalOriginalCost: originalCost,
				TotalGainLoss:     realized + (value - cost),
				IsArchived:        portfolio.IsArchived,
			},
		})
	}

	return results, nil
}

// oldestActivity returns the earlier of two dates, ignoring zero values.
func oldestActivity(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}

// flattenDividends merges the per-portfolio-fund dividend groups into one
// slice sorted by ex-dividend date, for single-pointer cumulative iteration.
func flattenDividends(divByPF map[string][]model.Dividend) []model.Dividend {
	var all []model.Dividend
	for _, divs := range divByPF {
		all = append(all, divs...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ExDividendDate.Before(all[j].ExDividendDate)
	})
	return all
}
