package model

import "time"

// HistoryRecord is the valuation of one portfolio on one calendar day.
// It is the unit of data served by the history query path, regardless of
// whether it came from the materialized table or an on-demand calculation.
//
// TotalOriginalCost is the cumulative cost of everything ever bought, while
// Cost reflects only currently-held positions.
type HistoryRecord struct {
	PortfolioID       string    `json:"portfolioId"`
	Date              time.Time `json:"date"`
	Value             float64   `json:"value"`
	Cost              float64   `json:"cost"`
	RealizedGain      float64   `json:"realizedGain"`
	UnrealizedGain    float64   `json:"unrealizedGain"`
	TotalDividends    float64   `json:"totalDividends"`
	TotalSaleProceeds float64   `json:"totalSaleProceeds"`
	TotalOriginalCost float64   `json:"totalOriginalCost"`
	TotalGainLoss     float64   `json:"totalGainLoss"`
	IsArchived        bool      `json:"isArchived"`
}

// MaterializedRecord is a HistoryRecord as stored in the materialized table,
// with its row identity and calculation timestamp. Records are derived,
// disposable cache entries: every one can be regenerated from transactions,
// dividends and fund prices, so deleting them never loses information.
type MaterializedRecord struct {
	ID           string
	CalculatedAt time.Time
	HistoryRecord
}

// DayResult is the outcome of valuing one portfolio for one day. A result is
// either a record or a skip with a reason (typically a fund with holdings but
// no known price yet); it is never both.
type DayResult struct {
	Date       time.Time
	Record     HistoryRecord
	Skipped    bool
	SkipReason string
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PortfolioCoverage describes how completely the materialized table covers
// one portfolio over a requested range.
type PortfolioCoverage struct {
	PortfolioID string      `json:"portfolioId"`
	Complete    bool        `json:"complete"`
	Missing     []DateRange `json:"missing,omitempty"`
}

// CoverageResult is the verdict for a set of portfolios over a range.
// Complete is the AND across all portfolios; an empty portfolio set is
// vacuously complete.
type CoverageResult struct {
	Start      time.Time           `json:"start"`
	End        time.Time           `json:"end"`
	Complete   bool                `json:"complete"`
	Portfolios []PortfolioCoverage `json:"portfolios"`
}

// MaterializeSummary reports what a materialization run actually did.
type MaterializeSummary struct {
	PortfolioID string    `json:"portfolioId,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Written     int       `json:"written"`
	Existing    int       `json:"existing"`
	Skipped     int       `json:"skipped"`
	Portfolios  int       `json:"portfolios,omitempty"`
	Failed      int       `json:"failed,omitempty"`
}

// HistoryStats is the read-only operational view of the materialized table.
type HistoryStats struct {
	TotalRecords   int       `json:"totalRecords"`
	PortfolioCount int       `json:"portfolioCount"`
	OldestDate     time.Time `json:"oldestDate"`
	NewestDate     time.Time `json:"newestDate"`
}
