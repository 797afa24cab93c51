package model

import "time"

// Dividend represents a dividend payment received for a portfolio fund.
// The ex-dividend date anchors all date-based bookkeeping: cumulative dividend
// aggregates count a dividend from its ex-dividend date onward.
type Dividend struct {
	ID               string    `json:"id"`
	PortfolioFundID  string    `json:"portfolioFundId"`
	FundID           string    `json:"fundId"`
	RecordDate       time.Time `json:"recordDate"`
	ExDividendDate   time.Time `json:"exDividendDate"`
	SharesOwned      float64   `json:"sharesOwned"`
	DividendPerShare float64   `json:"dividendPerShare"`
	TotalAmount      float64   `json:"totalAmount"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}
