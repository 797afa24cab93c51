package model

import "time"

// Transaction types accepted by the transaction service.
const (
	TransactionBuy  = "buy"
	TransactionSell = "sell"
	TransactionFee  = "fee"
)

// Transaction represents a buy, sell or fee booking against a portfolio fund.
type Transaction struct {
	ID              string    `json:"id"`
	PortfolioFundID string    `json:"portfolioFundId"`
	Date            time.Time `json:"date"`
	Type            string    `json:"type"`
	Shares          float64   `json:"shares"`
	CostPerShare    float64   `json:"costPerShare"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}
