package model

import "time"

// Fund represents a fund from the database
type Fund struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Isin     string `json:"isin"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// FundPrice is a closing price for a fund on a calendar day.
type FundPrice struct {
	ID     string    `json:"id"`
	FundID string    `json:"fundId"`
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
}
