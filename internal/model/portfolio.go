package model

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsArchived  bool   `json:"isArchived"`
}

// PortfolioFilter controls which portfolios are returned by list queries.
type PortfolioFilter struct {
	IncludeArchived bool
}

// PortfolioFund represents the assignment of a fund to a portfolio.
type PortfolioFund struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolioId"`
	FundID      string `json:"fundId"`
}
