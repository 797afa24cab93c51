package request

// CreatePortfolioRequest represents the request body for creating a portfolio
type CreatePortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdatePortfolioRequest represents the request body for updating a portfolio.
// All fields are optional (use pointers); only provided fields are updated.
type UpdatePortfolioRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsArchived  *bool   `json:"isArchived,omitempty"`
}

// CreatePortfolioFundRequest assigns a fund to a portfolio.
type CreatePortfolioFundRequest struct {
	PortfolioID string `json:"portfolioId"`
	FundID      string `json:"fundId"`
}
