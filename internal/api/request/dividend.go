package request

// CreateDividendRequest represents the request body for creating a new dividend.
type CreateDividendRequest struct {
	PortfolioFundID  string  `json:"portfolioFundId"`
	RecordDate       string  `json:"recordDate"`
	ExDividendDate   string  `json:"exDividendDate"`
	SharesOwned      float64 `json:"sharesOwned"`
	DividendPerShare float64 `json:"dividendPerShare"`
}

// UpdateDividendRequest represents the request body for updating an existing dividend.
// All fields are optional (use pointers); only provided fields are updated.
type UpdateDividendRequest struct {
	RecordDate       *string  `json:"recordDate,omitempty"`
	ExDividendDate   *string  `json:"exDividendDate,omitempty"`
	SharesOwned      *float64 `json:"sharesOwned,omitempty"`
	DividendPerShare *float64 `json:"dividendPerShare,omitempty"`
}
