package request

// MaterializeRequest triggers a materialization run. An empty PortfolioID
// materializes all portfolios.
type MaterializeRequest struct {
	PortfolioID      string `json:"portfolioId,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
	EndDate          string `json:"endDate,omitempty"`
	ForceRecalculate bool   `json:"forceRecalculate,omitempty"`
}

// InvalidateRequest manually discards materialized history for a portfolio
// from FromDate forward, optionally rebuilding it immediately.
type InvalidateRequest struct {
	PortfolioID string `json:"portfolioId"`
	FromDate    string `json:"fromDate"`
	Recalculate bool   `json:"recalculate,omitempty"`
}
