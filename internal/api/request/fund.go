package request

type CreateFundRequest struct {
	Name     string `json:"name"`
	Isin     string `json:"isin"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// SetPriceRequest records or corrects a fund's closing price for one day.
type SetPriceRequest struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// SetProviderTokenRequest stores the market-data provider API token.
type SetProviderTokenRequest struct {
	Token string `json:"token"`
}
