package exchange

// ExchangeRateAPIResponse is the open.er-api.com latest-rates payload.
type ExchangeRateAPIResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}
