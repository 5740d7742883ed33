package router

// apiSwapRequest is the wire format for POST /v1/swap.
type apiSwapRequest struct {
	Wallet      string  `json:"wallet"`
	InputToken  string  `json:"inputToken"`
	OutputToken string  `json:"outputToken"`
	Amount      float64 `json:"amount"`
	SlippageBps int     `json:"slippageBps"`
}

// apiSwapResponse is the wire format of a swap result.
type apiSwapResponse struct {
	Success   bool    `json:"success"`
	FillPrice float64 `json:"fillPrice"`
	AmountOut float64 `json:"amountOut"`
	TxHash    string  `json:"txHash"`
	ErrorMsg  string  `json:"errorMsg"`
}

// apiError is the error envelope returned on non-2xx responses.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
