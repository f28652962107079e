package httpapi

// ErrorBody 失败响应
type ErrorBody struct {
	Error string `json:"error"`
}

// ValidateRoundsRequest POST /validate-rounds 的请求体（可省略）
type ValidateRoundsRequest struct {
	Cadence string `json:"cadence"`
}
