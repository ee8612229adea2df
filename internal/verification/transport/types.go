// Package transport provides HTTP request/response types for the verification domain.
package transport

// VerifyRequest is the HTTP request body for verifying a listing payment.
type VerifyRequest struct {
	TxRef string `json:"tx_ref"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
