package dto

// ErrorResponse is the body of every non-2xx JSON answer. Data carries the
// stored record when the failure happened after it was persisted.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Data  any    `json:"data,omitempty"`
}
