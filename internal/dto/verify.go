package dto

type VerifyData struct {
	Email           string `json:"email"`
	Variant         string `json:"variant"`
	Section         string `json:"section"`
	VerifiedAt      string `json:"verified_at,omitempty"`
	AlreadyVerified bool   `json:"already_verified,omitempty"`
}

type VerifyResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    VerifyData `json:"data"`
}
