package dto

// Visitor carries the analytics identity read from the request cookies.
type Visitor struct {
	SessionID string
	IP        string
	UserAgent string
}

type CaptureRequest struct {
	Email   string  `json:"email"`
	Variant string  `json:"variant"`
	Section string  `json:"section"`
	CTAText string  `json:"cta_text"`
	Visitor Visitor `json:"-"`
}

type CaptureData struct {
	Email                string `json:"email"`
	Variant              string `json:"variant"`
	Section              string `json:"section"`
	VerificationRequired bool   `json:"verificationRequired"`
}

type CaptureResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    CaptureData `json:"data"`
}
