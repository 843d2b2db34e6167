package domain

import "errors"

var (
	ErrValidation            = errors.New("validation error")
	ErrDuplicateRegistration = errors.New("email already registered for this variant")
	ErrInvalidToken          = errors.New("invalid verification token")
	ErrTokenExpired          = errors.New("verification token has expired")
	ErrPersistence           = errors.New("persistence error")
	ErrDelivery              = errors.New("verification email could not be sent")
	ErrNotConfigured         = errors.New("server configuration error")
)

// ErrorCode maps an error to the code clients switch on.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDuplicateRegistration):
		return "duplicate_registration"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrDelivery):
		return "delivery_error"
	case errors.Is(err, ErrNotConfigured):
		return "configuration_error"
	default:
		return "persistence_error"
	}
}
