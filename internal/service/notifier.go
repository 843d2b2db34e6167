package service

import "context"

type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, variant, verificationURL string) error
}
