package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"localsphere/internal/domain"
	"localsphere/internal/dto"
	"localsphere/internal/events"
	"localsphere/internal/observability/metrics"
	"localsphere/internal/observability/middleware"
	"localsphere/internal/service"
	"localsphere/internal/store"
	"localsphere/internal/token"
)

// tokenAttempts bounds retries when a fresh token hits the token unique index.
const tokenAttempts = 3

type CaptureServiceImpl struct {
	Store    captureStore
	Notifier service.Notifier
	Events   events.Publisher
	Tokens   tokenSource
	AppURL   string
	TokenTTL time.Duration
	Now      func() time.Time
}

type captureStore interface {
	InsertIfAbsent(ctx context.Context, c *domain.EmailCapture) (bool, error)
	FindByToken(ctx context.Context, token string) (*domain.EmailCapture, error)
	SetVerified(ctx context.Context, token string, at time.Time) (bool, error)
	Stats(ctx context.Context) (*domain.CaptureStats, error)
}

type tokenSource interface {
	New(email, variant string) (string, error)
}

// NewCaptureServiceImpl wires the gorm store. Any of st, notifier or appURL
// may be missing; requests then fail with a configuration error.
func NewCaptureServiceImpl(st *store.Store, notifier service.Notifier, pub events.Publisher, appURL string, ttl time.Duration) *CaptureServiceImpl {
	s := &CaptureServiceImpl{
		Notifier: notifier,
		Events:   pub,
		Tokens:   token.NewGenerator(),
		AppURL:   appURL,
		TokenTTL: ttl,
		Now:      func() time.Time { return time.Now().UTC() },
	}
	if st != nil {
		s.Store = st.Captures()
	}
	return s
}

func (s *CaptureServiceImpl) Capture(ctx context.Context, r dto.CaptureRequest) (*dto.CaptureResponse, error) {
	resp, err := s.capture(ctx, r)
	label := "unknown"
	if v, ok := domain.ParseVariant(r.Variant); ok {
		label = v.String()
	}
	metrics.EmailCapturesTotal.WithLabelValues(label, captureResult(err)).Inc()
	return resp, err
}

func (s *CaptureServiceImpl) capture(ctx context.Context, r dto.CaptureRequest) (*dto.CaptureResponse, error) {
	if r.Email == "" || r.Variant == "" || r.Section == "" || r.CTAText == "" {
		return nil, fmt.Errorf("%w: missing required fields: email, variant, section, cta_text", domain.ErrValidation)
	}
	if !domain.ValidEmail(r.Email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrValidation)
	}
	variant, ok := domain.ParseVariant(r.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: invalid variant, must be one of: %s", domain.ErrValidation, domain.VariantList())
	}
	if err := s.checkConfigured(true); err != nil {
		return nil, err
	}

	rec := &domain.EmailCapture{
		Email:       r.Email,
		Variant:     variant.String(),
		Section:     r.Section,
		CTAText:     r.CTAText,
		EmailDomain: domain.EmailDomain(r.Email),
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}

	out := &dto.CaptureResponse{
		Success: true,
		Message: "Verification email sent successfully",
		Data: dto.CaptureData{
			Email:                rec.Email,
			Variant:              rec.Variant,
			Section:              rec.Section,
			VerificationRequired: true,
		},
	}

	link := s.AppURL + "/verify/" + rec.VerificationToken
	if err := s.Notifier.SendVerificationEmail(ctx, rec.Email, rec.Variant, link); err != nil {
		metrics.VerificationEmailsTotal.WithLabelValues(rec.Variant, "failure").Inc()
		slog.Error("verification email failed",
			"capture_id", rec.ID.String(),
			"variant", rec.Variant,
			"error", err,
			"request_id", middleware.RequestIDFromContext(ctx),
			"trace_id", middleware.TraceIDFromContext(ctx),
		)
		// The capture stays stored; the caller learns that delivery failed.
		out.Success = false
		out.Message = "Email captured but the verification email could not be sent"
		return out, fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	metrics.VerificationEmailsTotal.WithLabelValues(rec.Variant, "success").Inc()

	slog.Info("email captured",
		"capture_id", rec.ID.String(),
		"variant", rec.Variant,
		"section", rec.Section,
		"email_domain", rec.EmailDomain,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	s.publish(ctx, events.EmailCaptured{
		CaptureID:   rec.ID.String(),
		SessionID:   r.Visitor.SessionID,
		Variant:     rec.Variant,
		Section:     rec.Section,
		CTAText:     rec.CTAText,
		EmailDomain: rec.EmailDomain,
		At:          rec.CreatedAt,
	}.Event())
	return out, nil
}

// insert stores rec with a fresh token, drawing again when the token index
// reports a clash.
func (s *CaptureServiceImpl) insert(ctx context.Context, rec *domain.EmailCapture) error {
	for attempt := 1; attempt <= tokenAttempts; attempt++ {
		tok, err := s.Tokens.New(rec.Email, rec.Variant)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		rec.VerificationToken = tok
		rec.CreatedAt = s.now()

		inserted, err := s.Store.InsertIfAbsent(ctx, rec)
		switch {
		case errors.Is(err, store.ErrDuplicateKey):
			slog.Warn("verification token clash, retrying", "attempt", attempt,
				"request_id", middleware.RequestIDFromContext(ctx))
			continue
		case err != nil:
			return fmt.Errorf("%w: insert capture: %v", domain.ErrPersistence, err)
		case !inserted:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRegistration, rec.Variant)
		}
		return nil
	}
	return fmt.Errorf("%w: no unique verification token after %d attempts", domain.ErrPersistence, tokenAttempts)
}

func (s *CaptureServiceImpl) VerifyByToken(ctx context.Context, tok string, v dto.Visitor) (*dto.VerifyResponse, error) {
	resp, err := s.verify(ctx, tok, v)
	result := domain.ErrorCode(err)
	switch {
	case err != nil:
	case resp.Data.AlreadyVerified:
		result = "already_verified"
	default:
		result = "verified"
	}
	metrics.EmailVerificationsTotal.WithLabelValues(result).Inc()
	return resp, err
}

func (s *CaptureServiceImpl) verify(ctx context.Context, tok string, v dto.Visitor) (*dto.VerifyResponse, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: verification token is required", domain.ErrValidation)
	}
	if err := s.checkConfigured(false); err != nil {
		return nil, err
	}
	if !token.Valid(tok) {
		return nil, domain.ErrInvalidToken
	}

	rec, err := s.Store.FindByToken(ctx, tok)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find capture: %v", domain.ErrPersistence, err)
	}
	if rec.Verified {
		return verifiedResponse(rec, true), nil
	}

	now := s.now()
	if rec.Expired(now, s.ttl()) {
		return nil, domain.ErrTokenExpired
	}

	updated, err := s.Store.SetVerified(ctx, tok, now)
	if err != nil {
		return nil, fmt.Errorf("%w: mark verified: %v", domain.ErrPersistence, err)
	}
	if !updated {
		// Another request won the transition; report its result.
		rec, err = s.Store.FindByToken(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("%w: reload capture: %v", domain.ErrPersistence, err)
		}
		return verifiedResponse(rec, true), nil
	}

	rec.Verified = true
	rec.VerifiedAt = &now
	slog.Info("email verified",
		"capture_id", rec.ID.String(),
		"variant", rec.Variant,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	s.publish(ctx, events.EmailVerified{
		CaptureID: rec.ID.String(),
		SessionID: v.SessionID,
		Variant:   rec.Variant,
		Section:   rec.Section,
		At:        now,
	}.Event())
	return verifiedResponse(rec, false), nil
}

func (s *CaptureServiceImpl) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("%w: record store", domain.ErrNotConfigured)
	}
	st, err := s.Store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", domain.ErrPersistence, err)
	}
	return &dto.StatsResponse{Total: st.Total, Verified: st.Verified, Variants: st.Variants}, nil
}

func (s *CaptureServiceImpl) checkConfigured(delivery bool) error {
	var missing []string
	if s.Store == nil {
		missing = append(missing, "record store")
	}
	if delivery {
		if s.Notifier == nil {
			missing = append(missing, "RESEND_API_KEY")
		}
		if s.AppURL == "" {
			missing = append(missing, "APP_URL")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", domain.ErrNotConfigured, missing)
	}
	return nil
}

func (s *CaptureServiceImpl) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	// Sinks log their own failures; analytics never changes the outcome.
	_ = s.Events.Publish(ctx, ev)
}

func (s *CaptureServiceImpl) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CaptureServiceImpl) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return 24 * time.Hour
}

func verifiedResponse(rec *domain.EmailCapture, already bool) *dto.VerifyResponse {
	out := &dto.VerifyResponse{
		Success: true,
		Message: "Email verified successfully",
		Data: dto.VerifyData{
			Email:           rec.Email,
			Variant:         rec.Variant,
			Section:         rec.Section,
			AlreadyVerified: already,
		},
	}
	if already {
		out.Message = "Email already verified"
	}
	if rec.VerifiedAt != nil {
		out.Data.VerifiedAt = rec.VerifiedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func captureResult(err error) string {
	if err == nil {
		return "captured"
	}
	return domain.ErrorCode(err)
}
