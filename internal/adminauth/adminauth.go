// Package adminauth issues and checks the HS256 bearer tokens that guard
// operator endpoints.
package adminauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"localsphere/internal/httpx"
	"localsphere/internal/observability/metrics"
	obsmw "localsphere/internal/observability/middleware"

	"github.com/golang-jwt/jwt/v5"
)

const ScopeStats = "stats:read"

var ErrNoSecret = errors.New("admin secret not configured")

type Signer struct {
	secret []byte
	Issuer string
}

func NewSigner(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Signer{secret: []byte(secret), Issuer: issuer}, nil
}

// Sign issues a token for sub valid for ttl.
func (s *Signer) Sign(sub string, ttl time.Duration) (string, error) {
	now := time.Now()
	m := jwt.MapClaims{
		"iss":   s.Issuer,
		"sub":   sub,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"scope": ScopeStats,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, m).SignedString(s.secret)
}

type Validator struct {
	secret []byte
	issuer string
}

// NewValidator accepts an empty secret; every request is then refused with a
// configuration error.
func NewValidator(secret, issuer string) *Validator {
	return &Validator{secret: []byte(secret), issuer: issuer}
}

func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := "success"
		defer func() { metrics.AdminAuthAttemptsTotal.WithLabelValues(result).Inc() }()
		reqID := obsmw.RequestIDFromContext(r.Context())
		traceID := obsmw.TraceIDFromContext(r.Context())

		if len(v.secret) == 0 {
			result = "unconfigured"
			httpx.WriteError(w, http.StatusInternalServerError, "admin access is not configured", "configuration_error")
			slog.Error("admin auth without ADMIN_SECRET", "request_id", reqID, "trace_id", traceID)
			return
		}

		raw := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			result = "failure"
			httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token", "unauthorized")
			slog.Warn("admin auth missing bearer", "request_id", reqID, "trace_id", traceID)
			return
		}
		sub, err := v.Verify(strings.TrimSpace(raw[len("Bearer "):]))
		if err != nil {
			result = "failure"
			httpx.WriteError(w, http.StatusUnauthorized, "invalid token", "unauthorized")
			slog.Warn("admin auth invalid token", "error", err, "request_id", reqID, "trace_id", traceID)
			return
		}

		slog.Info("admin auth passed", "subject", sub, "request_id", reqID, "trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(contextWithSubject(r.Context(), sub)))
	})
}

// Verify checks signature, expiry, issuer and scope and returns the subject.
func (v *Validator) Verify(tok string) (string, error) {
	token, err := jwt.Parse(tok, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %T", token.Method)
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	if scope, _ := claims["scope"].(string); scope != ScopeStats {
		return "", fmt.Errorf("missing scope %q", ScopeStats)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("no subject")
	}
	return sub, nil
}

type subjectKey struct{}

func contextWithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

func SubjectFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey{}).(string)
	return v, ok
}
