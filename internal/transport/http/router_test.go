package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"localsphere/internal/adminauth"
	"localsphere/internal/domain"
	"localsphere/internal/dto"
	"localsphere/internal/variant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaptureService struct {
	captureResp *dto.CaptureResponse
	captureErr  error
	verifyResp  *dto.VerifyResponse
	verifyErr   error
	statsResp   *dto.StatsResponse

	lastCapture dto.CaptureRequest
	lastToken   string
	lastVisitor dto.Visitor
}

func (s *stubCaptureService) Capture(ctx context.Context, r dto.CaptureRequest) (*dto.CaptureResponse, error) {
	s.lastCapture = r
	return s.captureResp, s.captureErr
}

func (s *stubCaptureService) VerifyByToken(ctx context.Context, token string, v dto.Visitor) (*dto.VerifyResponse, error) {
	s.lastToken = token
	s.lastVisitor = v
	return s.verifyResp, s.verifyErr
}

func (s *stubCaptureService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	return s.statsResp, nil
}

func do(t *testing.T, h http.Handler, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const captureBody = `{"email":"john@x.com","variant":"unified-productivity","section":"hero","cta_text":"Get early access"}`

func TestCaptureSuccess(t *testing.T) {
	svc := &stubCaptureService{captureResp: &dto.CaptureResponse{
		Success: true,
		Message: "Verification email sent successfully",
		Data:    dto.CaptureData{Email: "john@x.com", Variant: "unified-productivity", Section: "hero", VerificationRequired: true},
	}}
	h := NewRouter(Options{Captures: svc})

	rec := do(t, h, http.MethodPost, "/api/email-capture", captureBody, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: variant.CookieSession, Value: "6f1c2b8e-0d4a-4f4e-9b8e-2f5d1c3a7b90"})
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Verification email sent successfully",
		"data":{"email":"john@x.com","variant":"unified-productivity","section":"hero","verificationRequired":true}}`, rec.Body.String())
	assert.Equal(t, "Get early access", svc.lastCapture.CTAText)
	assert.Equal(t, "6f1c2b8e-0d4a-4f4e-9b8e-2f5d1c3a7b90", svc.lastCapture.Visitor.SessionID)
}

func TestCaptureErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: invalid email format", domain.ErrValidation), http.StatusBadRequest, "validation_error"},
		{domain.ErrDuplicateRegistration, http.StatusConflict, "duplicate_registration"},
		{fmt.Errorf("%w: missing [APP_URL]", domain.ErrNotConfigured), http.StatusInternalServerError, "configuration_error"},
		{fmt.Errorf("%w: disk full", domain.ErrPersistence), http.StatusInternalServerError, "persistence_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			h := NewRouter(Options{Captures: &stubCaptureService{captureErr: tc.err}})
			rec := do(t, h, http.MethodPost, "/api/email-capture", captureBody)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestCaptureDeliveryFailureCarriesData(t *testing.T) {
	svc := &stubCaptureService{
		captureResp: &dto.CaptureResponse{Data: dto.CaptureData{Email: "john@x.com", Variant: "unified-productivity", Section: "hero", VerificationRequired: true}},
		captureErr:  fmt.Errorf("%w: provider down", domain.ErrDelivery),
	}
	rec := do(t, NewRouter(Options{Captures: svc}), http.MethodPost, "/api/email-capture", captureBody)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"verification email could not be sent","code":"delivery_error",
		"data":{"email":"john@x.com","variant":"unified-productivity","section":"hero","verificationRequired":true}}`, rec.Body.String())
}

func TestCaptureRejectsMalformedJSON(t *testing.T) {
	rec := do(t, NewRouter(Options{Captures: &stubCaptureService{}}), http.MethodPost, "/api/email-capture", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewRouter(Options{Captures: &stubCaptureService{}})

	rec := do(t, h, http.MethodGet, "/api/email-capture", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", decodeError(t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/verify-email/abc", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVerifyStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", domain.ErrInvalidToken, http.StatusNotFound, "invalid_token"},
		{"expired", domain.ErrTokenExpired, http.StatusGone, "token_expired"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRouter(Options{Captures: &stubCaptureService{verifyErr: tc.err}})
			rec := do(t, h, http.MethodGet, "/api/verify-email/tok123", "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestVerifyAlreadyVerified(t *testing.T) {
	svc := &stubCaptureService{verifyResp: &dto.VerifyResponse{
		Success: true,
		Message: "Email already verified",
		Data:    dto.VerifyData{Email: "john@x.com", Variant: "unified-productivity", Section: "hero", VerifiedAt: "2026-03-01T12:00:00Z", AlreadyVerified: true},
	}}
	rec := do(t, NewRouter(Options{Captures: svc}), http.MethodGet, "/api/verify-email/tok123", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok123", svc.lastToken)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["data"].(map[string]any)["already_verified"])
}

func TestVerifyEmptyTokenReachesService(t *testing.T) {
	svc := &stubCaptureService{verifyErr: fmt.Errorf("%w: verification token is required", domain.ErrValidation)}
	rec := do(t, NewRouter(Options{Captures: svc}), http.MethodGet, "/api/verify-email/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "", svc.lastToken)
}

func TestStatsRequiresAdminToken(t *testing.T) {
	svc := &stubCaptureService{statsResp: &dto.StatsResponse{Total: 3, Verified: 1, Variants: map[string]int64{"timezone-freedom": 3}}}
	h := NewRouter(Options{Captures: svc, Admin: adminauth.NewValidator("s3cret", "localsphere-site")})

	rec := do(t, h, http.MethodGet, "/api/email-stats", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	signer, err := adminauth.NewSigner("s3cret", "localsphere-site")
	require.NoError(t, err)
	tok, err := signer.Sign("ops", time.Hour)
	require.NoError(t, err)

	rec = do(t, h, http.MethodGet, "/api/email-stats", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":3,"verified":1,"variants":{"timezone-freedom":3}}`, rec.Body.String())
}

func TestStatsWithoutAdminSecret(t *testing.T) {
	rec := do(t, NewRouter(Options{Captures: &stubCaptureService{}}), http.MethodGet, "/api/email-stats", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "configuration_error", decodeError(t, rec).Code)
}

func TestRootRedirectsAndOtherPathsPassThrough(t *testing.T) {
	h := NewRouter(Options{
		Captures: &stubCaptureService{},
		Variants: variant.NewRouter(variant.Options{Pick: func(int) int { return 1 }}),
	})

	rec := do(t, h, http.MethodGet, "/?utm_source=newsletter", "")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/validate/information-findability/variant-a?utm_source=newsletter", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = do(t, h, http.MethodGet, "/validate/timezone-freedom/variant-a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestCaptureRateLimit(t *testing.T) {
	svc := &stubCaptureService{captureResp: &dto.CaptureResponse{Success: true}}
	h := NewRouter(Options{Captures: svc, CaptureRateLimit: 2})

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/email-capture", captureBody)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/email-capture", captureBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Code)
}
