package adminauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "test-secret"
	issuer = "localsphere-site"
)

func protected(t *testing.T, v *Validator) http.Handler {
	return v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, ok := SubjectFrom(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(sub))
	}))
}

func call(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/email-stats", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSignedTokenPasses(t *testing.T) {
	s, err := NewSigner(secret, issuer)
	require.NoError(t, err)
	tok, err := s.Sign("ops@localsphere", time.Hour)
	require.NoError(t, err)

	rec := call(protected(t, NewValidator(secret, issuer)), "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@localsphere", rec.Body.String())
}

func TestRejectsBadTokens(t *testing.T) {
	good, _ := NewSigner(secret, issuer)
	wrongKey, _ := NewSigner("other", issuer)
	wrongIss, _ := NewSigner(secret, "someone-else")

	expired, err := good.Sign("ops", -time.Minute)
	require.NoError(t, err)
	badKey, _ := wrongKey.Sign("ops", time.Hour)
	badIss, _ := wrongIss.Sign("ops", time.Hour)
	noScope, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": issuer, "sub": "ops", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))

	h := protected(t, NewValidator(secret, issuer))
	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer nope",
		"expired":      "Bearer " + expired,
		"wrong key":    "Bearer " + badKey,
		"wrong issuer": "Bearer " + badIss,
		"no scope":     "Bearer " + noScope,
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			rec := call(h, auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"`+errorMessage(auth)+`","code":"unauthorized"}`, rec.Body.String())
		})
	}
}

func errorMessage(auth string) string {
	if auth == "" || auth == "Basic abc" {
		return "missing bearer token"
	}
	return "invalid token"
}

func TestUnconfiguredSecret(t *testing.T) {
	_, err := NewSigner("", issuer)
	assert.ErrorIs(t, err, ErrNoSecret)

	rec := call(protected(t, NewValidator("", issuer)), "Bearer whatever")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "configuration_error")
}
