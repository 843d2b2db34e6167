// Package variant buckets root-path visitors into an experiment arm and
// keeps them there through cookies.
package variant

import (
	"context"
	crand "crypto/rand"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"localsphere/internal/domain"
	"localsphere/internal/dto"
	"localsphere/internal/events"
	"localsphere/internal/netutil"
	"localsphere/internal/observability/metrics"
	"localsphere/internal/observability/middleware"

	"github.com/google/uuid"
)

const (
	CookieVariant = "localsphere_variant"
	CookieSession = "localsphere_session_id"
	CookieNewUser = "localsphere_new_user"

	newUserTTL = 10 * time.Second
)

type Options struct {
	// Secure marks cookies Secure; set in production.
	Secure     bool
	VariantTTL time.Duration
	SessionTTL time.Duration
	// Events must not block; pass an *events.Async or nil.
	Events events.Publisher
	// Pick returns an index in [0, n). Defaults to a per-request draw.
	Pick func(n int) int
	Now  func() time.Time
}

type Router struct {
	opts Options
}

func NewRouter(opts Options) *Router {
	if opts.VariantTTL <= 0 {
		opts.VariantTTL = 30 * 24 * time.Hour
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.Pick == nil {
		opts.Pick = pickPerRequest
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Router{opts: opts}
}

// pickPerRequest seeds a fresh ChaCha8 stream from crypto randomness for
// every draw, so no generator state is shared across requests.
func pickPerRequest(n int) int {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed)).IntN(n)
}

// ServeHTTP handles the root path only; the HTTP router mounts it at "/".
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if v, ok := Assigned(r); ok {
		metrics.VariantAssignmentsTotal.WithLabelValues(v.String(), "returning").Inc()
		redirect(w, r, v)
		return
	}

	v := domain.Variants[rt.opts.Pick(len(domain.Variants))]
	sessionID := uuid.NewString()

	http.SetCookie(w, rt.cookie(CookieVariant, v.String(), rt.opts.VariantTTL))
	http.SetCookie(w, rt.cookie(CookieSession, sessionID, rt.opts.SessionTTL))
	http.SetCookie(w, rt.cookie(CookieNewUser, "true", newUserTTL))
	metrics.VariantAssignmentsTotal.WithLabelValues(v.String(), "new").Inc()

	slog.Debug("variant assigned",
		"variant", v.String(),
		"session_id", sessionID,
		"request_id", middleware.RequestIDFromContext(r.Context()),
	)
	rt.publish(r.Context(), events.VariantAssigned{
		SessionID: sessionID,
		Variant:   v.String(),
		IP:        netutil.ClientIP(r),
		UserAgent: netutil.TruncateUserAgent(r.UserAgent()),
		At:        rt.opts.Now().UTC(),
	}.Event())

	redirect(w, r, v)
}

func (rt *Router) publish(ctx context.Context, ev events.Event) {
	if rt.opts.Events == nil {
		return
	}
	_ = rt.opts.Events.Publish(ctx, ev)
}

func (rt *Router) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  rt.opts.Now().Add(ttl),
		SameSite: http.SameSiteLaxMode,
		Secure:   rt.opts.Secure,
		HttpOnly: false,
	}
}

// Assigned returns the visitor's variant when the cookie names a known one.
func Assigned(r *http.Request) (domain.Variant, bool) {
	c, err := r.Cookie(CookieVariant)
	if err != nil {
		return "", false
	}
	return domain.ParseVariant(c.Value)
}

// Visitor reads the analytics identity attached to r.
func Visitor(r *http.Request) dto.Visitor {
	v := dto.Visitor{
		IP:        netutil.ClientIP(r),
		UserAgent: netutil.TruncateUserAgent(r.UserAgent()),
	}
	if c, err := r.Cookie(CookieSession); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			v.SessionID = id.String()
		}
	}
	return v
}

func redirect(w http.ResponseWriter, r *http.Request, v domain.Variant) {
	target := v.LandingPath()
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
