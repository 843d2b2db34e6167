package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"localsphere/internal/adminauth"
	"localsphere/internal/domain"
	"localsphere/internal/dto"
	"localsphere/internal/httpx"
	obsmw "localsphere/internal/observability/middleware"
	"localsphere/internal/service"
	"localsphere/internal/variant"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 16 << 10

type Options struct {
	Captures service.CaptureService
	Variants *variant.Router
	Admin    *adminauth.Validator
	// CORSOrigins empty allows any origin.
	CORSOrigins []string
	// CaptureRateLimit is requests per IP per minute on the capture
	// endpoint; zero disables limiting.
	CaptureRateLimit int
}

func NewRouter(o Options) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(obsmw.WithMetrics)
	r.Use(httpx.LogRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsOrAny(o.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found", "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if o.Variants != nil {
		r.Handle("/", o.Variants)
	}

	h := handlers{captures: o.Captures}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if o.CaptureRateLimit > 0 {
				r.Use(httprate.Limit(o.CaptureRateLimit, time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						httpx.WriteError(w, http.StatusTooManyRequests, "too many requests", "rate_limited")
					}),
				))
			}
			r.Post("/email-capture", h.capture)
		})

		r.Get("/verify-email/", h.verify)
		r.Get("/verify-email/{token}", h.verify)

		r.Group(func(r chi.Router) {
			admin := o.Admin
			if admin == nil {
				admin = adminauth.NewValidator("", "")
			}
			r.Use(admin.Middleware)
			r.Get("/email-stats", h.stats)
		})
	})

	return r
}

type handlers struct {
	captures service.CaptureService
}

func (h handlers) capture(w http.ResponseWriter, r *http.Request) {
	var req dto.CaptureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body", "validation_error")
		return
	}
	req.Visitor = variant.Visitor(r)

	res, err := h.captures.Capture(r.Context(), req)
	if err != nil {
		var data any
		if res != nil {
			data = res.Data
		}
		writeServiceError(w, r, err, data)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h handlers) verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.captures.VerifyByToken(r.Context(), chi.URLParam(r, "token"), variant.Visitor(r))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h handlers) stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.captures.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error, data any) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateRegistration):
		status = http.StatusConflict
		msg = "Email already registered for this variant"
	case errors.Is(err, domain.ErrInvalidToken):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTokenExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrDelivery):
		status = http.StatusBadGateway
		msg = domain.ErrDelivery.Error()
	case errors.Is(err, domain.ErrNotConfigured):
		msg = "Server configuration error"
	default:
		msg = "Internal server error"
	}
	if status >= 500 {
		slog.Error("request failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
			"request_id", obsmw.RequestIDFromContext(r.Context()),
			"trace_id", obsmw.TraceIDFromContext(r.Context()),
		)
	}
	httpx.WriteJSON(w, status, dto.ErrorResponse{Error: msg, Code: domain.ErrorCode(err), Data: data})
}

func originsOrAny(in []string) []string {
	if len(in) == 0 {
		return []string{"*"}
	}
	return in
}
