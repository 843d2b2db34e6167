package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"localsphere/internal/adminauth"
	"localsphere/internal/config"
	"localsphere/internal/events"
	"localsphere/internal/notify"
	"localsphere/internal/observability/metrics"
	"localsphere/internal/observability/middleware"
	"localsphere/internal/service"
	impl "localsphere/internal/service/impl"
	httpx "localsphere/internal/transport/http"
	"localsphere/internal/variant"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAutoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveAutoMigrate, "auto-migrate", false, "Create or update the capture table before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	logger.Info("starting service")
	metrics.MustRegister(serviceName)

	st, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	if st == nil {
		logger.Warn("DATABASE_URL not set; capture and verification will answer configuration_error")
	} else if serveAutoMigrate {
		if err := st.AutoMigrate(ctx); err != nil {
			return err
		}
	}

	fanout, closeSinks, err := events.Build(events.SinkConfig{
		Sinks:             config.SplitList(cfg.Events.Sinks),
		Timeout:           cfg.Events.Timeout,
		NATSURL:           cfg.Events.NATSURL,
		NATSSubjectPrefix: cfg.Events.NATSSubjectPrefix,
		KafkaBrokers:      config.SplitList(cfg.Events.KafkaBrokers),
		KafkaTopic:        cfg.Events.KafkaTopic,
		PostHogAPIKey:     cfg.Events.PostHogAPIKey,
		PostHogHost:       cfg.Events.PostHogHost,
	}, logger)
	if err != nil {
		return err
	}
	defer closeSinks()
	async := events.NewAsync(fanout, 1024)

	var notifier service.Notifier
	if cfg.ResendAPIKey != "" {
		notifier = notify.NewResendNotifier(notify.ResendConfig{
			APIKey:   cfg.ResendAPIKey,
			BaseURL:  cfg.ResendBaseURL,
			From:     cfg.EmailFrom,
			Timeout:  cfg.EmailTimeout,
			ValidFor: cfg.TokenTTL,
		})
	} else {
		logger.Warn("RESEND_API_KEY not set; captures will answer configuration_error")
	}

	captures := impl.NewCaptureServiceImpl(st, notifier, async, cfg.AppURL, cfg.TokenTTL)

	router := httpx.NewRouter(httpx.Options{
		Captures: captures,
		Variants: variant.NewRouter(variant.Options{
			Secure:     cfg.Production(),
			VariantTTL: cfg.VariantCookieTTL,
			SessionTTL: cfg.SessionCookieTTL,
			Events:     async,
		}),
		Admin:            adminauth.NewValidator(cfg.AdminSecret, cfg.AdminIssuer),
		CORSOrigins:      config.SplitList(cfg.CORSOrigins),
		CaptureRateLimit: cfg.CaptureRateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.WithRequestAndTrace(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return async.Run(gctx) })
	g.Go(func() error {
		logger.Info("site listening", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
