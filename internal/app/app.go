package app

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/tramline/merch-shop/db"
	"github.com/tramline/merch-shop/internal/domain/checkout"
	"github.com/tramline/merch-shop/internal/domain/feedback"
	"github.com/tramline/merch-shop/internal/domain/identity"
	"github.com/tramline/merch-shop/internal/domain/merch"
	"github.com/tramline/merch-shop/internal/handler"
	"github.com/tramline/merch-shop/internal/storage/memory"
	"github.com/tramline/merch-shop/internal/storage/postgres"
	"github.com/tramline/merch-shop/pkg/health"
	"github.com/tramline/merch-shop/pkg/httpmiddleware"
	"github.com/tramline/merch-shop/web"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.Bool("demo_mode", cfg.DatabaseURL == ""))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Storage. With a database URL the catalog, order history, and feedback
	// live in PostgreSQL; without one the server runs self-contained on the
	// embedded demo catalog.
	var (
		catalog     merch.Catalog
		history     checkout.History
		feedbackDst feedback.Sink
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})

		catalog = postgres.NewCatalogRepository(pool)
		history = postgres.NewHistoryRepository(pool)
		feedbackDst = postgres.NewFeedbackRepository(pool)
	} else {
		items, err := merch.ParseItems(db.SeedMerchandise)
		if err != nil {
			return errors.Wrap(err, "parse embedded catalog")
		}
		catalog = memory.NewCatalog(items...)
		history = memory.NewHistory()
		feedbackDst = memory.NewFeedbackLog()
	}

	// Sessions and carts are in-memory in both modes. Authentication is a
	// demo mock, and a cart only needs to outlive its session.
	sessions := memory.NewSessionStore()
	defer sessions.Close()
	carts := memory.NewCartRegistry(catalog, cfg.CartTTL)
	defer carts.Close()

	h := handler.New(
		catalog,
		identity.NewService(sessions, cfg.SessionTTL),
		carts,
		checkout.NewProcessor(catalog, history),
		feedback.NewService(feedbackDst),
	)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return errors.Wrap(err, "embedded static files")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))
	mux.Handle("/", http.FileServerFS(staticFS))

	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			httpmiddleware.Wrap(mux,
				httpmiddleware.Recovery(),
				httpmiddleware.CORS(httpmiddleware.CORSConfig{
					AllowOrigins: cfg.CORS.Origins,
					AllowHeaders: []string{"Content-Type", "Authorization"},
					MaxAge:       cfg.CORS.MaxAge,
				}),
				httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
					Max:    cfg.RateLimit.Max,
					Window: cfg.RateLimit.Window,
				}),
				httpmiddleware.RequestID(),
				httpmiddleware.InjectLogger(zctx.From(ctx)),
				httpmiddleware.AccessLog(),
			),
			"merch-shop",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
