package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/product-showcase/internal/dummyjson"
	"github.com/xenking/product-showcase/internal/handler"
	"github.com/xenking/product-showcase/internal/loader"
	"github.com/xenking/product-showcase/internal/view"
	"github.com/xenking/product-showcase/pkg/health"
	"github.com/xenking/product-showcase/pkg/httpmiddleware"
)

const serviceName = "product-showcase"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("upstream", cfg.Upstream.BaseURL),
	)
	ctx = zctx.Base(ctx, lg)

	srv, err := NewServer(ctx, m, cfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// Server is the wired HTTP server with its health service.
type Server struct {
	cfg    *Config
	lg     *zap.Logger
	http   *http.Server
	health *health.Health
}

// NewServer wires the upstream client, views, middleware and probes. Probes
// are not started until Run.
func NewServer(ctx context.Context, m httpmiddleware.Telemetry, cfg *Config) (*Server, error) {
	lg := zctx.From(ctx)

	client, err := dummyjson.New(cfg.Upstream.BaseURL, dummyjson.Options{
		HTTPClient:     &http.Client{Timeout: cfg.Upstream.Timeout},
		UserAgent:      cfg.Upstream.UserAgent,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create upstream client")
	}

	metrics, err := loader.NewMetrics(m.MeterProvider().Meter("github.com/xenking/product-showcase/internal/loader"))
	if err != nil {
		return nil, errors.Wrap(err, "create loader metrics")
	}

	renderer, err := view.New(cfg.Catalog.PlaceholderPath)
	if err != nil {
		return nil, errors.Wrap(err, "create renderer")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	if cfg.Health.UpstreamCheck {
		healthSvc.AddReadinessCheck("upstream", 5*time.Second,
			health.HTTPCheck(client.HTTPClient(), client.ProductURL(cfg.Catalog.DefaultProductID)),
		)
	}

	h := handler.New(client, renderer, handler.Config{
		DefaultProductID: cfg.Catalog.DefaultProductID,
		DefaultLimit:     cfg.Catalog.DefaultLimit,
		MaxLimit:         cfg.Catalog.MaxLimit,
		SkeletonDelay:    cfg.Catalog.SkeletonDelay,
		APITimeout:       cfg.Catalog.APITimeout,
	}, handler.Options{
		OnSelect: handler.LogSelect,
		Metrics:  metrics,
	})

	r := chi.NewRouter()
	r.Use(httpmiddleware.Chain(
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
	)...)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(httpmiddleware.Chain(
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Accept", "Content-Type", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Rate:    cfg.RateLimit.Rate,
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: cfg.RateLimit.IdleTTL,
		}),
		httpmiddleware.Instrument(serviceName, m),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)...)

	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Register(r)

	return &Server{
		cfg:    cfg,
		lg:     lg,
		health: healthSvc,
		http: &http.Server{
			ReadHeaderTimeout: time.Second,
			ReadTimeout:       5 * time.Second,
			// HTML views stream until the upstream settles.
			WriteTimeout:   max(cfg.Catalog.APITimeout, 30*time.Second) + 5*time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
			Addr:           cfg.Addr,
			Handler:        r,
		},
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run starts probes and serves until ctx is cancelled, then drains: readiness
// goes false, the server waits ReadinessDelay and shuts down within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	s.health.Start(ctx, s.cfg.Health.Interval)
	defer s.health.Stop()
	s.health.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gCtx.Done()
		s.health.SetReady(false)
		s.lg.Info("Readiness set to false, draining", zap.Duration("delay", s.cfg.Graceful.ReadinessDelay))
		if ctx.Err() != nil {
			time.Sleep(s.cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Graceful.ShutdownTimeout)
		defer cancel()

		s.lg.Info("Shutting down server", zap.Duration("timeout", s.cfg.Graceful.ShutdownTimeout))
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		s.lg.Info("Server listening", zap.String("addr", s.cfg.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}
