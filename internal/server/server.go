package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alchemix/bar-server/internal/apidoc"
	"github.com/alchemix/bar-server/internal/config"
	"github.com/alchemix/bar-server/internal/constants"
	"github.com/alchemix/bar-server/internal/observability"
	"github.com/alchemix/bar-server/internal/query"
	"github.com/alchemix/bar-server/internal/security"
	"github.com/alchemix/bar-server/internal/server/middleware"
)

// Server is the bar application: route table, middleware chain and the
// injected query-construction capability. The constructor is fixed at
// build time; there is no way to swap it on a live server.
type Server struct {
	config      *config.Config
	constructor query.Constructor
	apiDoc      *apidoc.Doc

	server *http.Server

	// Security
	rateLimiter *security.RateLimiter

	// Observability
	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	startTime time.Time
}

// New builds the application with the given query constructor injected.
// A nil constructor installs the stock one, so passing a constructor is
// an unconditional replacement of the default capability.
func New(cfg *config.Config, constructor query.Constructor) (*Server, error) {
	if constructor == nil {
		constructor = query.NewDefault()
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	metrics := observability.NewMetrics()
	if err := metrics.Register(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	tracer, err := observability.NewTracer(cfg.Observability.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	doc, err := apidoc.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load API description: %w", err)
	}

	return &Server{
		config:      cfg,
		constructor: constructor,
		apiDoc:      doc,
		rateLimiter: security.NewRateLimiter(&cfg.Security.RateLimit),
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		startTime:   time.Now(),
	}, nil
}

// Constructor returns the active query-construction capability.
func (s *Server) Constructor() query.Constructor {
	return s.constructor
}

// Handler assembles the application's routes and middleware without
// starting a listener, for embedding under an external supervisor.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	AttachHealth(mux)
	mux.HandleFunc("GET "+constants.PathReady, s.readinessHandler)
	mux.HandleFunc("GET "+constants.PathDocs, s.docsHandler)
	mux.HandleFunc("POST "+constants.PathQuery, s.queryHandler)
	mux.HandleFunc("GET "+constants.PathQueryPlan, s.queryPlanHandler)

	if s.config.Observability.Metrics.Enabled {
		mux.Handle("GET "+s.config.Observability.Metrics.Path, s.metrics.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			s.serveIndex(w, r)
		} else {
			http.NotFound(w, r)
		}
	})

	return s.applyMiddleware(mux)
}

// applyMiddleware applies the middleware chain in reverse order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	handler = s.rateLimiter.Middleware(handler)
	handler = middleware.RequestSizeLimitMiddleware(s.config.Server.MaxRequestSize)(handler)
	handler = middleware.LoggingMiddleware(s.logger.Logger)(handler)
	return handler
}

// Start binds the listener on all configured interfaces and blocks
// until the process receives SIGINT or SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	s.logger.Logger.Info("Starting server",
		zap.String("host", s.config.Server.Host),
		zap.String("port", s.config.Server.Port),
	)

	s.metrics.SetHealthStatus(true)

	// Standalone metrics listener
	var metricsServer *http.Server
	if s.config.Observability.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(s.config.Observability.Metrics.Path, s.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%s", s.config.Server.MetricsPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.logger.Logger.Info("Starting metrics server",
			zap.String("port", s.config.Server.MetricsPort),
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Logger.Info("Shutting down server...")
	s.metrics.SetHealthStatus(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metricsServer.Shutdown(ctx); err != nil {
				s.logger.Logger.Error("Failed to shutdown metrics server", zap.Error(err))
				errChan <- fmt.Errorf("metrics server shutdown: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Logger.Error("Failed to shutdown main server", zap.Error(err))
			errChan <- fmt.Errorf("main server shutdown: %w", err)
		}
	}()

	wg.Wait()
	close(errChan)

	if err := s.tracer.Shutdown(context.Background()); err != nil {
		s.logger.Logger.Error("Failed to shutdown tracer", zap.Error(err))
	}
	_ = s.logger.Sync()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}
