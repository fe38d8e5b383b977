package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/content"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/logging"
	"github.com/mikey/contact-guard/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server is the HTTP front end of the contact service
type Server struct {
	cfg        config.ServerConfig
	metricsCfg config.MetricsConfig
	guard      *core.SpamGuard
	sink       core.SubmissionSink
	notifier   core.Notifier
	content    *content.Loader
	metrics    *metrics.Metrics
	logger     *zap.Logger
	anon       *logging.IPAnonymizer
	validate   *validator.Validate
	limiter    *rate.Limiter
	router     chi.Router
	httpServer *http.Server
	background sync.WaitGroup
}

// Deps groups the collaborators of a Server
type Deps struct {
	Guard      *core.SpamGuard
	Sink       core.SubmissionSink
	Notifier   core.Notifier
	Content    *content.Loader
	Metrics    *metrics.Metrics
	Anonymizer *logging.IPAnonymizer
	Logger     *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, metricsCfg config.MetricsConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:        cfg,
		metricsCfg: metricsCfg,
		guard:      deps.Guard,
		sink:       deps.Sink,
		notifier:   deps.Notifier,
		content:    deps.Content,
		metrics:    deps.Metrics,
		logger:     logger,
		anon:       deps.Anonymizer,
		validate:   newValidator(),
		router:     chi.NewRouter(),
	}
	if cfg.GlobalRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.GlobalRPS), max(cfg.GlobalBurst, 1))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(securityHeaders)
	r.Use(s.accessLog)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metricsCfg.Enabled && s.metrics != nil {
		path := s.metricsCfg.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(throttle(s.limiter))
		r.Post("/contact", s.handleContact)
		if s.content != nil {
			r.Get("/content/about", s.handleAbout)
			r.Get("/content/resume", s.handleResume)
			r.Get("/content/skills", s.handleSkills)
		}
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts the HTTP listener in the background
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", s.cfg.ListenAddress))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down and waits for pending notifications
func (s *Server) Stop() error {
	if s.httpServer == nil {
		s.background.Wait()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.background.Wait()
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.sink != nil {
		body["sink"] = s.sink.Name()
	}
	writeJSON(w, http.StatusOK, body)
}
