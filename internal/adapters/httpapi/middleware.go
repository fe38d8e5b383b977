package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	msgServerError = "サーバーエラーが発生しました。しばらく後でもう一度お試しください。"
	msgBusy        = "ただいま混み合っています。しばらく後でもう一度お試しください。"
)

const unmatchedRoute = "unmatched"

var excludedPaths = []string{
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
	"/static/",
}

func isExcludedPath(path string) bool {
	for _, excluded := range excludedPaths {
		if strings.HasPrefix(path, excluded) {
			return true
		}
	}
	return false
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// securityHeaders sets the headers every response carries
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// accessLog logs and measures every request outside the excluded paths
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isExcludedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		m := httpsnoop.CaptureMetrics(next, w, r)

		// Label by pattern only; raw paths would grow one series per distinct URL
		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveHTTP(route, r.Method, m.Code, m.Duration)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Duration("duration", m.Duration),
			zap.Int64("bytes", m.Written),
			zap.String("client", s.anon.Anonymize(ClientIP(r, s.cfg.TrustProxyHeaders))),
			zap.String("user_agent", r.UserAgent()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		s.logger.Info("access", fields...)

		if isAPIPath(r.URL.Path) && m.Code >= 400 {
			s.logger.Error("API error", fields...)
		}
		if s.cfg.SlowRequest > 0 && m.Duration > s.cfg.SlowRequest {
			s.logger.Warn("Slow response detected",
				zap.String("path", r.URL.Path),
				zap.Duration("duration", m.Duration),
				zap.Duration("threshold", s.cfg.SlowRequest))
		}
		if m.Code >= 500 {
			s.logger.Error("Server error", fields...)
		}
	})
}

// throttle caps the total request rate across all clients
func throttle(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, msgBusy)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// recoverer turns handler panics into a generic 500
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("Handler panicked",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())))
				writeError(w, http.StatusInternalServerError, msgServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
