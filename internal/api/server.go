// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	commonerrors "subsidy-recommender/internal/common/errors"
	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/observability"
	"subsidy-recommender/internal/models"
	"subsidy-recommender/internal/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// Recommender is the part of service.Service the API calls.
type Recommender interface {
	Recommend(ctx context.Context, profile models.FarmerProfile) (*service.Response, error)
}

// ReadinessCheck reports whether the backing stores are reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	svc    Recommender
	ready  ReadinessCheck
	obs    *observability.Observability
	logger logger.Logger
	mux    *http.ServeMux
}

// NewServer wires the recommendation endpoints with /health, /ready and
// /metrics. ready and obs may be nil.
func NewServer(svc Recommender, ready ReadinessCheck, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		svc:    svc,
		ready:  ready,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "http-api"}),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/subsidy/recommend/", s.handleRecommend)
	s.mux.HandleFunc("GET /api/subsidy/status/", s.handleStatus)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler returns the mux wrapped in request-id and access-log middleware.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Subsidy Recommendation Service is operational.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			stdErr := commonerrors.Normalize(err)
			s.logger.Warn("readiness check failed", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"error":     err,
			})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unavailable",
				"code":    string(stdErr.Code),
				"error":   stdErr.Message,
				"details": stdErr.Details,
				"time":    time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(service.WithRequestID(r.Context(), id)))

		s.logger.Debug("request served", map[string]interface{}{
			"requestId":  id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
