package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
	"github.com/couchcryptid/ecowitt-bridge/internal/observability"
)

// maxReportBytes caps an upload body; gateway posts are well under 4 KiB.
const maxReportBytes = 64 << 10

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReportProcessor handles one decoded gateway upload.
type ReportProcessor interface {
	Process(ctx context.Context, fields domain.FieldSet) (domain.Batch, error)
}

// Server accepts gateway uploads and exposes health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	processor  ReportProcessor
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server. Uploads are accepted on any path not
// claimed by /healthz, /readyz, /metrics, or /stream. stream may be nil.
func NewServer(addr string, processor ReportProcessor, ready ReadinessChecker, stream http.Handler, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		processor: processor,
		logger:    logger,
		metrics:   metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if stream != nil {
		mux.Handle("GET /stream", stream)
	}
	mux.HandleFunc("/", s.handleReport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleReport always answers 200 with an empty body; the gateway ignores
// the response. Non-POST requests and undecodable bodies are not translated.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.metrics.ReportsIgnored.Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	fields, err := decodeReport(http.MaxBytesReader(w, r.Body, maxReportBytes))
	if err != nil {
		s.metrics.ReportsIgnored.Inc()
		s.logger.Warn("ignoring undecodable report", "remote", r.RemoteAddr, "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := s.processor.Process(r.Context(), fields); err != nil {
		s.logger.Error("report delivery incomplete", "remote", r.RemoteAddr, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

// decodeReport parses a form-encoded body into a FieldSet, keeping the first
// value of repeated keys.
func decodeReport(body io.Reader) (domain.FieldSet, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, err
	}
	return domain.FieldSetFromValues(values), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
