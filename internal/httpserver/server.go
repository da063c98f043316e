package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	apierrors "moonshot-ollama-adapter/internal/errors"
	"moonshot-ollama-adapter/internal/gateway"
	"moonshot-ollama-adapter/internal/metrics"
	"moonshot-ollama-adapter/internal/router"
)

type Server struct {
	httpServer *http.Server
}

func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}
}

// NewHandler registers every pipeline route plus the operational endpoints.
func NewHandler(logger *slog.Logger, service *gateway.Service, routes []router.Route, m *metrics.Metrics) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	mux.HandleFunc("/logs", service.HandleLogs)
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	for _, route := range routes {
		h, err := service.Handler(route)
		if err != nil {
			return nil, err
		}
		mux.Handle(route.Pattern, h)
	}
	mux.HandleFunc("/", service.HandleUnsupported)

	handler := withRequestID(withLogging(mux, logger))
	return handler, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		apierrors.Write(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("x-request-id"))
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("x-request-id", requestID)

		ctx := gateway.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		requestID := rw.Header().Get("x-request-id")
		logger.Info(
			"http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func generateRequestID() string {
	return fmt.Sprintf("req-%s", strings.ToLower(ulid.Make().String()))
}
