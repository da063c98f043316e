package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"

	"moonshot-ollama-adapter/internal/adapter"
	apierrors "moonshot-ollama-adapter/internal/errors"
	"moonshot-ollama-adapter/internal/history"
	"moonshot-ollama-adapter/internal/invocation"
	"moonshot-ollama-adapter/internal/metrics"
	"moonshot-ollama-adapter/internal/router"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
)

type Service struct {
	runner  *invocation.Runner
	history history.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(runner *invocation.Runner, store history.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	if store == nil {
		store = history.Nop{}
	}
	return &Service{
		runner:  runner,
		history: store,
		metrics: m,
		logger:  logger,
	}
}

// Handler returns the pipeline handler for one route. The route's variant and
// selector are fixed here and never re-derived from the request.
func (s *Service) Handler(route router.Route) (http.Handler, error) {
	ad, err := adapter.ForVariant(route.Variant)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", route.Pattern, err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		s.serve(w, r, ad, route.Selector)
	}), nil
}

func (s *Service) HandleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.Write(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read invocation history", "error", err, "request_id", RequestIDFromContext(r.Context()))
		apierrors.Write(w, http.StatusInternalServerError, "failed to read invocation history")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		s.logger.Error("failed to encode invocation history", "error", err, "request_id", RequestIDFromContext(r.Context()))
	}
}

func (s *Service) HandleUnsupported(w http.ResponseWriter, r *http.Request) {
	apierrors.Write(w, http.StatusNotFound, "path is not supported by this adapter")
}

// serve is the single error boundary: it answers with exactly one success
// body or one error envelope.
func (s *Service) serve(w http.ResponseWriter, r *http.Request, ad adapter.Adapter, selector router.Selector) {
	requestID := RequestIDFromContext(r.Context())
	if name := r.PathValue(router.DeploymentPathValue); name != "" {
		s.logger.Debug("deployment name ignored", "model_name", name, "request_id", requestID)
	}

	payload, err := s.pipeline(r, ad, selector, requestID)
	if err != nil {
		s.fail(w, err, requestID)
		return
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.fail(w, fmt.Errorf("encode response: %w", err), requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}

func (s *Service) pipeline(r *http.Request, ad adapter.Adapter, selector router.Selector, requestID string) (payload any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apierrors.Extraction(fmt.Errorf("read request body: %w", err))
	}

	prompt, err := ad.ExtractPrompt(body)
	if err != nil {
		return nil, err
	}

	text, err := s.runner.Run(r.Context(), invocation.Request{
		RequestID: requestID,
		Selector:  selector,
		Prompt:    prompt,
	})
	if err != nil {
		return nil, err
	}
	return ad.BuildResponse(text), nil
}

func (s *Service) fail(w http.ResponseWriter, err error, requestID string) {
	kind := apierrors.KindOf(err)
	attrs := []any{"kind", kind, "error", err, "request_id", requestID}

	message := err.Error()
	if pe, ok := err.(*panicError); ok {
		attrs = append(attrs, "stack", string(pe.stack))
		message = "internal server error"
	}
	s.logger.Error("request failed", attrs...)

	if s.metrics != nil {
		s.metrics.IncRequestError(string(kind))
	}
	apierrors.Write(w, StatusFor(kind), message)
}

// StatusFor maps an error kind to its HTTP status. Every kind, malformed
// input included, answers 500 for compatibility with existing clients.
func StatusFor(apierrors.Kind) int {
	return http.StatusInternalServerError
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	apierrors.Write(w, http.StatusMethodNotAllowed, "method not allowed")
}

func RequestIDFromContext(ctx context.Context) string {
	v := ctx.Value(contextKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}
