package gateway_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moonshot-ollama-adapter/internal/adapter"
	"moonshot-ollama-adapter/internal/config"
	apierrors "moonshot-ollama-adapter/internal/errors"
	"moonshot-ollama-adapter/internal/gateway"
	"moonshot-ollama-adapter/internal/invocation"
	"moonshot-ollama-adapter/internal/metrics"
	"moonshot-ollama-adapter/internal/models"
	"moonshot-ollama-adapter/internal/promptlog"
	"moonshot-ollama-adapter/internal/router"
	"moonshot-ollama-adapter/internal/runtime"
)

func newService(gen runtime.Generator) *gateway.Service {
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := invocation.NewRunner(router.New(cfg.Models), gen, promptlog.Discard(), logger)
	return gateway.NewService(runner, nil, metrics.New(), logger)
}

func TestHandlerServesBoundSelector(t *testing.T) {
	var gotModel string
	gen := runtime.GeneratorFunc(func(ctx context.Context, model string, messages []models.ChatMessage) (models.ChatMessage, error) {
		gotModel = model
		return models.ChatMessage{Content: "ok:" + messages[0].Content}, nil
	})
	svc := newService(gen)

	h, err := svc.Handler(router.Route{Pattern: "/evaluate", Variant: adapter.VariantLegacy, Selector: router.Evaluator})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(`{"inputs":"check me"}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got, want := rec.Body.String(), `[{"generated_text":"ok:check me"}]`; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
	if gotModel != "llama-guard3:8b" {
		t.Fatalf("model = %q", gotModel)
	}
}

func TestHandlerRejectsUnknownVariant(t *testing.T) {
	svc := newService(nil)
	if _, err := svc.Handler(router.Route{Pattern: "/x", Variant: adapter.Variant(0), Selector: router.Inference}); err == nil {
		t.Fatalf("expected error for unbound variant")
	}
}

func TestStatusForEveryKindIsServerError(t *testing.T) {
	for _, kind := range []apierrors.Kind{apierrors.KindExtraction, apierrors.KindRuntimeInvocation, apierrors.KindInternal} {
		if got := gateway.StatusFor(kind); got != http.StatusInternalServerError {
			t.Fatalf("StatusFor(%s) = %d", kind, got)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := gateway.ContextWithRequestID(context.Background(), "req-1")
	if got := gateway.RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("request id = %q", got)
	}
	if got := gateway.RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("empty context request id = %q", got)
	}
}
