package invocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apierrors "moonshot-ollama-adapter/internal/errors"
	"moonshot-ollama-adapter/internal/history"
	"moonshot-ollama-adapter/internal/metrics"
	"moonshot-ollama-adapter/internal/models"
	"moonshot-ollama-adapter/internal/promptlog"
	"moonshot-ollama-adapter/internal/router"
	"moonshot-ollama-adapter/internal/runtime"
)

// Canned answers returned for the mock sentinels.
const (
	MockInferenceReply = "Ollama is not used in this environment."
	MockEvaluatorReply = "unsafe\nS2"
)

// Runner logs, times and executes one model invocation.
type Runner struct {
	router    *router.Router
	generator runtime.Generator
	prompts   *promptlog.Logger
	history   history.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Runner)

func WithHistory(store history.Store) Option {
	return func(r *Runner) {
		if store != nil {
			r.history = store
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

func NewRunner(rt *router.Router, gen runtime.Generator, prompts *promptlog.Logger, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		router:    rt,
		generator: gen,
		prompts:   prompts,
		history:   history.Nop{},
		metrics:   metrics.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request describes one invocation.
type Request struct {
	RequestID string
	Selector  router.Selector
	Prompt    string
}

// Run writes the prompt entry, dispatches to a mock or the runtime, and
// writes the response entry when dispatch succeeds. Runtime failures come
// back with apierrors.KindRuntimeInvocation; the prompt entry stays written.
func (r *Runner) Run(ctx context.Context, req Request) (string, error) {
	modelID, err := r.router.Resolve(req.Selector)
	if err != nil {
		return "", err
	}

	start := time.Now()
	r.prompts.Prompt(ctx, start, req.Prompt)

	text, err := r.dispatch(ctx, modelID, req.Prompt)
	elapsed := time.Since(start)
	r.metrics.ObserveInvocation(req.Selector.String(), elapsed, err)
	r.record(ctx, req, modelID, start, elapsed, text, err)
	if err != nil {
		return "", err
	}

	r.prompts.Response(ctx, start, text)
	return text, nil
}

func (r *Runner) dispatch(ctx context.Context, modelID, prompt string) (string, error) {
	if sel, ok := r.router.MockSelector(modelID); ok {
		switch sel {
		case router.InferenceMock:
			return MockInferenceReply, nil
		case router.EvaluatorMock:
			return MockEvaluatorReply, nil
		}
	}

	reply, err := r.generator.Generate(ctx, modelID, []models.ChatMessage{models.UserMessage(prompt)})
	if err != nil {
		return "", apierrors.RuntimeInvocation(fmt.Errorf("generate with %s: %w", modelID, err))
	}
	return reply.Content, nil
}

func (r *Runner) record(ctx context.Context, req Request, modelID string, start time.Time, elapsed time.Duration, text string, err error) {
	rec := history.Record{
		RequestID:  req.RequestID,
		Timestamp:  start,
		Selector:   req.Selector.String(),
		Model:      modelID,
		Prompt:     req.Prompt,
		Response:   text,
		Status:     history.StatusOK,
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Status = history.StatusError
		rec.Error = err.Error()
	}
	if herr := r.history.Append(context.WithoutCancel(ctx), rec); herr != nil {
		r.logger.Warn("failed to record invocation history", "error", herr, "request_id", req.RequestID)
	}
}
