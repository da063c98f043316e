package router

import (
	"fmt"

	"moonshot-ollama-adapter/internal/adapter"
	"moonshot-ollama-adapter/internal/config"
)

// Selector names the logical target of a route. It is fixed when the route
// is registered and never derived from the request body.
type Selector int

const (
	Inference Selector = iota + 1
	InferenceMock
	Evaluator
	EvaluatorMock
)

func (s Selector) String() string {
	switch s {
	case Inference:
		return "inference"
	case InferenceMock:
		return "inference_mock"
	case Evaluator:
		return "evaluator"
	case EvaluatorMock:
		return "evaluator_mock"
	default:
		return fmt.Sprintf("selector(%d)", int(s))
	}
}

// Router maps selectors to concrete model identifiers.
type Router struct {
	ids map[Selector]string
}

func New(models config.ModelIDs) *Router {
	return &Router{
		ids: map[Selector]string{
			Inference:     models.Inference,
			InferenceMock: models.InferenceMock,
			Evaluator:     models.Evaluator,
			EvaluatorMock: models.EvaluatorMock,
		},
	}
}

func (r *Router) Resolve(s Selector) (string, error) {
	id, ok := r.ids[s]
	if !ok || id == "" {
		return "", fmt.Errorf("no model configured for %s", s)
	}
	return id, nil
}

// MockSelector reports which mock selector, if any, owns modelID.
func (r *Router) MockSelector(modelID string) (Selector, bool) {
	for _, s := range []Selector{InferenceMock, EvaluatorMock} {
		if r.ids[s] == modelID {
			return s, true
		}
	}
	return 0, false
}

// Route binds one HTTP path to a body variant and a selector.
type Route struct {
	Pattern  string
	Variant  adapter.Variant
	Selector Selector
}

// DeploymentPathValue is the wildcard in the mock deployment route. Its value
// is accepted for URL-template compatibility and never affects selection.
const DeploymentPathValue = "model_name"

// Routes returns the fixed route table. Only /inference and /evaluate take
// their variant from configuration.
func Routes(variants config.RouteVariants) ([]Route, error) {
	inference, err := adapter.ParseVariant(variants.Inference)
	if err != nil {
		return nil, fmt.Errorf("variants.inference: %w", err)
	}
	evaluate, err := adapter.ParseVariant(variants.Evaluate)
	if err != nil {
		return nil, fmt.Errorf("variants.evaluate: %w", err)
	}

	return []Route{
		{Pattern: "/inference", Variant: inference, Selector: Inference},
		{Pattern: "/evaluate", Variant: evaluate, Selector: Evaluator},
		{Pattern: "/inference/mock", Variant: adapter.VariantChat, Selector: InferenceMock},
		{Pattern: "/evaluate/mock", Variant: adapter.VariantChat, Selector: EvaluatorMock},
		{
			Pattern:  "/inference/mock/openai/deployments/{" + DeploymentPathValue + "}/chat/completions",
			Variant:  adapter.VariantChat,
			Selector: InferenceMock,
		},
	}, nil
}
