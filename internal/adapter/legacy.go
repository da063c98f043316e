package adapter

import (
	"moonshot-ollama-adapter/internal/models"
)

// LegacyAdapter handles {"inputs": "..."} and answers [{"generated_text": "..."}].
type LegacyAdapter struct{}

func NewLegacyAdapter() *LegacyAdapter {
	return &LegacyAdapter{}
}

func (a *LegacyAdapter) Variant() Variant {
	return VariantLegacy
}

func (a *LegacyAdapter) ExtractPrompt(body []byte) (string, error) {
	root, err := parseObject(body)
	if err != nil {
		return "", err
	}
	return stringField(root, "inputs", "inputs")
}

func (a *LegacyAdapter) BuildResponse(text string) any {
	return models.NewLegacyResponse(text)
}
