package adapter

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "moonshot-ollama-adapter/internal/errors"
)

// Variant identifies one inbound/outbound body family. A route is bound to
// exactly one variant when it is registered; bodies are never sniffed.
type Variant int

const (
	VariantLegacy Variant = iota + 1
	VariantChat
)

func (v Variant) String() string {
	switch v {
	case VariantLegacy:
		return "legacy"
	case VariantChat:
		return "chat"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy":
		return VariantLegacy, nil
	case "chat":
		return VariantChat, nil
	default:
		return 0, fmt.Errorf("unknown variant: %q", s)
	}
}

// Adapter translates between one client-facing body family and plain prompt text.
type Adapter interface {
	Variant() Variant
	// ExtractPrompt returns the prompt exactly as sent. Failures carry
	// apierrors.KindExtraction.
	ExtractPrompt(body []byte) (string, error)
	BuildResponse(text string) any
}

func ForVariant(v Variant) (Adapter, error) {
	switch v {
	case VariantLegacy:
		return NewLegacyAdapter(), nil
	case VariantChat:
		return NewChatAdapter(), nil
	default:
		return nil, fmt.Errorf("no adapter for %s", v)
	}
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apierrors.Extraction(fmt.Errorf("invalid JSON payload"))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, apierrors.Extraction(fmt.Errorf("request body must be a JSON object"))
	}
	return root, nil
}

// member returns the value of key in an object. When a key repeats, the last
// occurrence wins, as with encoding/json.
func member(parent gjson.Result, key string) gjson.Result {
	var field gjson.Result
	parent.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			field = v
		}
		return true
	})
	return field
}

func stringField(parent gjson.Result, key, path string) (string, error) {
	field := member(parent, key)
	if !field.Exists() {
		return "", apierrors.Extraction(fmt.Errorf("missing %s", path))
	}
	if field.Type != gjson.String {
		return "", apierrors.Extraction(fmt.Errorf("%s must be a string", path))
	}
	return field.Str, nil
}
