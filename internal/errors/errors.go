package apierrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"moonshot-ollama-adapter/internal/models"
)

// Kind names a failure class surfaced at the HTTP boundary.
type Kind string

const (
	KindExtraction        Kind = "extraction_error"
	KindRuntimeInvocation Kind = "runtime_invocation_error"
	KindInternal          Kind = "internal_error"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Extraction(err error) error {
	return &Error{Kind: KindExtraction, Err: err}
}

func RuntimeInvocation(err error) error {
	return &Error{Kind: KindRuntimeInvocation, Err: err}
}

// KindOf reports the kind carried by err, or KindInternal when none is attached.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func Marshal(message string) []byte {
	if strings.TrimSpace(message) == "" {
		message = "request failed"
	}
	body, err := json.Marshal([]models.ErrorItem{{Error: message}})
	if err != nil {
		return []byte(`[{"error":"failed to marshal error"}]`)
	}
	return body
}

func Write(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(Marshal(message))
}

// IsEnvelope reports whether body is a well-formed error envelope.
func IsEnvelope(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var payload []models.ErrorItem
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	if len(payload) != 1 {
		return false
	}
	return strings.TrimSpace(payload[0].Error) != ""
}
