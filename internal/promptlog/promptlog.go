package promptlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"moonshot-ollama-adapter/internal/config"
)

// Marker text is a compatibility contract with existing log consumers,
// including the misspelled response end marker.
const (
	PromptStart   = "<PROMPT_START>"
	PromptEnd     = "<PROMPT_END>"
	ResponseStart = "<RESPONSE_START>"
	ResponseEnd   = "<REPONSE_END>"

	TimeLayout = "2006-01-02 15:04:05"
)

// Logger writes prompt and response entries, one line each.
type Logger struct {
	logger *slog.Logger
}

// New builds a Logger for w. Prompt and response entries are written at Info,
// so level only decides whether debug records pass too.
func New(w io.Writer, format, level string) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// Discard returns a Logger that drops every entry.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Prompt(ctx context.Context, at time.Time, prompt string) {
	l.logger.InfoContext(ctx, fmt.Sprintf("Prompt Time: %s - Prompt Input: %s%s%s",
		at.Format(TimeLayout), PromptStart, prompt, PromptEnd))
}

func (l *Logger) Response(ctx context.Context, at time.Time, text string) {
	l.logger.InfoContext(ctx, fmt.Sprintf("Prompt Time: %s - Model Response: %s%s%s",
		at.Format(TimeLayout), ResponseStart, text, ResponseEnd))
}

// ParseLevel caps the result at Info so entries can never be filtered out.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info", "warn", "error":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
