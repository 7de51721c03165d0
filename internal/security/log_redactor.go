// Package security provides data leakage prevention utilities.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces sensitive data in log output.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns contains regex patterns for common credential formats.
var sensitivePatterns = []*regexp.Regexp{
	// OpenAI-style keys: sk-...
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	// Cohere/Google-style keys
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),
	// Bearer tokens in strings
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]{20,}`),
	// Credentials in query params
	regexp.MustCompile(`(?:api_key|key|token)=[a-zA-Z0-9_-]{20,}`),
}

// sensitiveKeys are attribute names whose values are always redacted.
var sensitiveKeys = []string{
	"authorization",
	"api_key",
	"apikey",
	"api-key",
	"secret",
	"password",
	"credential",
	"cookie",
}

// Redact scans a string for credential patterns and replaces them.
// This is the primary function for sanitizing log output.
func Redact(s string) string {
	result := s
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// RedactedHandler wraps an slog.Handler and redacts sensitive data from log records.
type RedactedHandler struct {
	inner slog.Handler
}

// NewRedactedHandler creates a handler that wraps an existing handler and
// redacts credentials from all log output.
func NewRedactedHandler(inner slog.Handler) *RedactedHandler {
	return &RedactedHandler{inner: inner}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle processes a log record, redacting sensitive data.
func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.Record{
		Time:    r.Time,
		Message: Redact(r.Message),
		Level:   r.Level,
		PC:      r.PC,
	}

	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})

	return h.inner.Handle(ctx, clean)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name)}
}

// redactAttr redacts sensitive data from a single attribute.
func redactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, RedactedPlaceholder)
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, Redact(a.Value.String()))
	}

	return a
}

// isSensitiveKey checks if an attribute key is known to contain sensitive data.
func isSensitiveKey(key string) bool {
	for _, k := range sensitiveKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
