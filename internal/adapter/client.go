// Package adapter provides implementations for external completion provider integrations.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

const (
	// DefaultTimeout is the default HTTP client timeout for provider calls.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the default wait between run status checks.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultFallbackText is the localized sentinel returned whenever a
	// provider call fails. The transcript always advances with this text
	// instead of surfacing a protocol-level error.
	DefaultFallbackText = "죄송합니다. 답변 생성 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."
)

// clientOptions holds the HTTP plumbing shared by all three adapters.
type clientOptions struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	fallbackText string
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option is a functional option applied to any of the provider adapters.
type Option func(*clientOptions)

// WithBaseURL sets a custom base URL for the provider API.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout. It is applied after all options
// are collected, so it holds regardless of option order, including combined
// with WithHTTPClient. A zero timeout keeps the client's own setting.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithFallbackText overrides the localized sentinel reply used on failure.
func WithFallbackText(text string) Option {
	return func(o *clientOptions) {
		if text != "" {
			o.fallbackText = text
		}
	}
}

// WithPollInterval sets the wait between run status checks (thread-polling adapter).
func WithPollInterval(interval time.Duration) Option {
	return func(o *clientOptions) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// defaultClientOptions returns the option set all adapters start from.
func defaultClientOptions(baseURL string) clientOptions {
	return clientOptions{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		fallbackText: DefaultFallbackText,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
}

// newClientOptions builds the final option set: defaults, then the caller's
// options, then the collected timeout onto whichever client won.
func newClientOptions(baseURL string, opts []Option) clientOptions {
	o := defaultClientOptions(baseURL)
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout > 0 {
		o.httpClient.Timeout = o.timeout
	}
	return o
}

// sendJSON performs one JSON request/response exchange against a provider.
// A nil payload sends no body; a nil out discards the response body.
// Non-2xx statuses are returned as errors with a response snippet.
func sendJSON(ctx context.Context, client *http.Client, method, url string, header http.Header, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal provider request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create provider request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute provider request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("provider API error [%d]: %s", resp.StatusCode, snippet(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal provider response: %w", err)
		}
	}

	return nil
}

// snippet truncates a response body for error messages.
func snippet(body []byte) string {
	const maxLen = 200
	s := string(body)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// lastUserText returns the content of the newest user message in the built
// context, or "" if none exists.
func lastUserText(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
