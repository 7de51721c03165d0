// Package adapter provides implementations for external completion provider integrations.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

// DefaultCompletionBaseURL is the default endpoint for the stateless replay provider.
const DefaultCompletionBaseURL = "https://api.openai.com/v1"

// CompletionAdapter implements ChatProvider for the stateless history-replay
// call pattern: no provider-side state exists, so every call sends the entire
// built context. The provider enforces strict user/assistant alternation, so
// context must end on a user message; a violated precondition short-circuits
// to the sentinel without a network call.
type CompletionAdapter struct {
	apiKey string
	model  string
	opts   clientOptions
}

// NewCompletionAdapter creates a CompletionAdapter for the given credential and model.
func NewCompletionAdapter(apiKey, model string, opts ...Option) *CompletionAdapter {
	return &CompletionAdapter{
		apiKey: apiKey,
		model:  model,
		opts:   newClientOptions(DefaultCompletionBaseURL, opts),
	}
}

// Name returns the provider identifier.
func (a *CompletionAdapter) Name() string {
	return "completion"
}

// Capabilities describes the context shape this provider needs.
func (a *CompletionAdapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{
		WantsSystemMessage:     true,
		RequiresUserTerminated: true,
		Stateful:               false,
	}
}

// Reply replays the whole context through the completion endpoint and returns
// the first choice with citation markers stripped. Every failure collapses to
// the fallback sentinel.
func (a *CompletionAdapter) Reply(ctx context.Context, conv *domain.Conversation, msgs []domain.Message) string {
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != domain.RoleUser {
		a.opts.logger.Warn("completion context not user-terminated",
			slog.String("conversation_id", conv.ID),
			slog.Int("context_len", len(msgs)),
		)
		return a.opts.fallbackText
	}

	payload := completionRequest{
		Model:    a.model,
		Messages: make([]completionMessage, 0, len(msgs)),
	}
	for _, msg := range msgs {
		payload.Messages = append(payload.Messages, completionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	var resp completionResponse
	url := fmt.Sprintf("%s/chat/completions", a.opts.baseURL)
	if err := sendJSON(ctx, a.opts.httpClient, http.MethodPost, url, a.header(), payload, &resp); err != nil {
		a.opts.logger.Warn("completion call failed",
			slog.String("conversation_id", conv.ID),
			slog.String("error", err.Error()),
		)
		return a.opts.fallbackText
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return a.opts.fallbackText
	}

	return StripCitations(resp.Choices[0].Message.Content)
}

// header returns the auth headers for the completion API.
func (a *CompletionAdapter) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+a.apiKey)
	return h
}

// ============================================================================
// Completion API Types
// ============================================================================

// completionRequest replays the full conversation history.
type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

// completionMessage is one turn of replayed history.
type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionResponse holds the generated choices.
type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

// completionChoice is a single generated candidate.
type completionChoice struct {
	Message completionMessage `json:"message"`
}
