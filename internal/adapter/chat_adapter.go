// Package adapter provides implementations for external completion provider integrations.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/buddhai/hyundai-chat/internal/domain"
	"github.com/google/uuid"
)

// DefaultChatBaseURL is the default endpoint for the stateful chat-session provider.
const DefaultChatBaseURL = "https://api.cohere.com/v1"

// ChatSessionAdapter implements ChatProvider for the stateful chat-session
// call pattern: the provider keeps multi-turn context under a conversation id,
// so each reply sends only the newest user text.
//
// The session is created lazily. The first reply mints a conversation id and
// sends the system preamble along with the first message; the id is cached on
// the conversation handle only once an exchange succeeds, so a failed first
// call retries with a fresh session and the preamble intact.
type ChatSessionAdapter struct {
	apiKey string
	model  string
	opts   clientOptions
}

// NewChatSessionAdapter creates a ChatSessionAdapter for the given credential and model.
func NewChatSessionAdapter(apiKey, model string, opts ...Option) *ChatSessionAdapter {
	return &ChatSessionAdapter{
		apiKey: apiKey,
		model:  model,
		opts:   newClientOptions(DefaultChatBaseURL, opts),
	}
}

// Name returns the provider identifier.
func (a *ChatSessionAdapter) Name() string {
	return "chat"
}

// Capabilities describes the context shape this provider needs. The system
// message is wanted so it can seed the session preamble on first use.
func (a *ChatSessionAdapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{
		WantsSystemMessage:     true,
		RequiresUserTerminated: false,
		Stateful:               true,
	}
}

// Reply sends the newest user text into the provider-side session and returns
// the response with bold markers stripped. Every failure collapses to the
// fallback sentinel.
func (a *ChatSessionAdapter) Reply(ctx context.Context, conv *domain.Conversation, msgs []domain.Message) string {
	userText := lastUserText(msgs)
	if userText == "" {
		return a.opts.fallbackText
	}

	sessionID, fresh := a.ensureSession(conv)

	payload := chatSessionRequest{
		Message:        userText,
		Model:          a.model,
		ConversationID: sessionID,
	}
	if fresh {
		payload.Preamble = systemText(msgs)
	}

	var resp chatSessionResponse
	url := fmt.Sprintf("%s/chat", a.opts.baseURL)
	if err := sendJSON(ctx, a.opts.httpClient, http.MethodPost, url, a.header(), payload, &resp); err != nil {
		a.opts.logger.Warn("chat session call failed",
			slog.String("conversation_id", conv.ID),
			slog.String("error", err.Error()),
		)
		return a.opts.fallbackText
	}

	if resp.Text == "" {
		return a.opts.fallbackText
	}

	if fresh {
		conv.SetHandle(sessionID)
	}

	return StripBold(resp.Text)
}

// ensureSession returns the provider-side session id for the conversation,
// minting one on first use. The second return value reports whether the
// session is new. A fresh id is not cached here: caching happens in Reply
// after the exchange succeeds, so a transient first-call failure does not
// strand the conversation on a session that never saw the preamble.
func (a *ChatSessionAdapter) ensureSession(conv *domain.Conversation) (string, bool) {
	if handle := conv.Handle(); handle != "" {
		return handle, false
	}

	return uuid.NewString(), true
}

// header returns the auth headers for the chat API.
func (a *ChatSessionAdapter) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+a.apiKey)
	return h
}

// systemText returns the content of the system message in the built context,
// or "" if none exists.
func systemText(msgs []domain.Message) string {
	for _, msg := range msgs {
		if msg.Role == domain.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// ============================================================================
// Chat Session API Types
// ============================================================================

// chatSessionRequest sends one user turn into a provider-side session.
type chatSessionRequest struct {
	Message        string `json:"message"`
	Model          string `json:"model,omitempty"`
	ConversationID string `json:"conversation_id"`
	Preamble       string `json:"preamble,omitempty"`
}

// chatSessionResponse holds the generated reply text.
type chatSessionResponse struct {
	Text string `json:"text"`
}
