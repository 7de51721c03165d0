// Package handler provides HTTP handlers for the chat gateway.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buddhai/hyundai-chat/internal/adapter"
	"github.com/buddhai/hyundai-chat/internal/domain"
	"github.com/buddhai/hyundai-chat/internal/ui"
	"github.com/gin-gonic/gin"
)

const (
	phaseInit   = "init"
	phaseAnswer = "answer"

	contentTypeHTML = "text/html; charset=utf-8"
)

// ChatHandler orchestrates the two-phase exchange protocol over a session's
// conversation. The init phase appends the user turn plus a placeholder and
// returns immediately without touching the provider; the answer phase, a
// second independent request keyed by the placeholder id, performs the
// blocking provider call and resolves the placeholder.
type ChatHandler struct {
	store        *domain.SessionStore
	manager      *domain.ConversationManager
	provider     adapter.ChatProvider
	renderer     *Renderer
	logger       *slog.Logger
	fallbackText string
}

// ChatHandlerOption is a functional option for configuring ChatHandler.
type ChatHandlerOption func(*ChatHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ChatHandlerOption {
	return func(h *ChatHandler) {
		h.logger = logger
	}
}

// WithFallbackText overrides the sentinel used when context building fails
// before a provider call can happen.
func WithFallbackText(text string) ChatHandlerOption {
	return func(h *ChatHandler) {
		if text != "" {
			h.fallbackText = text
		}
	}
}

// NewChatHandler creates a ChatHandler bound to one provider adapter.
// Provider selection happens once at construction, not per request.
func NewChatHandler(
	store *domain.SessionStore,
	manager *domain.ConversationManager,
	provider adapter.ChatProvider,
	renderer *Renderer,
	opts ...ChatHandlerOption,
) *ChatHandler {
	h := &ChatHandler{
		store:        store,
		manager:      manager,
		provider:     provider,
		renderer:     renderer,
		logger:       slog.Default(),
		fallbackText: adapter.DefaultFallbackText,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleIndex handles GET /
// Renders the full chat page for the session, creating fresh state on first visit.
func (h *ChatHandler) HandleIndex(c *gin.Context) {
	conv := h.store.Get(h.sessionToken(c))

	page, err := h.renderer.Page(conv.VisibleMessages())
	if err != nil {
		h.logger.Error("page render failed", slog.String("error", err.Error()))
		c.String(http.StatusInternalServerError, "render error")
		return
	}

	c.Data(http.StatusOK, contentTypeHTML, []byte(page))
}

// HandleMessage handles POST /message
// The phase query parameter splits one user turn into two requests:
// phase=init appends the turn, phase=answer fetches the reply.
// A wrong or missing phase marker is a caller error.
func (h *ChatHandler) HandleMessage(c *gin.Context) {
	switch c.Query("phase") {
	case phaseInit:
		h.handleInit(c)
	case phaseAnswer:
		h.handleAnswer(c)
	default:
		c.String(http.StatusBadRequest, "unknown phase marker")
	}
}

// handleInit appends the user message and its pending placeholder, then
// returns the two bubbles. No provider call happens here; the placeholder
// fragment instructs the page to auto-issue the answer request.
func (h *ChatHandler) handleInit(c *gin.Context) {
	text := strings.TrimSpace(c.PostForm("message"))

	conv := h.store.Get(h.sessionToken(c))
	placeholderID, err := h.manager.AppendUserTurn(conv, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			c.String(http.StatusBadRequest, "message text is required")
			return
		}
		h.logger.Error("append failed", slog.String("error", err.Error()))
		c.String(http.StatusInternalServerError, "append error")
		return
	}

	msgs := conv.Messages()
	user, placeholder := msgs[len(msgs)-2], msgs[len(msgs)-1]

	fragment, err := h.renderer.UserTurn(user, placeholder)
	if err != nil {
		h.logger.Error("fragment render failed", slog.String("error", err.Error()))
		c.String(http.StatusInternalServerError, "render error")
		return
	}

	h.logger.Debug("turn submitted",
		slog.String("conversation_id", conv.ID),
		slog.String("placeholder_id", placeholderID),
	)

	c.Data(http.StatusOK, contentTypeHTML, []byte(fragment))
}

// handleAnswer performs the provider call for a previously submitted turn and
// resolves its placeholder. This is the only blocking step: it runs on its
// own request goroutine, so a slow provider never stalls other sessions.
func (h *ChatHandler) handleAnswer(c *gin.Context) {
	placeholderID := c.Query("placeholder")
	if placeholderID == "" {
		c.String(http.StatusBadRequest, "placeholder id is required")
		return
	}

	// The answer phase never creates state: a token with no conversation
	// (store reset between the phases) is a caller error.
	conv, ok := h.store.Lookup(h.sessionToken(c))
	if !ok {
		c.String(http.StatusBadRequest, "unknown session")
		return
	}

	if _, err := h.manager.LastUserMessage(conv); err != nil {
		c.String(http.StatusBadRequest, "no user message to answer")
		return
	}

	reply := h.produceReply(c.Request.Context(), conv)
	h.manager.ResolvePlaceholder(conv, placeholderID, reply)

	fragment, err := h.renderer.AssistantBubble(h.resolvedMessage(conv, placeholderID))
	if err != nil {
		h.logger.Error("fragment render failed", slog.String("error", err.Error()))
		c.String(http.StatusInternalServerError, "render error")
		return
	}

	c.Data(http.StatusOK, contentTypeHTML, []byte(fragment))
}

// produceReply builds provider context and invokes the adapter. A context
// build failure degrades to the sentinel without any network call; the
// adapter itself never fails past its boundary.
func (h *ChatHandler) produceReply(ctx context.Context, conv *domain.Conversation) string {
	msgs, err := h.manager.BuildContext(conv, h.provider.Capabilities())
	if err != nil {
		h.logger.Warn("context build failed",
			slog.String("conversation_id", conv.ID),
			slog.String("provider", h.provider.Name()),
			slog.String("error", err.Error()),
		)
		ui.PrintFallback(h.provider.Name(), "context build failed")
		return h.fallbackText
	}

	reply := h.provider.Reply(ctx, conv, msgs)
	if reply == h.fallbackText {
		ui.PrintFallback(h.provider.Name(), "provider call failed")
	}
	return reply
}

// resolvedMessage finds the message the resolve call landed in: the
// placeholder itself, or the appended tail when the fallback path ran.
func (h *ChatHandler) resolvedMessage(conv *domain.Conversation, placeholderID string) domain.Message {
	msgs := conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == placeholderID {
			return msgs[i]
		}
	}
	return msgs[len(msgs)-1]
}

// HandleReset handles GET /reset
// Deletes the session's conversation entirely; the redirect recreates fresh
// greeting state on the next page load.
func (h *ChatHandler) HandleReset(c *gin.Context) {
	token := h.sessionToken(c)
	h.store.Reset(token)

	h.logger.Info("session reset", slog.String("session", maskToken(token)))
	ui.PrintReset(maskToken(token))

	c.Redirect(http.StatusSeeOther, "/")
}

// HandleHealth handles GET /health
// Returns server health status.
func (h *ChatHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"provider": h.provider.Name(),
		"sessions": h.store.Len(),
	})
}

// sessionToken reads the session token placed in the context by SessionMiddleware.
func (h *ChatHandler) sessionToken(c *gin.Context) string {
	return c.GetString(ContextKeySession)
}
