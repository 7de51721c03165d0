// Package adapter provides implementations for external completion provider integrations.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

// DefaultAssistantBaseURL is the default endpoint for the thread-polling provider.
const DefaultAssistantBaseURL = "https://api.openai.com/v1"

// Terminal run statuses. Polling stops on the first of these.
const (
	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
	runStatusCancelled = "cancelled"
	runStatusExpired   = "expired"
)

// AssistantAdapter implements ChatProvider for the remote-thread call pattern:
// a provider-side thread holds the multi-turn context, each reply posts the
// newest user text, starts a run and polls it to a terminal status.
//
// The thread id is cached on the conversation handle, so one conversation maps
// to one remote thread for its whole lifetime. The poll loop has no deadline
// of its own but honors ctx cancellation, so callers can layer a watchdog on
// without touching adapter internals.
type AssistantAdapter struct {
	apiKey      string
	assistantID string
	opts        clientOptions
}

// NewAssistantAdapter creates an AssistantAdapter for the given credential and
// remote assistant id.
func NewAssistantAdapter(apiKey, assistantID string, opts ...Option) *AssistantAdapter {
	return &AssistantAdapter{
		apiKey:      apiKey,
		assistantID: assistantID,
		opts:        newClientOptions(DefaultAssistantBaseURL, opts),
	}
}

// Name returns the provider identifier.
func (a *AssistantAdapter) Name() string {
	return "assistant"
}

// Capabilities describes the context shape this provider needs. The remote
// assistant carries its own instructions, so no system message is sent, and
// only the newest user text goes over the wire.
func (a *AssistantAdapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{
		WantsSystemMessage:     false,
		RequiresUserTerminated: false,
		Stateful:               true,
	}
}

// Reply runs the thread state machine: ensure thread, post message, start run,
// poll to a terminal status, fetch the newest assistant message. Every failure
// along the way collapses to the fallback sentinel.
func (a *AssistantAdapter) Reply(ctx context.Context, conv *domain.Conversation, msgs []domain.Message) string {
	threadID, err := a.ensureThread(ctx, conv)
	if err != nil {
		a.opts.logger.Warn("thread creation failed",
			slog.String("conversation_id", conv.ID),
			slog.String("error", err.Error()),
		)
		return a.opts.fallbackText
	}

	userText := lastUserText(msgs)
	if userText == "" {
		return a.opts.fallbackText
	}

	if err := a.postMessage(ctx, threadID, userText); err != nil {
		a.opts.logger.Warn("message post failed",
			slog.String("thread_id", threadID),
			slog.String("error", err.Error()),
		)
		return a.opts.fallbackText
	}

	runID, err := a.startRun(ctx, threadID)
	if err != nil {
		a.opts.logger.Warn("run start failed",
			slog.String("thread_id", threadID),
			slog.String("error", err.Error()),
		)
		return a.opts.fallbackText
	}

	status, err := a.waitForRun(ctx, threadID, runID)
	if err != nil || status != runStatusCompleted {
		a.opts.logger.Warn("run did not complete",
			slog.String("thread_id", threadID),
			slog.String("run_id", runID),
			slog.String("status", status),
		)
		return a.opts.fallbackText
	}

	text, err := a.latestAssistantText(ctx, threadID)
	if err != nil {
		a.opts.logger.Warn("message fetch failed",
			slog.String("thread_id", threadID),
			slog.String("error", err.Error()),
		)
		return a.opts.fallbackText
	}

	return StripCitations(text)
}

// ensureThread returns the conversation's remote thread id, creating one on
// first use. On creation failure the handle stays absent so the next reply
// retries creation.
func (a *AssistantAdapter) ensureThread(ctx context.Context, conv *domain.Conversation) (string, error) {
	if handle := conv.Handle(); handle != "" {
		return handle, nil
	}

	var thread assistantThread
	url := fmt.Sprintf("%s/threads", a.opts.baseURL)
	if err := sendJSON(ctx, a.opts.httpClient, http.MethodPost, url, a.header(), struct{}{}, &thread); err != nil {
		return "", err
	}
	if thread.ID == "" {
		return "", fmt.Errorf("thread creation returned empty id")
	}

	conv.SetHandle(thread.ID)
	return thread.ID, nil
}

// postMessage appends the user text to the remote thread.
func (a *AssistantAdapter) postMessage(ctx context.Context, threadID, text string) error {
	url := fmt.Sprintf("%s/threads/%s/messages", a.opts.baseURL, threadID)
	payload := assistantMessageRequest{Role: "user", Content: text}
	return sendJSON(ctx, a.opts.httpClient, http.MethodPost, url, a.header(), payload, nil)
}

// startRun starts a run of the configured assistant over the thread.
func (a *AssistantAdapter) startRun(ctx context.Context, threadID string) (string, error) {
	var run assistantRun
	url := fmt.Sprintf("%s/threads/%s/runs", a.opts.baseURL, threadID)
	payload := assistantRunRequest{AssistantID: a.assistantID}
	if err := sendJSON(ctx, a.opts.httpClient, http.MethodPost, url, a.header(), payload, &run); err != nil {
		return "", err
	}
	if run.ID == "" {
		return "", fmt.Errorf("run start returned empty id")
	}
	return run.ID, nil
}

// waitForRun polls the run status on a fixed interval until it is terminal or
// the context is cancelled.
func (a *AssistantAdapter) waitForRun(ctx context.Context, threadID, runID string) (string, error) {
	url := fmt.Sprintf("%s/threads/%s/runs/%s", a.opts.baseURL, threadID, runID)

	for {
		var run assistantRun
		if err := sendJSON(ctx, a.opts.httpClient, http.MethodGet, url, a.header(), nil, &run); err != nil {
			return "", err
		}

		switch run.Status {
		case runStatusCompleted, runStatusFailed, runStatusCancelled, runStatusExpired:
			return run.Status, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(a.opts.pollInterval):
		}
	}
}

// latestAssistantText fetches the newest message on the thread.
func (a *AssistantAdapter) latestAssistantText(ctx context.Context, threadID string) (string, error) {
	var list assistantMessageList
	url := fmt.Sprintf("%s/threads/%s/messages?limit=1&order=desc", a.opts.baseURL, threadID)
	if err := sendJSON(ctx, a.opts.httpClient, http.MethodGet, url, a.header(), nil, &list); err != nil {
		return "", err
	}

	if len(list.Data) == 0 || len(list.Data[0].Content) == 0 {
		return "", fmt.Errorf("thread has no readable message")
	}
	return list.Data[0].Content[0].Text.Value, nil
}

// header returns the auth headers required by the thread API.
func (a *AssistantAdapter) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+a.apiKey)
	h.Set("OpenAI-Beta", "assistants=v2")
	return h
}

// ============================================================================
// Thread API Types
// ============================================================================

// assistantThread represents a created remote thread.
type assistantThread struct {
	ID string `json:"id"`
}

// assistantMessageRequest appends a message to a thread.
type assistantMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// assistantRunRequest starts a run over a thread.
type assistantRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

// assistantRun represents a run and its lifecycle status.
type assistantRun struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// assistantMessageList is a page of thread messages, newest first.
type assistantMessageList struct {
	Data []assistantMessage `json:"data"`
}

// assistantMessage is a single thread message.
type assistantMessage struct {
	Role    string             `json:"role"`
	Content []assistantContent `json:"content"`
}

// assistantContent is one content block of a thread message.
type assistantContent struct {
	Type string        `json:"type"`
	Text assistantText `json:"text"`
}

// assistantText holds the text value of a content block.
type assistantText struct {
	Value string `json:"value"`
}
