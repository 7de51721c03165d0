package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

// newThreadServer simulates the remote-thread provider. The run reports
// "in_progress" for pollsBeforeDone status checks, then finalStatus.
func newThreadServer(t *testing.T, pollsBeforeDone int32, finalStatus, messageText string) *httptest.Server {
	t.Helper()
	var polls int32

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			json.NewEncoder(w).Encode(map[string]string{"id": "thread_123"})

		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_123/messages":
			json.NewEncoder(w).Encode(map[string]string{"id": "msg_1"})

		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_123/runs":
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "queued"})

		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_123/runs/run_1":
			status := "in_progress"
			if atomic.AddInt32(&polls, 1) > pollsBeforeDone {
				status = finalStatus
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": status})

		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_123/messages":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{
						"role": "assistant",
						"content": []map[string]interface{}{
							{"type": "text", "text": map[string]string{"value": messageText}},
						},
					},
				},
			})

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newAssistantConversation() *domain.Conversation {
	m := domain.NewConversationManager("안녕하세요")
	conv := m.Create()
	m.AppendUserTurn(conv, "질문입니다")
	return conv
}

func contextFor(t *testing.T, conv *domain.Conversation, caps domain.Capabilities) []domain.Message {
	t.Helper()
	msgs, err := domain.NewConversationManager("안녕하세요").BuildContext(conv, caps)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}
	return msgs
}

func TestAssistantAdapter_ReplyCompletes(t *testing.T) {
	server := newThreadServer(t, 2, "completed", "답변【3:2†source】입니다")
	defer server.Close()

	a := NewAssistantAdapter("test-key", "asst_1",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)
	conv := newAssistantConversation()
	msgs := contextFor(t, conv, a.Capabilities())

	got := a.Reply(context.Background(), conv, msgs)
	if got != "답변입니다" {
		t.Errorf("Reply() = %q, want 답변입니다 (citation stripped)", got)
	}
	if conv.Handle() != "thread_123" {
		t.Errorf("Handle() = %q, want thread_123", conv.Handle())
	}
}

func TestAssistantAdapter_ReusesThread(t *testing.T) {
	var threadCreations int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			atomic.AddInt32(&threadCreations, 1)
			json.NewEncoder(w).Encode(map[string]string{"id": "thread_123"})
		case strings.HasSuffix(r.URL.Path, "/runs"):
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "completed"})
		case strings.Contains(r.URL.Path, "/runs/"):
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "completed"})
		case strings.HasSuffix(r.URL.Path, "/messages") && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"role": "assistant", "content": []map[string]interface{}{
						{"type": "text", "text": map[string]string{"value": "reply"}},
					}},
				},
			})
		default:
			json.NewEncoder(w).Encode(map[string]string{"id": "msg_1"})
		}
	}))
	defer server.Close()

	a := NewAssistantAdapter("test-key", "asst_1",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)
	conv := newAssistantConversation()
	msgs := contextFor(t, conv, a.Capabilities())

	a.Reply(context.Background(), conv, msgs)
	a.Reply(context.Background(), conv, msgs)

	if got := atomic.LoadInt32(&threadCreations); got != 1 {
		t.Errorf("thread creations = %d, want 1 (handle reused)", got)
	}
}

func TestAssistantAdapter_FailuresReturnSentinel(t *testing.T) {
	tests := []struct {
		name   string
		server func(t *testing.T) *httptest.Server
	}{
		{
			name: "run failed",
			server: func(t *testing.T) *httptest.Server {
				return newThreadServer(t, 0, "failed", "")
			},
		},
		{
			name: "run expired",
			server: func(t *testing.T) *httptest.Server {
				return newThreadServer(t, 1, "expired", "")
			},
		},
		{
			name: "transport error",
			server: func(t *testing.T) *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
				}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tt.server(t)
			defer server.Close()

			a := NewAssistantAdapter("test-key", "asst_1",
				WithBaseURL(server.URL),
				WithPollInterval(time.Millisecond),
			)
			conv := newAssistantConversation()
			msgs := contextFor(t, conv, a.Capabilities())

			if got := a.Reply(context.Background(), conv, msgs); got != DefaultFallbackText {
				t.Errorf("Reply() = %q, want fallback sentinel", got)
			}
		})
	}
}

func TestAssistantAdapter_ThreadCreationFailureLeavesHandleAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	a := NewAssistantAdapter("test-key", "asst_1", WithBaseURL(server.URL))
	conv := newAssistantConversation()
	msgs := contextFor(t, conv, a.Capabilities())

	if got := a.Reply(context.Background(), conv, msgs); got != DefaultFallbackText {
		t.Errorf("Reply() = %q, want fallback sentinel", got)
	}
	if conv.Handle() != "" {
		t.Errorf("Handle() = %q after failed creation, want empty (retry next reply)", conv.Handle())
	}
}

func TestAssistantAdapter_PollHonorsContextCancel(t *testing.T) {
	// Run never leaves in_progress; cancellation must end the wait.
	server := newThreadServer(t, 1<<30, "completed", "")
	defer server.Close()

	a := NewAssistantAdapter("test-key", "asst_1",
		WithBaseURL(server.URL),
		WithPollInterval(5*time.Millisecond),
	)
	conv := newAssistantConversation()
	msgs := contextFor(t, conv, a.Capabilities())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan string, 1)
	go func() { done <- a.Reply(ctx, conv, msgs) }()

	select {
	case got := <-done:
		if got != DefaultFallbackText {
			t.Errorf("Reply() = %q, want fallback sentinel on cancellation", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Reply() did not return after context cancellation")
	}
}
