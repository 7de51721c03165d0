package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

func TestCompletionAdapter_ReplaysFullHistory(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "반갑습니다【1:1†source】"}},
			},
		})
	}))
	defer server.Close()

	a := NewCompletionAdapter("test-key", "gpt-4o-mini", WithBaseURL(server.URL))

	m := domain.NewConversationManager("안녕하세요", domain.WithSystemPrompt("간결하게 답하세요."))
	conv := m.Create()
	pid, _ := m.AppendUserTurn(conv, "첫 질문")
	m.ResolvePlaceholder(conv, pid, "첫 답변")
	m.AppendUserTurn(conv, "둘째 질문")

	msgs, err := m.BuildContext(conv, a.Capabilities())
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}

	got := a.Reply(context.Background(), conv, msgs)
	if got != "반갑습니다" {
		t.Errorf("Reply() = %q, want 반갑습니다 (citation stripped)", got)
	}

	// system + greeting + user + assistant + user, replayed in order.
	wantRoles := []string{"system", "assistant", "user", "assistant", "user"}
	if len(captured.Messages) != len(wantRoles) {
		t.Fatalf("replayed %d messages, want %d", len(captured.Messages), len(wantRoles))
	}
	for i, role := range wantRoles {
		if captured.Messages[i].Role != role {
			t.Errorf("Messages[%d].Role = %s, want %s", i, captured.Messages[i].Role, role)
		}
	}
	if tail := captured.Messages[len(captured.Messages)-1]; tail.Content != "둘째 질문" {
		t.Errorf("tail content = %q, want 둘째 질문", tail.Content)
	}
}

func TestCompletionAdapter_RefusesNonUserTail(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	a := NewCompletionAdapter("test-key", "gpt-4o-mini", WithBaseURL(server.URL))

	m := domain.NewConversationManager("안녕하세요")
	conv := m.Create()

	tests := []struct {
		name string
		msgs []domain.Message
	}{
		{name: "empty context", msgs: nil},
		{name: "assistant tail", msgs: conv.Messages()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Reply(context.Background(), conv, tt.msgs); got != DefaultFallbackText {
				t.Errorf("Reply() = %q, want fallback sentinel", got)
			}
		})
	}

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("provider received %d calls, want 0 (precondition short-circuits)", got)
	}
}

func TestCompletionAdapter_FailuresReturnSentinel(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not valid"))
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			a := NewCompletionAdapter("test-key", "gpt-4o-mini", WithBaseURL(server.URL))

			m := domain.NewConversationManager("안녕하세요")
			conv := m.Create()
			m.AppendUserTurn(conv, "질문")
			msgs, err := m.BuildContext(conv, a.Capabilities())
			if err != nil {
				t.Fatalf("BuildContext() error = %v", err)
			}

			if got := a.Reply(context.Background(), conv, msgs); got != DefaultFallbackText {
				t.Errorf("Reply() = %q, want fallback sentinel", got)
			}
		})
	}
}
