package handler

import (
	"strings"
	"testing"
	"time"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

func TestFormatContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "newlines become br",
			input: "첫 줄\n둘째 줄",
			want:  "첫 줄<br>둘째 줄",
		},
		{
			name:  "html is escaped",
			input: "<script>alert(1)</script>",
			want:  "&lt;script&gt;alert(1)&lt;/script&gt;",
		},
		{
			name:  "plain text unchanged",
			input: "안녕하세요",
			want:  "안녕하세요",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(formatContent(tt.input)); got != tt.want {
				t.Errorf("formatContent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderer_UserTurn(t *testing.T) {
	r := NewRenderer("테스트 AI")

	now := time.Now()
	user := domain.Message{ID: "u1", Role: domain.RoleUser, Content: "안녕", CreatedAt: now}
	placeholder := domain.Message{
		ID:        "p1",
		Role:      domain.RoleAssistant,
		Content:   "답변을 생성하는 중입니다...",
		CreatedAt: now,
		Pending:   true,
	}

	fragment, err := r.UserTurn(user, placeholder)
	if err != nil {
		t.Fatalf("UserTurn() error = %v", err)
	}

	for _, want := range []string{
		"안녕",
		"답변을 생성하는 중입니다...",
		`id="msg-p1"`,
		"/message?phase=answer&amp;placeholder=p1",
		`hx-trigger="load"`,
		`hx-swap="outerHTML"`,
	} {
		if !strings.Contains(fragment, want) {
			t.Errorf("UserTurn() fragment missing %q:\n%s", want, fragment)
		}
	}
}

func TestRenderer_Page(t *testing.T) {
	r := NewRenderer("현대불교신문 AI")

	m := domain.NewConversationManager("안녕하세요", domain.WithSystemPrompt("숨김"))
	conv := m.Create()
	m.AppendUserTurn(conv, "질문")

	page, err := r.Page(conv.VisibleMessages())
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}

	if !strings.Contains(page, "현대불교신문 AI") {
		t.Error("page missing title")
	}
	if !strings.Contains(page, "안녕하세요") || !strings.Contains(page, "질문") {
		t.Error("page missing transcript bubbles")
	}
	if strings.Contains(page, "숨김") {
		t.Error("system message leaked into the page")
	}
	// A pending placeholder on a reloaded page must still trigger the answer phase.
	if !strings.Contains(page, `hx-trigger="load"`) {
		t.Error("pending placeholder lost its answer trigger on full page render")
	}
}
