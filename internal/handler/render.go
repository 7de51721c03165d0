// Package handler provides HTTP handlers for the chat gateway.
package handler

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

// Renderer turns conversation state into the HTMX chat page and its fragments.
// The init phase returns the user bubble plus a placeholder bubble that
// auto-triggers the answer phase on load; the answer phase returns the
// resolved assistant bubble that swaps over the placeholder.
type Renderer struct {
	title string
}

// NewRenderer creates a Renderer with the given page title.
func NewRenderer(title string) *Renderer {
	return &Renderer{title: title}
}

// bubble is the view model for one transcript message.
type bubble struct {
	ID        string
	Role      domain.Role
	Content   template.HTML
	Pending   bool
	AnswerURL string
}

// pageData is the view model for the full chat page.
type pageData struct {
	Title    string
	Messages []bubble
}

// Page renders the full chat interface for the visible transcript.
func (r *Renderer) Page(msgs []domain.Message) (string, error) {
	data := pageData{
		Title:    r.title,
		Messages: make([]bubble, 0, len(msgs)),
	}
	for _, msg := range msgs {
		data.Messages = append(data.Messages, toBubble(msg))
	}

	var sb strings.Builder
	if err := chatTemplates.ExecuteTemplate(&sb, "page", data); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return sb.String(), nil
}

// UserTurn renders the init-phase fragment: the submitted user bubble followed
// by the pending placeholder bubble.
func (r *Renderer) UserTurn(user, placeholder domain.Message) (string, error) {
	var sb strings.Builder
	if err := chatTemplates.ExecuteTemplate(&sb, "user_bubble", toBubble(user)); err != nil {
		return "", fmt.Errorf("failed to render user bubble: %w", err)
	}
	if err := chatTemplates.ExecuteTemplate(&sb, "placeholder_bubble", toBubble(placeholder)); err != nil {
		return "", fmt.Errorf("failed to render placeholder bubble: %w", err)
	}
	return sb.String(), nil
}

// AssistantBubble renders the answer-phase fragment replacing the placeholder.
func (r *Renderer) AssistantBubble(msg domain.Message) (string, error) {
	var sb strings.Builder
	if err := chatTemplates.ExecuteTemplate(&sb, "assistant_bubble", toBubble(msg)); err != nil {
		return "", fmt.Errorf("failed to render assistant bubble: %w", err)
	}
	return sb.String(), nil
}

// toBubble converts a message into its view model.
func toBubble(msg domain.Message) bubble {
	return bubble{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   formatContent(msg.Content),
		Pending:   msg.Pending,
		AnswerURL: "/message?phase=answer&placeholder=" + msg.ID,
	}
}

// formatContent escapes message text and converts newlines to <br>.
func formatContent(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// chatTemplates holds the page and bubble fragments.
var chatTemplates = template.Must(template.New("chat").Parse(`
{{define "user_bubble"}}
<div class="chat-message user-message flex justify-end mb-4 items-start animate-fadeIn">
  <div class="bubble bg-gray-100 border-r-2 border-gray-300 p-3 rounded-lg shadow" style="max-width:70%;">{{.Content}}</div>
</div>
{{end}}

{{define "assistant_bubble"}}
<div id="msg-{{.ID}}" class="chat-message assistant-message flex mb-4 items-start animate-fadeIn">
  <div class="bubble bg-gray-200 border-l-2 border-teal-400 p-3 rounded-lg shadow" style="max-width:70%;">{{.Content}}</div>
</div>
{{end}}

{{define "placeholder_bubble"}}
<div id="msg-{{.ID}}" class="chat-message assistant-message flex mb-4 items-start"
     hx-post="{{.AnswerURL}}"
     hx-trigger="load"
     hx-swap="outerHTML">
  <div class="bubble bg-gray-200 border-l-2 border-teal-400 p-3 rounded-lg shadow" style="max-width:70%;">{{.Content}}</div>
</div>
{{end}}

{{define "message"}}
{{if eq .Role "user"}}{{template "user_bubble" .}}{{else if .Pending}}{{template "placeholder_bubble" .}}{{else}}{{template "assistant_bubble" .}}{{end}}
{{end}}

{{define "page"}}<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/htmx.org@1.7.0"></script>
  <link href="https://cdn.jsdelivr.net/npm/tailwindcss@2.2.19/dist/tailwind.min.css" rel="stylesheet" />
  <style>
    html, body { margin: 0; padding: 0; height: 100%; }
    body { font-family: 'Noto Sans KR', sans-serif; background-color: #f6f2eb; }
    @keyframes fadeIn {
      0% { opacity: 0; transform: translateY(10px); }
      100% { opacity: 1; transform: translateY(0); }
    }
    .animate-fadeIn { animation: fadeIn 0.4s ease-in-out forwards; }
    .chat-container {
      position: relative; width: 100%; max-width: 800px; height: 90vh; margin: auto;
      background-color: rgba(255, 255, 255, 0.9); border-radius: 1rem;
      box-shadow: 0 8px 24px rgba(0,0,0,0.2); overflow: hidden;
    }
    #chat-header {
      position: absolute; top: 0; left: 0; right: 0; height: 60px;
      display: flex; align-items: center; justify-content: space-between;
      padding: 0 1rem; border-bottom: 1px solid rgba(0,0,0,0.1);
    }
    #chat-messages {
      position: absolute; top: 60px; bottom: 70px; left: 0; right: 0;
      overflow-y: auto; padding: 1rem;
    }
    #chat-input {
      position: absolute; bottom: 0; left: 0; right: 0; height: 70px;
      display: flex; align-items: center; padding: 0 1rem;
      border-top: 1px solid rgba(0,0,0,0.1);
    }
  </style>
</head>
<body class="h-full flex items-center justify-center">
  <div class="chat-container">
    <div id="chat-header">
      <div class="flex items-center font-bold">{{.Title}}</div>
      <form action="/reset" method="get" class="flex justify-end">
        <button class="bg-gray-900 hover:bg-gray-700 text-white py-2 px-4 rounded-full shadow-md">↻</button>
      </form>
    </div>
    <div id="chat-messages">
{{range .Messages}}{{template "message" .}}{{end}}
    </div>
    <div id="chat-input">
      <form id="chat-form"
            hx-post="/message?phase=init"
            hx-target="#chat-messages"
            hx-swap="beforeend"
            onsubmit="setTimeout(() => this.reset(), 0)"
            class="flex w-full">
        <input type="text" name="message" placeholder="메시지"
               class="flex-1 p-3 rounded-l-full bg-white border border-gray-300 focus:outline-none text-gray-700"
               required />
        <button type="submit"
                class="bg-gray-900 hover:bg-gray-700 text-white py-2 px-4 rounded-r-full shadow-md">→</button>
      </form>
    </div>
    <div class="absolute bottom-2 w-full text-center text-gray-500 text-xs">
      {{.Title}}는 실수를 할 수 있습니다. 중요한 정보는 재차 확인하세요.
    </div>
  </div>
  <script>
    function scrollToBottom() {
      var chatMessages = document.getElementById("chat-messages");
      chatMessages.scrollTop = chatMessages.scrollHeight;
    }
    document.addEventListener("htmx:afterSwap", (event) => {
      if (event.detail.target.id === "chat-messages") { scrollToBottom(); }
    });
    document.addEventListener("htmx:afterSettle", scrollToBottom);
    window.addEventListener("load", scrollToBottom);
  </script>
</body>
</html>
{{end}}
`))
