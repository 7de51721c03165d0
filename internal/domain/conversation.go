// Package domain contains the core business entities and value objects.
package domain

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyMessage is returned when a user turn is submitted with no text.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrNoUserMessage is returned when a conversation holds no user message.
	ErrNoUserMessage = errors.New("conversation has no user message")

	// ErrInvalidContext is returned when a provider requires user-terminated
	// context but the conversation tail is not a user message.
	ErrInvalidContext = errors.New("provider context must end with a user message")
)

// Conversation is the ordered message transcript for one session, plus an
// opaque provider-side handle for stateful providers. Insertion order is the
// only ordering; messages are never reordered.
//
// All mutation goes through ConversationManager operations, which lock the
// conversation so overlapping init/answer requests for one session serialize
// their append/resolve pairs.
type Conversation struct {
	// ID is a version-4 UUID identifying the conversation.
	ID string

	mu             sync.Mutex
	messages       []Message
	providerHandle string
}

// Messages returns a copy of the full transcript, system message included.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// VisibleMessages returns the transcript shown to the user.
// System messages are never part of the visible transcript.
func (c *Conversation) VisibleMessages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Len returns the number of messages, system message included.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Handle returns the provider-side handle, or "" if absent.
func (c *Conversation) Handle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.providerHandle
}

// SetHandle stores the opaque provider-side handle on the conversation.
func (c *Conversation) SetHandle(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providerHandle = handle
}

// ConversationManager enforces the transcript invariants: insertion order is
// preserved, at most one system message exists and only from creation, every
// user turn is immediately paired with a pending assistant placeholder, and
// resolution overwrites that placeholder in place.
type ConversationManager struct {
	greeting     string
	systemPrompt string
	pendingText  string
}

// ConversationManagerOption is a functional option for configuring ConversationManager.
type ConversationManagerOption func(*ConversationManager)

// WithSystemPrompt seeds new conversations with a hidden system preamble.
func WithSystemPrompt(prompt string) ConversationManagerOption {
	return func(m *ConversationManager) {
		m.systemPrompt = prompt
	}
}

// WithPendingText overrides the sentinel content placed in an unresolved placeholder.
func WithPendingText(text string) ConversationManagerOption {
	return func(m *ConversationManager) {
		if text != "" {
			m.pendingText = text
		}
	}
}

// DefaultPendingText is the sentinel shown while a reply is being generated.
const DefaultPendingText = "답변을 생성하는 중입니다..."

// NewConversationManager creates a manager that seeds conversations with the
// given greeting as the first assistant message.
func NewConversationManager(greeting string, opts ...ConversationManagerOption) *ConversationManager {
	m := &ConversationManager{
		greeting:    greeting,
		pendingText: DefaultPendingText,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// PendingText returns the placeholder sentinel content.
func (m *ConversationManager) PendingText() string {
	return m.pendingText
}

// Create seeds a fresh conversation: an optional system preamble followed by
// the greeting assistant message.
func (m *ConversationManager) Create() *Conversation {
	conv := &Conversation{
		ID: uuid.NewString(),
	}

	now := time.Now()
	if m.systemPrompt != "" {
		conv.messages = append(conv.messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleSystem,
			Content:   m.systemPrompt,
			CreatedAt: now,
		})
	}
	conv.messages = append(conv.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   m.greeting,
		CreatedAt: now,
	})

	return conv
}

// AppendUserTurn appends a user message followed by a pending assistant
// placeholder, and returns the placeholder id used to correlate the later
// resolve call. The message count always grows by exactly two.
//
// Returns ErrEmptyMessage for empty text; this is a caller precondition, not
// a provider failure.
func (m *ConversationManager) AppendUserTurn(conv *Conversation, text string) (string, error) {
	if text == "" {
		return "", ErrEmptyMessage
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	now := time.Now()
	placeholderID := uuid.NewString()

	conv.messages = append(conv.messages,
		Message{
			ID:        uuid.NewString(),
			Role:      RoleUser,
			Content:   text,
			CreatedAt: now,
		},
		Message{
			ID:        placeholderID,
			Role:      RoleAssistant,
			Content:   m.pendingText,
			CreatedAt: now,
			Pending:   true,
		},
	)

	return placeholderID, nil
}

// ResolvePlaceholder writes the reply into the trailing pending placeholder,
// in place, leaving the message count unchanged. If the trailing message is
// not the unresolved placeholder identified by placeholderID (resolved twice,
// or interleaved with another exchange), a new assistant message is appended
// instead. The fallback keeps history consistent; it is not an error.
func (m *ConversationManager) ResolvePlaceholder(conv *Conversation, placeholderID, replyText string) {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	if n := len(conv.messages); n > 0 {
		tail := &conv.messages[n-1]
		if tail.Pending && tail.Role == RoleAssistant && tail.ID == placeholderID {
			tail.Content = replyText
			tail.Pending = false
			return
		}
	}

	conv.messages = append(conv.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   replyText,
		CreatedAt: time.Now(),
	})
}

// LastUserMessage returns the content of the most recent user message.
// Returns ErrNoUserMessage if the conversation holds none.
func (m *ConversationManager) LastUserMessage(conv *Conversation) (string, error) {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	for i := len(conv.messages) - 1; i >= 0; i-- {
		if conv.messages[i].Role == RoleUser {
			return conv.messages[i].Content, nil
		}
	}
	return "", ErrNoUserMessage
}

// BuildContext shapes the transcript for a provider call. A trailing pending
// placeholder is always dropped. The system message is included only when the
// provider wants it. When the provider requires user-terminated context, the
// tail must be a user message or ErrInvalidContext is returned before any
// network call can happen.
func (m *ConversationManager) BuildContext(conv *Conversation, caps Capabilities) ([]Message, error) {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	msgs := conv.messages
	if n := len(msgs); n > 0 && msgs[n-1].Pending {
		msgs = msgs[:n-1]
	}

	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == RoleSystem && !caps.WantsSystemMessage {
			continue
		}
		out = append(out, msg)
	}

	if caps.RequiresUserTerminated {
		if len(out) == 0 || out[len(out)-1].Role != RoleUser {
			return nil, ErrInvalidContext
		}
	}

	return out, nil
}
