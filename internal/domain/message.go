// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

import "time"

// Role identifies the author of a message in a conversation.
// It is a closed enumeration: only the three constants below are valid.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single entry in a conversation transcript.
// Messages are immutable once superseded, with one exception: resolving an
// exchange overwrites the content of the trailing pending placeholder in place.
type Message struct {
	// ID is a version-4 UUID identifying the message. For an assistant
	// placeholder it doubles as the placeholder identifier correlating
	// the init and answer phases of an exchange.
	ID string `json:"id"`

	// Role identifies the author (system, user, assistant).
	Role Role `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// CreatedAt is when the message was appended.
	CreatedAt time.Time `json:"created_at"`

	// Pending marks an assistant placeholder still awaiting resolution.
	Pending bool `json:"pending"`
}

// Capabilities describes how conversation context must be shaped for a
// provider before it can accept a reply request.
type Capabilities struct {
	// WantsSystemMessage includes the system preamble in built context.
	WantsSystemMessage bool

	// RequiresUserTerminated requires built context to end on a user message
	// (providers enforcing strict user/assistant alternation).
	RequiresUserTerminated bool

	// Stateful indicates the provider keeps multi-turn context on its side,
	// addressed by an opaque handle stored on the conversation.
	Stateful bool
}
