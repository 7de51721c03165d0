// Package domain contains the core business entities and value objects.
package domain

// ProviderType selects which provider call pattern a deployment uses.
// Each deployment is wired to exactly one adapter at construction time.
type ProviderType string

const (
	// ProviderAssistant is the remote-thread pattern: create a thread,
	// post the user message, start a run and poll it to a terminal status.
	ProviderAssistant ProviderType = "assistant"

	// ProviderChat is the stateful chat-session pattern: a long-lived
	// provider-side session holds context, only the newest text is sent.
	ProviderChat ProviderType = "chat"

	// ProviderCompletion is the stateless pattern: the full conversation
	// history is replayed on every call.
	ProviderCompletion ProviderType = "completion"
)

// IsValid reports whether the provider type is one of the known values.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderAssistant, ProviderChat, ProviderCompletion:
		return true
	default:
		return false
	}
}
