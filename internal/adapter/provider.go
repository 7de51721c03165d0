// Package adapter provides implementations for external completion provider integrations.
// It uses the Adapter pattern to abstract three structurally different provider
// call patterns behind a common interface.
package adapter

import (
	"context"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

// ChatProvider defines the normalized contract over one provider call pattern.
// All provider implementations must satisfy this interface.
type ChatProvider interface {
	// Reply produces assistant text for the given context. It never fails past
	// this boundary: every provider error is absorbed and converted to the
	// adapter's fixed fallback text, because the conversation must always
	// advance with some assistant content. Stateful adapters may create or
	// reuse a provider-side handle stored on the conversation.
	Reply(ctx context.Context, conv *domain.Conversation, msgs []domain.Message) string

	// Capabilities describes how context must be shaped for this provider.
	Capabilities() domain.Capabilities

	// Name returns the provider's identifier string.
	Name() string
}
