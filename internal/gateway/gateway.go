// Package gateway describes the messaging capability the relay depends on.
package gateway

import "context"

// MessageRef identifies a posted message.
type MessageRef struct {
	Channel   string
	MessageID string
}

// Gateway posts, edits and reads chat messages. Implementations return errors wrapping
// domain.ErrNotFound for unknown handles and domain.ErrGateway for everything else.
type Gateway interface {
	PostMessage(ctx context.Context, channel, text string) (MessageRef, error)
	UpdateMessage(ctx context.Context, channel, messageID, text string) error
	FetchMessage(ctx context.Context, channel, messageID string) (string, error)
	// ResolveDisplayName is best effort and never fails; it falls back to "Unknown User".
	ResolveDisplayName(ctx context.Context, handle string) string
	SendDirect(ctx context.Context, handle, text string) error
}
