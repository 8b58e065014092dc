package chat

import "errors"

var (
	// ErrProviderFailure wraps any failure of the upstream model call
	ErrProviderFailure = errors.New("ai provider request failed")

	ErrEmptyConversation = errors.New("conversation has no messages")
	ErrInvalidRole       = errors.New("message role must be user or assistant")
)
