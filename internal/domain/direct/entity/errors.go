package entity

import "errors"

// Domain errors for direct messages
var (
	ErrEmptyMessage          = errors.New("message text cannot be empty")
	ErrMessageTooLong        = errors.New("message exceeds maximum length")
	ErrMissingConversationID = errors.New("conversation id is missing")
	ErrMissingThreadID       = errors.New("conversation thread_id is missing")
	ErrMissingMessageID      = errors.New("message has neither id nor message_id")
	ErrMissingRecipient      = errors.New("conversation has no participant to reply to")
)
