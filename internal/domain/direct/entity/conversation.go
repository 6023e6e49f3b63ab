package entity

import "github.com/vadim/igdm-console/internal/domain/common"

// Conversation is a DM thread between a connected account and one participant
type Conversation struct {
	ID                    int64       `json:"id"`
	ThreadID              string      `json:"thread_id"`
	ParticipantID         string      `json:"participant_id,omitempty"`
	ParticipantUsername   string      `json:"participant_username,omitempty"`
	ParticipantProfilePic string      `json:"participant_profile_pic,omitempty"`
	LastMessageTime       common.Time `json:"last_message_time"`
	UnreadCount           int         `json:"unread_count"`
}

// Validate checks the fields the inbox relies on
func (c Conversation) Validate() error {
	if c.ID <= 0 {
		return ErrMissingConversationID
	}
	if c.ThreadID == "" {
		return ErrMissingThreadID
	}
	return nil
}

// Title returns the participant label shown in the conversation list
func (c Conversation) Title() string {
	switch {
	case c.ParticipantUsername != "":
		return "@" + c.ParticipantUsername
	case c.ParticipantID != "":
		return c.ParticipantID
	default:
		return c.ThreadID
	}
}

// FindConversation returns the conversation with the given id, or the first
// one when id is zero.
func FindConversation(conversations []Conversation, id int64) (Conversation, bool) {
	if len(conversations) == 0 {
		return Conversation{}, false
	}
	if id == 0 {
		return conversations[0], true
	}
	for _, c := range conversations {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}
