package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/direct/entity"
)

// BackendClient defines the backend operations the inbox needs
type BackendClient interface {
	ListConnectedAccounts(ctx context.Context) ([]account.InstagramAccount, error)
	ListConversations(ctx context.Context, accountID int64) ([]entity.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64) ([]entity.Message, error)
	SendMessage(ctx context.Context, accountID int64, in entity.SendMessageRequest) (*entity.SendMessageResult, error)
}

// Service handles DM inbox logic
type Service struct {
	api    BackendClient
	logger *slog.Logger
}

// New creates a new direct message service
func New(api BackendClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, logger: logger}
}

// InboxInput selects what the inbox shows. Zero ids select the first entry.
type InboxInput struct {
	AccountID      int64
	ConversationID int64
}

// ThreadMessage is a message placed on its side of the thread
type ThreadMessage struct {
	entity.Message
	Outgoing bool
}

// Inbox is everything the inbox page renders. It is filled as far as the
// loads succeeded.
type Inbox struct {
	Accounts       []account.InstagramAccount
	AccountsLoaded bool
	Account        account.InstagramAccount
	HasAccount     bool
	Conversations  []entity.Conversation
	Conversation   entity.Conversation
	HasThread      bool
	Messages       []ThreadMessage
}

// Load fetches accounts, then the selected account's conversations, then the
// selected conversation's messages. Each step depends on the previous one.
func (s *Service) Load(ctx context.Context, in InboxInput) (*Inbox, error) {
	inbox := &Inbox{}

	accounts, err := s.api.ListConnectedAccounts(ctx)
	if err != nil {
		return inbox, fmt.Errorf("loading accounts: %w", err)
	}
	inbox.Accounts = accounts
	inbox.AccountsLoaded = true

	inbox.Account, inbox.HasAccount = account.FindAccount(accounts, in.AccountID)
	if !inbox.HasAccount {
		if in.AccountID != 0 && len(accounts) > 0 {
			return inbox, account.ErrAccountNotConnected
		}
		return inbox, nil
	}

	conversations, err := s.api.ListConversations(ctx, inbox.Account.ID)
	if err != nil {
		return inbox, fmt.Errorf("loading conversations: %w", err)
	}
	inbox.Conversations = conversations

	inbox.Conversation, inbox.HasThread = entity.FindConversation(conversations, in.ConversationID)
	if !inbox.HasThread {
		return inbox, nil
	}

	messages, err := s.api.ListMessages(ctx, inbox.Conversation.ID)
	if err != nil {
		return inbox, fmt.Errorf("loading messages: %w", err)
	}
	inbox.Messages = Thread(inbox.Account, messages)

	return inbox, nil
}

// Thread marks which messages the account sent. The backend flag is trusted
// when set; otherwise the sender is compared with the account's ids.
func Thread(acc account.InstagramAccount, messages []entity.Message) []ThreadMessage {
	own := map[string]bool{strconv.FormatInt(acc.ID, 10): true}
	if acc.InstagramBusinessAccountID != "" {
		own[acc.InstagramBusinessAccountID] = true
	}

	out := make([]ThreadMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ThreadMessage{
			Message:  m,
			Outgoing: m.IsFromMe || (m.SenderID != "" && own[m.SenderID]),
		})
	}
	return out
}

// ReplyInput is a text reply composed in an open conversation. RecipientID
// is the conversation's participant as shown on the page.
type ReplyInput struct {
	AccountID      int64
	ConversationID int64
	RecipientID    string
	Text           string
}

// Reply sends a text message to the participant of a conversation
func (s *Service) Reply(ctx context.Context, in ReplyInput) (*entity.SendMessageResult, error) {
	text := strings.TrimSpace(in.Text)
	if err := entity.ValidateMessageText(text); err != nil {
		return nil, err
	}
	if in.AccountID <= 0 {
		return nil, account.ErrMissingAccountID
	}
	if in.ConversationID <= 0 {
		return nil, entity.ErrMissingConversationID
	}
	recipient := strings.TrimSpace(in.RecipientID)
	if recipient == "" {
		return nil, entity.ErrMissingRecipient
	}

	result, err := s.api.SendMessage(ctx, in.AccountID, entity.SendMessageRequest{
		RecipientID:    recipient,
		MessageText:    text,
		ConversationID: in.ConversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	s.logger.Info("reply sent", "account_id", in.AccountID, "conversation_id", in.ConversationID)
	return result, nil
}
