package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"testing"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/direct/entity"
	"github.com/vadim/igdm-console/internal/domain/direct/service"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend/backendtest"
	"github.com/vadim/igdm-console/internal/storage/tokenstore"
)

func setup(t *testing.T) (*service.Service, *backendtest.Server) {
	t.Helper()

	srv := backendtest.New()
	t.Cleanup(srv.Close)
	srv.AddUser("tok", account.User{ID: 1, FacebookID: "fb"})

	store := tokenstore.NewMemory()
	_ = store.Set(context.Background(), "tok")
	client := backend.New(backend.WithBaseURL(srv.URL), backend.WithTokenSource(store))

	return service.New(client, slog.New(slog.NewTextHandler(io.Discard, nil))), srv
}

func TestLoad_NoAccounts(t *testing.T) {
	svc, srv := setup(t)

	inbox, err := svc.Load(context.Background(), service.InboxInput{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if inbox.HasAccount || len(inbox.Accounts) != 0 {
		t.Errorf("inbox = %+v", inbox)
	}
	if n := len(srv.RequestsTo("/api/instagram/conversations/0/messages")); n != 0 {
		t.Errorf("messages fetched without a conversation")
	}
}

func TestLoad_SelectsFirstAndMarksOutgoing(t *testing.T) {
	svc, srv := setup(t)
	acc := srv.AddAccount(account.InstagramAccount{InstagramBusinessAccountID: "1784", Username: "shop"})
	srv.Conversations[acc.ID] = []entity.Conversation{
		{ID: 10, ThreadID: "t-10", ParticipantID: "p-1", ParticipantUsername: "ann"},
		{ID: 11, ThreadID: "t-11", ParticipantID: "p-2"},
	}
	srv.Messages[10] = []entity.Message{
		{ID: 1, SenderID: "p-1", Text: "hi", Type: entity.MessageTypeText},
		{ID: 2, SenderID: "1784", Text: "hello", Type: entity.MessageTypeText},
		{ID: 3, IsFromMe: true, Text: "auto", Type: entity.MessageTypeText, IsAutomated: true},
	}

	inbox, err := svc.Load(context.Background(), service.InboxInput{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !inbox.HasAccount || inbox.Account.ID != acc.ID {
		t.Fatalf("account = %+v", inbox.Account)
	}
	if !inbox.HasThread || inbox.Conversation.ID != 10 {
		t.Fatalf("conversation = %+v", inbox.Conversation)
	}

	want := []bool{false, true, true}
	if len(inbox.Messages) != len(want) {
		t.Fatalf("got %d messages", len(inbox.Messages))
	}
	for i, m := range inbox.Messages {
		if m.Outgoing != want[i] {
			t.Errorf("message %d outgoing = %v, want %v", m.ID, m.Outgoing, want[i])
		}
	}
}

func TestLoad_UnknownAccount(t *testing.T) {
	svc, srv := setup(t)
	srv.AddAccount(account.InstagramAccount{InstagramBusinessAccountID: "1784"})

	_, err := svc.Load(context.Background(), service.InboxInput{AccountID: 999})
	if !errors.Is(err, account.ErrAccountNotConnected) {
		t.Errorf("Load = %v", err)
	}
}

func TestReply(t *testing.T) {
	svc, srv := setup(t)
	acc := srv.AddAccount(account.InstagramAccount{InstagramBusinessAccountID: "1784"})
	srv.Conversations[acc.ID] = []entity.Conversation{
		{ID: 10, ThreadID: "t-10", ParticipantID: "p-1"},
		{ID: 11, ThreadID: "t-11"},
	}
	ctx := context.Background()

	tests := []struct {
		name string
		in   service.ReplyInput
		want error
	}{
		{name: "blank", in: service.ReplyInput{AccountID: acc.ID, ConversationID: 10, RecipientID: "p-1", Text: "   "}, want: entity.ErrEmptyMessage},
		{name: "no participant", in: service.ReplyInput{AccountID: acc.ID, ConversationID: 11, RecipientID: " ", Text: "hi"}, want: entity.ErrMissingRecipient},
		{name: "no conversation", in: service.ReplyInput{AccountID: acc.ID, RecipientID: "p-1", Text: "hi"}, want: entity.ErrMissingConversationID},
		{name: "no account", in: service.ReplyInput{ConversationID: 10, RecipientID: "p-1", Text: "hi"}, want: account.ErrMissingAccountID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Reply(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Reply = %v, want %v", err, tt.want)
			}
		})
	}
	if len(srv.Sent) != 0 {
		t.Fatalf("invalid replies reached the backend: %+v", srv.Sent)
	}

	res, err := svc.Reply(ctx, service.ReplyInput{AccountID: acc.ID, ConversationID: 10, RecipientID: "p-1", Text: "  thanks!  "})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if !res.Success {
		t.Error("send not successful")
	}

	if len(srv.Sent) != 1 {
		t.Fatalf("sent = %d", len(srv.Sent))
	}
	sent := srv.Sent[0]
	if sent.AccountID != acc.ID || sent.Request.RecipientID != "p-1" || sent.Request.MessageText != "thanks!" || sent.Request.ConversationID != 10 {
		t.Errorf("sent = %+v", sent)
	}
}

func TestReply_SendsWithoutListingConversations(t *testing.T) {
	svc, srv := setup(t)
	acc := srv.AddAccount(account.InstagramAccount{InstagramBusinessAccountID: "1784"})
	srv.Conversations[acc.ID] = []entity.Conversation{{ID: 10, ThreadID: "t-10", ParticipantID: "p-1"}}

	_, err := svc.Reply(context.Background(), service.ReplyInput{AccountID: acc.ID, ConversationID: 10, RecipientID: "p-1", Text: "hi"})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if n := len(srv.RequestsTo("/api/instagram/accounts/" + strconv.FormatInt(acc.ID, 10) + "/conversations")); n != 0 {
		t.Errorf("conversations listed %d times before sending", n)
	}
}

func TestLoad_AccountsUnavailable(t *testing.T) {
	svc, srv := setup(t)
	srv.FailPath("/api/instagram/connected-accounts", http.StatusInternalServerError)

	inbox, err := svc.Load(context.Background(), service.InboxInput{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if inbox.AccountsLoaded {
		t.Error("accounts reported as loaded after a failed fetch")
	}
}
