package backend

import (
	"context"
	"net/http"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/common"
	direct "github.com/vadim/igdm-console/internal/domain/direct/entity"
)

// ListAvailableAccounts returns business accounts the user can connect
// GET /api/instagram/accounts
func (c *Client) ListAvailableAccounts(ctx context.Context) ([]account.AvailableAccount, error) {
	cl := call{
		method: http.MethodGet,
		route:  "/api/instagram/accounts",
		path:   "/api/instagram/accounts",
	}

	var out []account.AvailableAccount
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if err := validateEach(cl.endpoint(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListConnectedAccounts returns the accounts linked to the user
// GET /api/instagram/connected-accounts
func (c *Client) ListConnectedAccounts(ctx context.Context) ([]account.InstagramAccount, error) {
	cl := call{
		method: http.MethodGet,
		route:  "/api/instagram/connected-accounts",
		path:   "/api/instagram/connected-accounts",
	}

	var out []account.InstagramAccount
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if err := validateEach(cl.endpoint(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConnectAccount links a business account to the user
// POST /api/instagram/connect
func (c *Client) ConnectAccount(ctx context.Context, in account.ConnectRequest) (*account.InstagramAccount, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out account.InstagramAccount
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/instagram/connect",
		path:   "/api/instagram/connect",
		body:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DisconnectAccount unlinks an account
// DELETE /api/instagram/accounts/{id}
func (c *Client) DisconnectAccount(ctx context.Context, accountID int64) error {
	var out common.Ack
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/api/instagram/accounts/{id}",
		path:   idPath("/api/instagram/accounts/%d", accountID),
	}, &out)
}

// ListConversations returns the DM threads of an account
// GET /api/instagram/accounts/{id}/conversations
func (c *Client) ListConversations(ctx context.Context, accountID int64) ([]direct.Conversation, error) {
	cl := call{
		method: http.MethodGet,
		route:  "/api/instagram/accounts/{id}/conversations",
		path:   idPath("/api/instagram/accounts/%d/conversations", accountID),
	}

	var out []direct.Conversation
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if err := validateEach(cl.endpoint(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns the messages of a conversation
// GET /api/instagram/conversations/{id}/messages
func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]direct.Message, error) {
	cl := call{
		method: http.MethodGet,
		route:  "/api/instagram/conversations/{id}/messages",
		path:   idPath("/api/instagram/conversations/%d/messages", conversationID),
	}

	var out []direct.Message
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if err := validateEach(cl.endpoint(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage sends a text DM from the account
// POST /api/instagram/send-message?account_id={id}
func (c *Client) SendMessage(ctx context.Context, accountID int64, in direct.SendMessageRequest) (*direct.SendMessageResult, error) {
	var out direct.SendMessageResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/instagram/send-message",
		path:   "/api/instagram/send-message",
		query:  accountQuery(accountID),
		body:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
