package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vadim/igdm-console/internal/domain/account/entity"
	automation "github.com/vadim/igdm-console/internal/domain/automation/entity"
	direct "github.com/vadim/igdm-console/internal/domain/direct/entity"
)

// BackendClient defines the backend operations for accounts and the
// dashboard overview
type BackendClient interface {
	ListAvailableAccounts(ctx context.Context) ([]entity.AvailableAccount, error)
	ListConnectedAccounts(ctx context.Context) ([]entity.InstagramAccount, error)
	ConnectAccount(ctx context.Context, in entity.ConnectRequest) (*entity.InstagramAccount, error)
	DisconnectAccount(ctx context.Context, accountID int64) error
	ListConversations(ctx context.Context, accountID int64) ([]direct.Conversation, error)
	ListRules(ctx context.Context, accountID int64) ([]automation.Rule, error)
}

// Service handles connected Instagram accounts
type Service struct {
	api    BackendClient
	logger *slog.Logger
}

// New creates a new account service
func New(api BackendClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, logger: logger}
}

// Connected returns the accounts linked to the user
func (s *Service) Connected(ctx context.Context) ([]entity.InstagramAccount, error) {
	accounts, err := s.api.ListConnectedAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing connected accounts: %w", err)
	}
	return accounts, nil
}

// Connectable returns the business accounts reachable through the user's
// Facebook pages
func (s *Service) Connectable(ctx context.Context) ([]entity.AvailableAccount, error) {
	accounts, err := s.api.ListAvailableAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing available accounts: %w", err)
	}
	return accounts, nil
}

// Connect links an available account, looked up by its business account id
func (s *Service) Connect(ctx context.Context, businessAccountID string) (*entity.InstagramAccount, error) {
	if businessAccountID == "" {
		return nil, entity.ErrMissingBusinessID
	}

	available, err := s.Connectable(ctx)
	if err != nil {
		return nil, err
	}

	for _, a := range available {
		if a.InstagramBusinessAccountID != businessAccountID {
			continue
		}

		req := a.ConnectRequest()
		if err := req.Validate(); err != nil {
			return nil, err
		}

		acc, err := s.api.ConnectAccount(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("connecting account: %w", err)
		}

		s.logger.Info("instagram account connected", "account_id", acc.ID, "username", acc.Username)
		return acc, nil
	}

	return nil, fmt.Errorf("account %s is not available: %w", businessAccountID, entity.ErrAccountNotConnected)
}

// Disconnect unlinks an account
func (s *Service) Disconnect(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return entity.ErrMissingAccountID
	}

	if err := s.api.DisconnectAccount(ctx, accountID); err != nil {
		return fmt.Errorf("disconnecting account: %w", err)
	}

	s.logger.Info("instagram account disconnected", "account_id", accountID)
	return nil
}

// Overview is the dashboard view of one selected account
type Overview struct {
	Accounts       []entity.InstagramAccount
	AccountsLoaded bool
	Account        entity.InstagramAccount
	HasAccount     bool
	Conversations  []direct.Conversation
	Rules          []automation.Rule
	Summary        automation.Summary
}

// Overview loads the accounts, then the selected account's conversations and
// rules concurrently. accountID 0 selects the first account.
func (s *Service) Overview(ctx context.Context, accountID int64) (*Overview, error) {
	out := &Overview{}

	accounts, err := s.Connected(ctx)
	if err != nil {
		return out, err
	}
	out.Accounts = accounts
	out.AccountsLoaded = true

	out.Account, out.HasAccount = entity.FindAccount(accounts, accountID)
	if !out.HasAccount {
		if accountID != 0 && len(accounts) > 0 {
			return out, entity.ErrAccountNotConnected
		}
		return out, nil
	}

	var (
		conversations []direct.Conversation
		rules         []automation.Rule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		conversations, err = s.api.ListConversations(gctx, out.Account.ID)
		if err != nil {
			return fmt.Errorf("loading conversations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rules, err = s.api.ListRules(gctx, out.Account.ID)
		if err != nil {
			return fmt.Errorf("loading rules: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return out, err
	}

	out.Conversations = conversations
	out.Rules = rules
	out.Summary = automation.Summarize(rules)
	return out, nil
}
