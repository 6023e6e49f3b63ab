package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadim/igdm-console/internal/domain/automation/entity"
	"github.com/vadim/igdm-console/internal/storage"
)

// ErrExportDisabled is returned by Export when no exporter is configured
var ErrExportDisabled = errors.New("rule export is not configured")

// RuleAPI is the backend surface for automation rules
type RuleAPI interface {
	ListRules(ctx context.Context, accountID int64) ([]entity.Rule, error)
	GetRule(ctx context.Context, ruleID int64) (*entity.Rule, error)
	CreateRule(ctx context.Context, accountID int64, in entity.CreateRuleRequest) (*entity.Rule, error)
	UpdateRule(ctx context.Context, ruleID int64, in entity.RuleInput) (*entity.Rule, error)
	DeleteRule(ctx context.Context, ruleID int64) error
	ToggleRule(ctx context.Context, ruleID int64) (entity.RuleStatus, error)
}

// Exporter stores rule-set snapshots
type Exporter interface {
	PutJSON(ctx context.Context, prefix string, data []byte) (*storage.Object, error)
}

// Service handles automation rule management for the console
type Service struct {
	api      RuleAPI
	exporter Exporter
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new automation service. exporter may be nil.
func New(api RuleAPI, exporter Exporter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      api,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// ExportEnabled reports whether Export can be used
func (s *Service) ExportEnabled() bool {
	return s.exporter != nil
}

// Overview is the rule list of one account with its aggregated counters
type Overview struct {
	Rules   []entity.Rule
	Summary entity.Summary
}

// List returns the rules of an account in the order the backend sent them
func (s *Service) List(ctx context.Context, accountID int64) (*Overview, error) {
	rules, err := s.api.ListRules(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}

	return &Overview{
		Rules:   rules,
		Summary: entity.Summarize(rules),
	}, nil
}

// Get returns a rule staged for editing
func (s *Service) Get(ctx context.Context, ruleID int64) (*entity.Rule, entity.RuleForm, error) {
	if ruleID <= 0 {
		return nil, entity.RuleForm{}, entity.ErrMissingRuleID
	}

	rule, err := s.api.GetRule(ctx, ruleID)
	if err != nil {
		return nil, entity.RuleForm{}, fmt.Errorf("getting rule: %w", err)
	}

	return rule, entity.FormFromRule(*rule), nil
}

// Create validates the form and creates a rule for the account
func (s *Service) Create(ctx context.Context, accountID int64, form entity.RuleForm) (*entity.Rule, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	req := entity.CreateRuleRequest{RuleInput: form.Input()}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rule, err := s.api.CreateRule(ctx, accountID, req)
	if err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}

	s.logger.Info("automation rule created", "rule_id", rule.ID, "account_id", accountID)
	return rule, nil
}

// Update validates the form and replaces the editable fields of a rule
func (s *Service) Update(ctx context.Context, ruleID int64, form entity.RuleForm) (*entity.Rule, error) {
	if ruleID <= 0 {
		return nil, entity.ErrMissingRuleID
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	rule, err := s.api.UpdateRule(ctx, ruleID, form.Input())
	if err != nil {
		return nil, fmt.Errorf("updating rule: %w", err)
	}

	s.logger.Info("automation rule updated", "rule_id", ruleID)
	return rule, nil
}

// Toggle flips a rule between active and inactive and returns the new status
func (s *Service) Toggle(ctx context.Context, ruleID int64) (entity.RuleStatus, error) {
	if ruleID <= 0 {
		return "", entity.ErrMissingRuleID
	}

	status, err := s.api.ToggleRule(ctx, ruleID)
	if err != nil {
		return "", fmt.Errorf("toggling rule: %w", err)
	}

	s.logger.Info("automation rule toggled", "rule_id", ruleID, "status", status)
	return status, nil
}

// Delete removes a rule. The caller must pass the user's explicit
// confirmation.
func (s *Service) Delete(ctx context.Context, ruleID int64, confirmed bool) error {
	if ruleID <= 0 {
		return entity.ErrMissingRuleID
	}
	if !confirmed {
		return entity.ErrDeleteNotConfirmed
	}

	if err := s.api.DeleteRule(ctx, ruleID); err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	s.logger.Info("automation rule deleted", "rule_id", ruleID)
	return nil
}

// Snapshot is the exported document
type Snapshot struct {
	AccountID  int64          `json:"account_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Summary    entity.Summary `json:"summary"`
	Rules      []entity.Rule  `json:"rules"`
}

// Export writes the account's current rules to the exporter
func (s *Service) Export(ctx context.Context, accountID int64) (*storage.Object, error) {
	if s.exporter == nil {
		return nil, ErrExportDisabled
	}

	overview, err := s.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	rules := overview.Rules
	if rules == nil {
		rules = []entity.Rule{}
	}
	data, err := json.MarshalIndent(Snapshot{
		AccountID:  accountID,
		ExportedAt: s.now().UTC(),
		Summary:    overview.Summary,
		Rules:      rules,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	obj, err := s.exporter.PutJSON(ctx, fmt.Sprintf("automation/%d", accountID), data)
	if err != nil {
		return nil, fmt.Errorf("exporting rules: %w", err)
	}

	s.logger.Info("automation rules exported", "account_id", accountID, "key", obj.Key, "rules", len(rules))
	return obj, nil
}
