package backend

import (
	"context"
	"net/http"

	automation "github.com/vadim/igdm-console/internal/domain/automation/entity"
	"github.com/vadim/igdm-console/internal/domain/common"
)

// ListRules returns automation rules, scoped to an account when accountID is
// non-zero
// GET /api/automation/rules[?account_id={id}]
func (c *Client) ListRules(ctx context.Context, accountID int64) ([]automation.Rule, error) {
	cl := call{
		method: http.MethodGet,
		route:  "/api/automation/rules",
		path:   "/api/automation/rules",
	}
	if accountID != 0 {
		cl.query = accountQuery(accountID)
	}

	var out []automation.Rule
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if err := validateEach(cl.endpoint(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRule returns a single rule
// GET /api/automation/rules/{id}
func (c *Client) GetRule(ctx context.Context, ruleID int64) (*automation.Rule, error) {
	var out automation.Rule
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/automation/rules/{id}",
		path:   idPath("/api/automation/rules/%d", ruleID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRule creates a rule for an account
// POST /api/automation/rules?account_id={id}
func (c *Client) CreateRule(ctx context.Context, accountID int64, in automation.CreateRuleRequest) (*automation.Rule, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out automation.Rule
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/automation/rules",
		path:   "/api/automation/rules",
		query:  accountQuery(accountID),
		body:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRule replaces the editable fields of a rule
// PUT /api/automation/rules/{id}
func (c *Client) UpdateRule(ctx context.Context, ruleID int64, in automation.RuleInput) (*automation.Rule, error) {
	var out automation.Rule
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/api/automation/rules/{id}",
		path:   idPath("/api/automation/rules/%d", ruleID),
		body:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRule removes a rule
// DELETE /api/automation/rules/{id}
func (c *Client) DeleteRule(ctx context.Context, ruleID int64) error {
	var out common.Ack
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/api/automation/rules/{id}",
		path:   idPath("/api/automation/rules/%d", ruleID),
	}, &out)
}

// ToggleRule flips a rule between active and inactive and returns the new
// status
// POST /api/automation/rules/{id}/toggle
func (c *Client) ToggleRule(ctx context.Context, ruleID int64) (automation.RuleStatus, error) {
	var out automation.ToggleResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/automation/rules/{id}/toggle",
		path:   idPath("/api/automation/rules/%d/toggle", ruleID),
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Status, nil
}
