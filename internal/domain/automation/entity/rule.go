package entity

import (
	"encoding/json"

	"github.com/vadim/igdm-console/internal/domain/common"
)

// TriggerType classifies what activates a rule
type TriggerType string

const (
	TriggerTypeKeyword    TriggerType = "keyword"
	TriggerTypeNewMessage TriggerType = "new_message"
	TriggerTypeScheduled  TriggerType = "scheduled"
	TriggerTypeWelcome    TriggerType = "welcome"
)

// TriggerTypes lists every trigger type in display order
var TriggerTypes = []TriggerType{
	TriggerTypeKeyword,
	TriggerTypeNewMessage,
	TriggerTypeScheduled,
	TriggerTypeWelcome,
}

// IsValidTriggerType checks if a trigger type is valid
func IsValidTriggerType(t TriggerType) bool {
	switch t {
	case TriggerTypeKeyword, TriggerTypeNewMessage, TriggerTypeScheduled, TriggerTypeWelcome:
		return true
	}
	return false
}

// ParseTriggerType parses a string into a TriggerType
func ParseTriggerType(s string) (TriggerType, error) {
	t := TriggerType(s)
	if !IsValidTriggerType(t) {
		return "", ErrInvalidTriggerType
	}
	return t, nil
}

// Label returns the human-readable name of the trigger type
func (t TriggerType) Label() string {
	switch t {
	case TriggerTypeKeyword:
		return "Keyword"
	case TriggerTypeNewMessage:
		return "New Message"
	case TriggerTypeScheduled:
		return "Scheduled"
	case TriggerTypeWelcome:
		return "Welcome Message"
	default:
		return string(t)
	}
}

// RuleStatus is the activation state of a rule
type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "active"
	RuleStatusInactive RuleStatus = "inactive"
	RuleStatusPaused   RuleStatus = "paused"
)

// IsValidRuleStatus checks if a status is valid
func IsValidRuleStatus(s RuleStatus) bool {
	switch s {
	case RuleStatusActive, RuleStatusInactive, RuleStatusPaused:
		return true
	}
	return false
}

// Toggled returns the status the backend moves a rule to on toggle:
// active rules become inactive, everything else becomes active.
func (s RuleStatus) Toggled() RuleStatus {
	if s == RuleStatusActive {
		return RuleStatusInactive
	}
	return RuleStatusActive
}

// Rule is a keyword-triggered auto-reply rule evaluated by the backend.
// Priority ordering and the counters are maintained server-side.
type Rule struct {
	ID                 int64           `json:"id"`
	AccountID          int64           `json:"instagram_account_id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	TriggerType        TriggerType     `json:"trigger_type"`
	TriggerKeywords    []string        `json:"trigger_keywords,omitempty"`
	TriggerSchedule    json.RawMessage `json:"trigger_schedule,omitempty"`
	ReplyMessage       string          `json:"reply_message"`
	ReplyDelaySeconds  int             `json:"reply_delay_seconds"`
	Status             RuleStatus      `json:"status"`
	Priority           int             `json:"priority"`
	MaxTriggersPerUser *int            `json:"max_triggers_per_user,omitempty"`
	CooldownMinutes    *int            `json:"cooldown_minutes,omitempty"`
	TriggeredCount     int             `json:"triggered_count"`
	SuccessCount       int             `json:"success_count"`
	FailureCount       int             `json:"failure_count"`
	LastTriggeredAt    common.Time     `json:"last_triggered_at"`
	CreatedAt          common.Time     `json:"created_at"`
	UpdatedAt          common.Time     `json:"updated_at"`
}

// Validate checks a rule received from the backend
func (r Rule) Validate() error {
	if r.ID <= 0 {
		return ErrMissingRuleID
	}
	if r.Name == "" {
		return ErrEmptyName
	}
	if !IsValidTriggerType(r.TriggerType) {
		return ErrInvalidTriggerType
	}
	if !IsValidRuleStatus(r.Status) {
		return ErrInvalidRuleStatus
	}
	return nil
}

// IsActive reports whether the backend will evaluate the rule
func (r Rule) IsActive() bool {
	return r.Status == RuleStatusActive
}

// RuleInput carries the rule fields the console edits
type RuleInput struct {
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	TriggerType       TriggerType `json:"trigger_type"`
	TriggerKeywords   []string    `json:"trigger_keywords"`
	ReplyMessage      string      `json:"reply_message"`
	ReplyDelaySeconds int         `json:"reply_delay_seconds"`
	Priority          int         `json:"priority"`
}

// CreateRuleRequest is the body of POST /api/automation/rules. The backend
// schema requires the optional keys to be present, so they are sent as null.
type CreateRuleRequest struct {
	RuleInput
	TriggerSchedule    json.RawMessage `json:"trigger_schedule"`
	MaxTriggersPerUser *int            `json:"max_triggers_per_user"`
	CooldownMinutes    *int            `json:"cooldown_minutes"`
}

// Validate checks throttle settings
func (r CreateRuleRequest) Validate() error {
	if r.MaxTriggersPerUser != nil && *r.MaxTriggersPerUser < 0 {
		return ErrInvalidThrottleSetting
	}
	if r.CooldownMinutes != nil && *r.CooldownMinutes < 0 {
		return ErrInvalidThrottleSetting
	}
	return nil
}

// ToggleResult is the response of POST /api/automation/rules/{id}/toggle
type ToggleResult struct {
	Success bool       `json:"success"`
	Status  RuleStatus `json:"status"`
}

// Validate checks that the new status is known
func (t ToggleResult) Validate() error {
	if t.Status == "" {
		return ErrMissingToggleStatus
	}
	if !IsValidRuleStatus(t.Status) {
		return ErrInvalidRuleStatus
	}
	return nil
}
