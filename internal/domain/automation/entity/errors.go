package entity

import "errors"

// Domain errors for automation rules
var (
	ErrMissingRuleID          = errors.New("rule id is missing")
	ErrEmptyName              = errors.New("rule name cannot be empty")
	ErrNameTooLong            = errors.New("rule name exceeds maximum length")
	ErrEmptyReplyMessage      = errors.New("reply message cannot be empty")
	ErrReplyMessageTooLong    = errors.New("reply message exceeds maximum length")
	ErrInvalidTriggerType     = errors.New("invalid trigger type")
	ErrInvalidRuleStatus      = errors.New("invalid rule status")
	ErrNegativeDelay          = errors.New("reply delay cannot be negative")
	ErrKeywordsRequired       = errors.New("keyword rules need at least one keyword")
	ErrInvalidNumber          = errors.New("value must be a whole number")
	ErrDeleteNotConfirmed     = errors.New("rule deletion was not confirmed")
	ErrMissingToggleStatus    = errors.New("toggle response carries no status")
	ErrInvalidThrottleSetting = errors.New("throttle settings cannot be negative")
)
