package entity

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the maximum length of a rule name
const MaxNameLength = 255

// MaxReplyLength is the maximum length of a reply; replies are sent as DMs
const MaxReplyLength = 1000

// RuleForm is the staged state of the create/edit rule form. Keywords are
// kept as the comma separated text the user typed.
type RuleForm struct {
	Name              string
	Description       string
	TriggerType       TriggerType
	TriggerKeywords   string
	ReplyMessage      string
	ReplyDelaySeconds int
	Priority          int
}

// NewRuleForm returns an empty form with the defaults the console offers
func NewRuleForm() RuleForm {
	return RuleForm{TriggerType: TriggerTypeKeyword}
}

// FormFromRule stages an existing rule for editing
func FormFromRule(r Rule) RuleForm {
	return RuleForm{
		Name:              r.Name,
		Description:       r.Description,
		TriggerType:       r.TriggerType,
		TriggerKeywords:   strings.Join(r.TriggerKeywords, ", "),
		ReplyMessage:      r.ReplyMessage,
		ReplyDelaySeconds: r.ReplyDelaySeconds,
		Priority:          r.Priority,
	}
}

// ParseKeywords splits comma separated keywords, trimming each entry and
// dropping empty ones. It never returns nil.
func ParseKeywords(s string) []string {
	keywords := []string{}
	for _, part := range strings.Split(s, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// Validate checks the form before it is submitted
func (f RuleForm) Validate() error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(f.ReplyMessage) == "" {
		return ErrEmptyReplyMessage
	}
	if utf8.RuneCountInString(f.ReplyMessage) > MaxReplyLength {
		return ErrReplyMessageTooLong
	}
	if !IsValidTriggerType(f.TriggerType) {
		return ErrInvalidTriggerType
	}
	if f.ReplyDelaySeconds < 0 {
		return ErrNegativeDelay
	}
	if f.TriggerType == TriggerTypeKeyword && len(ParseKeywords(f.TriggerKeywords)) == 0 {
		return ErrKeywordsRequired
	}
	return nil
}

// Input converts the form into the request payload
func (f RuleForm) Input() RuleInput {
	return RuleInput{
		Name:              strings.TrimSpace(f.Name),
		Description:       strings.TrimSpace(f.Description),
		TriggerType:       f.TriggerType,
		TriggerKeywords:   ParseKeywords(f.TriggerKeywords),
		ReplyMessage:      f.ReplyMessage,
		ReplyDelaySeconds: f.ReplyDelaySeconds,
		Priority:          f.Priority,
	}
}
