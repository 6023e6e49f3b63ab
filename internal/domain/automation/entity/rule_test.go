package entity

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "hi, hello", want: []string{"hi", "hello"}},
		{in: "  price ,  cost,", want: []string{"price", "cost"}},
		{in: ",, ,", want: []string{}},
		{in: "", want: []string{}},
		{in: "one", want: []string{"one"}},
		{in: "new year, sale", want: []string{"new year", "sale"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseKeywords(tt.in)
			if got == nil {
				t.Fatal("ParseKeywords returned nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseKeywords(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRuleFormValidate(t *testing.T) {
	valid := RuleForm{
		Name:            "Greeting",
		TriggerType:     TriggerTypeKeyword,
		TriggerKeywords: "hi, hello",
		ReplyMessage:    "Hello there!",
	}

	tests := []struct {
		name   string
		mutate func(f *RuleForm)
		want   error
	}{
		{name: "valid", mutate: func(f *RuleForm) {}},
		{name: "blank name", mutate: func(f *RuleForm) { f.Name = "   " }, want: ErrEmptyName},
		{name: "long name", mutate: func(f *RuleForm) { f.Name = strings.Repeat("n", MaxNameLength+1) }, want: ErrNameTooLong},
		{name: "blank reply", mutate: func(f *RuleForm) { f.ReplyMessage = "" }, want: ErrEmptyReplyMessage},
		{name: "long reply", mutate: func(f *RuleForm) { f.ReplyMessage = strings.Repeat("r", MaxReplyLength+1) }, want: ErrReplyMessageTooLong},
		{name: "bad trigger", mutate: func(f *RuleForm) { f.TriggerType = "always" }, want: ErrInvalidTriggerType},
		{name: "negative delay", mutate: func(f *RuleForm) { f.ReplyDelaySeconds = -1 }, want: ErrNegativeDelay},
		{name: "keyword without keywords", mutate: func(f *RuleForm) { f.TriggerKeywords = " , " }, want: ErrKeywordsRequired},
		{name: "welcome without keywords", mutate: func(f *RuleForm) {
			f.TriggerType = TriggerTypeWelcome
			f.TriggerKeywords = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if err := f.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFormRoundTrip(t *testing.T) {
	rule := Rule{
		ID:                9,
		Name:              "Pricing",
		Description:       "answers price questions",
		TriggerType:       TriggerTypeKeyword,
		TriggerKeywords:   []string{"price", "cost"},
		ReplyMessage:      "See our catalogue",
		ReplyDelaySeconds: 5,
		Priority:          2,
		Status:            RuleStatusActive,
	}

	form := FormFromRule(rule)
	if form.TriggerKeywords != "price, cost" {
		t.Errorf("keywords text = %q", form.TriggerKeywords)
	}

	in := form.Input()
	want := RuleInput{
		Name:              "Pricing",
		Description:       "answers price questions",
		TriggerType:       TriggerTypeKeyword,
		TriggerKeywords:   []string{"price", "cost"},
		ReplyMessage:      "See our catalogue",
		ReplyDelaySeconds: 5,
		Priority:          2,
	}
	if !reflect.DeepEqual(in, want) {
		t.Errorf("Input() = %+v, want %+v", in, want)
	}
}

func TestCreateRuleRequestJSON(t *testing.T) {
	req := CreateRuleRequest{RuleInput: NewRuleForm().Input()}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"name", "description", "trigger_type", "trigger_keywords", "reply_message", "reply_delay_seconds", "priority", "trigger_schedule", "max_triggers_per_user", "cooldown_minutes"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	if string(fields["trigger_keywords"]) != "[]" {
		t.Errorf("trigger_keywords = %s, want []", fields["trigger_keywords"])
	}
	if string(fields["cooldown_minutes"]) != "null" {
		t.Errorf("cooldown_minutes = %s, want null", fields["cooldown_minutes"])
	}

	negative := -1
	req.CooldownMinutes = &negative
	if err := req.Validate(); !errors.Is(err, ErrInvalidThrottleSetting) {
		t.Errorf("Validate() = %v", err)
	}
}

func TestRuleStatusToggled(t *testing.T) {
	for _, s := range []RuleStatus{RuleStatusActive, RuleStatusInactive} {
		if got := s.Toggled().Toggled(); got != s {
			t.Errorf("%s toggled twice = %s", s, got)
		}
	}
	if got := RuleStatusPaused.Toggled(); got != RuleStatusActive {
		t.Errorf("paused toggled = %s", got)
	}
}

func TestRuleValidate(t *testing.T) {
	good := Rule{ID: 1, Name: "r", TriggerType: TriggerTypeWelcome, Status: RuleStatusPaused}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	bad := good
	bad.Status = "archived"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidRuleStatus) {
		t.Errorf("Validate() = %v", err)
	}

	bad = good
	bad.TriggerType = ""
	if err := bad.Validate(); !errors.Is(err, ErrInvalidTriggerType) {
		t.Errorf("Validate() = %v", err)
	}
}

func TestTriggerTypeLabel(t *testing.T) {
	want := map[TriggerType]string{
		TriggerTypeKeyword:    "Keyword",
		TriggerTypeNewMessage: "New Message",
		TriggerTypeScheduled:  "Scheduled",
		TriggerTypeWelcome:    "Welcome Message",
		"custom":              "custom",
	}
	for tt, label := range want {
		if got := tt.Label(); got != label {
			t.Errorf("%s.Label() = %q, want %q", tt, got, label)
		}
	}
}

func TestSummarize(t *testing.T) {
	rules := []Rule{
		{Status: RuleStatusActive, TriggeredCount: 10, SuccessCount: 9, FailureCount: 1},
		{Status: RuleStatusInactive, TriggeredCount: 6, SuccessCount: 3, FailureCount: 3},
		{Status: RuleStatusPaused},
	}

	s := Summarize(rules)
	if s.TotalRules != 3 || s.ActiveRules != 1 || s.InactiveRules != 1 || s.PausedRules != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.TotalTriggers != 16 || s.TotalSuccess != 12 || s.TotalFailures != 4 {
		t.Errorf("totals = %+v", s)
	}
	if math.Abs(s.SuccessRate-75) > 1e-9 {
		t.Errorf("success rate = %v", s.SuccessRate)
	}

	if empty := Summarize(nil); empty.SuccessRate != 0 || empty.TotalRules != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}
