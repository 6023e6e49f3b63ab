package entity

// Summary aggregates the counters the backend reports for a set of rules
type Summary struct {
	TotalRules    int     `json:"total_rules"`
	ActiveRules   int     `json:"active_rules"`
	InactiveRules int     `json:"inactive_rules"`
	PausedRules   int     `json:"paused_rules"`
	TotalTriggers int     `json:"total_triggers"`
	TotalSuccess  int     `json:"total_success"`
	TotalFailures int     `json:"total_failures"`
	SuccessRate   float64 `json:"success_rate"` // percent of triggers that succeeded
}

// Summarize totals the rule counters
func Summarize(rules []Rule) Summary {
	var s Summary
	for _, r := range rules {
		s.TotalRules++
		switch r.Status {
		case RuleStatusActive:
			s.ActiveRules++
		case RuleStatusPaused:
			s.PausedRules++
		default:
			s.InactiveRules++
		}
		s.TotalTriggers += r.TriggeredCount
		s.TotalSuccess += r.SuccessCount
		s.TotalFailures += r.FailureCount
	}
	if s.TotalTriggers > 0 {
		s.SuccessRate = float64(s.TotalSuccess) / float64(s.TotalTriggers) * 100
	}
	return s
}
