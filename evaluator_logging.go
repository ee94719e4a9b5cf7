package entity

import "time"

// RuleLogEvent describes a rule evaluation for logging.
type RuleLogEvent struct {
	Engine   string
	Expr     string
	ID       string
	Duration time.Duration
	Passed   bool
	Err      error
}

// RuleLogger records rule evaluations.
type RuleLogger interface {
	LogRule(RuleLogEvent)
}

// RuleLoggerFunc adapts a function to RuleLogger.
type RuleLoggerFunc func(RuleLogEvent)

// LogRule implements RuleLogger.
func (f RuleLoggerFunc) LogRule(event RuleLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopRuleLogger struct{}

func (noopRuleLogger) LogRule(RuleLogEvent) {}
