package entity

import (
	"fmt"
	"time"
)

// Evaluate runs expression once against the ToConf value of e and returns the
// raw result. It accepts the same options as Rule; RuleMessage is ignored.
// Bindings match Rule, so an expression can be tried out before it is
// installed as a check.
func Evaluate(e Entity, expression string, opts ...RuleOption) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("entity: evaluate %q: nil entity", expression)
	}
	if expression == "" {
		return nil, fmt.Errorf("entity: expression must not be empty")
	}
	cfg := newRuleConfig(opts)
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	ctx := RuleContext{
		Value: e.ToConf(),
		ID:    e.ID(),
		Type:  e.Type(),
		Args:  cfg.args,
	}
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expression)
	evalErr = wrapRuleError(engine, expression, e.ID(), evalErr)
	cfg.ruleLogger().LogRule(RuleLogEvent{
		Engine:   engine,
		Expr:     expression,
		ID:       e.ID(),
		Duration: time.Since(start),
		Passed:   evalErr == nil,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}
