package entity

import (
	"errors"
	"fmt"
	"strings"
)

// RuleError captures evaluator metadata alongside the originating error.
type RuleError struct {
	Engine string
	Expr   string
	ID     string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("entity: %s rule %s id=%s: %v", e.Engine, describeExpression(e.Expr), describeID(e.ID), e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func describeID(id string) string {
	if id == "" {
		return "<root>"
	}
	return id
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "entity:") {
		return err
	}
	return fmt.Errorf("entity: %s evaluator: %w", engine, err)
}

func wrapRuleError(engine, expr, id string, err error) error {
	if err == nil {
		return nil
	}

	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		if ruleErr.Engine == "" {
			ruleErr.Engine = engine
		}
		if ruleErr.Expr == "" {
			ruleErr.Expr = expr
		}
		if ruleErr.ID == "" {
			ruleErr.ID = id
		}
		return ruleErr
	}

	return &RuleError{
		Engine: engine,
		Expr:   expr,
		ID:     id,
		Err:    err,
	}
}
