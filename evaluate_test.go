package entity

import (
	"errors"
	"testing"
)

func TestEvaluateReturnsRawResult(t *testing.T) {
	c := newTestCooldown(DefaultRegistry())
	_ = mustChild[*Value](t, c, "user").SetValue(5)
	_ = mustChild[*Value](t, c, "global").SetValue(10)

	got, err := Evaluate(c, "user + global")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != float64(15) {
		t.Fatalf("expected 15, got %#v", got)
	}

	got, err = Evaluate(c, "args.limit > global", RuleArgs(map[string]any{"limit": 20}))
	if err != nil {
		t.Fatalf("evaluate with args: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %#v", got)
	}
}

func TestEvaluateLogsAndWrapsErrors(t *testing.T) {
	var events []RuleLogEvent
	logger := RuleLoggerFunc(func(event RuleLogEvent) {
		events = append(events, event)
	})
	v := NewNumber(3)
	v.SetID("limit")

	if _, err := Evaluate(v, "value * 2", RuleWithLogger(logger)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	_, err := Evaluate(v, "value >", RuleWithLogger(logger))
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) || ruleErr.ID != "limit" {
		t.Fatalf("expected rule error for limit, got %v", err)
	}
	if len(events) != 2 || !events[0].Passed || events[1].Passed {
		t.Fatalf("unexpected log events %+v", events)
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	if _, err := Evaluate(nil, "true"); err == nil {
		t.Fatalf("expected nil entity to fail")
	}
	if _, err := Evaluate(NewBoolean(true), ""); err == nil {
		t.Fatalf("expected empty expression to fail")
	}
	_, err := Evaluate(NewBoolean(true), "value", RuleEngine("lua"))
	expectErrorIs(t, err, ErrNoEvaluator)
}
