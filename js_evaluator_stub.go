//go:build !js_eval

package entity

import "fmt"

// jsEvaluator is never constructed without the js_eval build tag.
type jsEvaluator struct{}

func (e *jsEvaluator) Evaluate(RuleContext, string) (any, error) {
	return nil, wrapEvaluatorError("js", fmt.Errorf("js evaluator requires the js_eval build tag"))
}

func (e *jsEvaluator) Compile(string, ...CompileOption) (CompiledRule, error) {
	return nil, wrapEvaluatorError("js", fmt.Errorf("js evaluator requires the js_eval build tag"))
}

// NewJSEvaluator is unavailable without the js_eval build tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
