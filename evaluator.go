package entity

import "time"

// RuleContext carries the inputs of a rule evaluation.
type RuleContext struct {
	// Value is the ToConf projection of the node under test.
	Value    any
	ID       string
	Type     string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

// bindings returns the variables visible to an expression. Keys of a map
// value are exposed at the top level unless they shadow a reserved name.
func (ctx RuleContext) bindings() map[string]any {
	ctx = ctx.withDefaults()
	env := map[string]any{
		"value":    ctx.Value,
		"id":       ctx.ID,
		"type":     ctx.Type,
		"now":      *ctx.Now,
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if fields, ok := ctx.Value.(map[string]any); ok {
		for key, field := range fields {
			if _, reserved := env[key]; reserved {
				continue
			}
			env[key] = field
		}
	}
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
