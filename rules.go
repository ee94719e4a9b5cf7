package entity

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Rule engines accepted by RuleEngine and EvaluatorFor.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// ErrNoEvaluator is returned when the requested rule engine is unavailable.
var ErrNoEvaluator = errors.New("entity: evaluator not configured")

// RuleOption configures a rule check.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	engine    string
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    RuleLogger
	message   string
	args      map[string]any
}

// RuleEngine selects one of the built-in engines. Defaults to expr.
func RuleEngine(engine string) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.engine = engine
	}
}

// RuleWithEvaluator evaluates the rule with evaluator instead of a built-in engine.
func RuleWithEvaluator(evaluator Evaluator) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.evaluator = evaluator
	}
}

// RuleWithProgramCache shares compiled programs across rules.
func RuleWithProgramCache(cache ProgramCache) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.cache = cache
	}
}

// RuleWithFunctionRegistry exposes the functions of registry to the rule.
func RuleWithFunctionRegistry(registry *FunctionRegistry) RuleOption {
	return func(cfg *ruleConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// RuleWithCustomFunction registers fn under name for the rule.
func RuleWithCustomFunction(name string, fn Function) RuleOption {
	return func(cfg *ruleConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// RuleWithLogger reports every evaluation to logger.
func RuleWithLogger(logger RuleLogger) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.logger = logger
	}
}

// RuleMessage sets the error message used when the rule evaluates to false.
func RuleMessage(message string) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.message = message
	}
}

// RuleArgs exposes args to the expression as "args".
func RuleArgs(args map[string]any) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.args = args
	}
}

// Rule compiles expression into a Check that passes when the expression
// evaluates to true for the node's ToConf value. The value is bound to
// "value"; keys of an object's conf are also bound directly.
func Rule(expression string, opts ...RuleOption) (Check, error) {
	cfg := newRuleConfig(opts)
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	compiled, err := evaluator.Compile(expression)
	if err != nil {
		return nil, wrapRuleError(engine, expression, "", err)
	}
	logger := cfg.ruleLogger()
	message := cfg.message
	if message == "" {
		message = expression
	}

	return func(e Entity) error {
		ctx := RuleContext{
			Value: e.ToConf(),
			ID:    e.ID(),
			Type:  e.Type(),
			Args:  cfg.args,
		}
		start := time.Now()
		result, evalErr := compiled.Evaluate(ctx)
		passed := false
		if evalErr == nil {
			passed, evalErr = ruleOutcome(result)
		}
		evalErr = wrapRuleError(engine, expression, e.ID(), evalErr)
		logger.LogRule(RuleLogEvent{
			Engine:   engine,
			Expr:     expression,
			ID:       e.ID(),
			Duration: time.Since(start),
			Passed:   passed,
			Err:      evalErr,
		})
		if evalErr != nil {
			return evalErr
		}
		if !passed {
			return fmt.Errorf("%w: %s", ErrRuleFailed, message)
		}
		return nil
	}, nil
}

func newRuleConfig(opts []RuleOption) ruleConfig {
	cfg := ruleConfig{engine: EngineExpr}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg ruleConfig) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	return EvaluatorFor(cfg.engine, cfg.cache, cfg.functions)
}

func (cfg ruleConfig) ruleLogger() RuleLogger {
	if cfg.logger == nil {
		return noopRuleLogger{}
	}
	return cfg.logger
}

// MustRule is Rule for schema code where a bad expression is a programming
// error.
func MustRule(expression string, opts ...RuleOption) Check {
	check, err := Rule(expression, opts...)
	if err != nil {
		panic(err)
	}
	return check
}

// EvaluatorFor constructs the built-in evaluator for engine.
func EvaluatorFor(engine string, cache ProgramCache, functions *FunctionRegistry) (Evaluator, error) {
	switch engine {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(functions)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(functions)), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(functions)), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

func ruleOutcome(result any) (bool, error) {
	passed, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule must evaluate to bool, got %T", result)
	}
	return passed, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	case *jsEvaluator:
		return EngineJS
	default:
		return "custom"
	}
}

// MapProgramCache is a ProgramCache backed by a map.
type MapProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMapProgramCache constructs an empty cache.
func NewMapProgramCache() *MapProgramCache {
	return &MapProgramCache{programs: make(map[string]any)}
}

func (c *MapProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

func (c *MapProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = make(map[string]any)
	}
	c.programs[key] = value
}

// Len returns the number of cached programs.
func (c *MapProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}
