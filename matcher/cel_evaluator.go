package matcher

import (
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELOption configures the CEL evaluator.
type CELOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are callable with one or two arguments.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Engine() string { return EngineCEL }

func (e *celEvaluator) Compile(expression string) (Program, error) {
	if expression == "" {
		return nil, compileError(EngineCEL, expression, ErrEmptyExpression)
	}
	key := cacheKey(EngineCEL, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, compileError(EngineCEL, expression, err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, compileError(EngineCEL, expression, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, compileError(EngineCEL, expression, issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, compileError(EngineCEL, expression, err)
	}

	program := &celProgram{program: prg, expression: expression}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(descriptorKeys))
	for _, key := range descriptorKeys {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	for _, name := range e.registryNames() {
		opts = append(opts, celgo.Function(name,
			celgo.Overload(name+"_dyn", []*celgo.Type{celgo.DynType}, celgo.DynType,
				celgo.UnaryBinding(func(arg ref.Val) ref.Val {
					return e.call(name, arg)
				}),
			),
			celgo.Overload(name+"_dyn_dyn", []*celgo.Type{celgo.DynType, celgo.DynType}, celgo.DynType,
				celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return e.call(name, lhs, rhs)
				}),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) call(name string, values ...ref.Val) ref.Val {
	args := make([]any, 0, len(values))
	for _, val := range values {
		args = append(args, val.Value())
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

func (e *celEvaluator) registryNames() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

type celProgram struct {
	program    celgo.Program
	expression string
}

func (p *celProgram) Run(env map[string]any) (any, error) {
	out, _, err := p.program.Eval(env)
	if err != nil {
		return nil, matchError(EngineCEL, p.expression, nil, err)
	}
	return out.Value(), nil
}
