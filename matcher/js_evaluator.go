//go:build js_eval

package matcher

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSOption) Evaluator {
	cfg := applyJSOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsEvaluator) Engine() string { return EngineJS }

func (e *jsEvaluator) Compile(expression string) (Program, error) {
	if expression == "" {
		return nil, compileError(EngineJS, expression, ErrEmptyExpression)
	}
	key := cacheKey(EngineJS, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return &jsProgram{evaluator: e, program: program, expression: expression}, nil
			}
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, compileError(EngineJS, expression, err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return &jsProgram{evaluator: e, program: program, expression: expression}, nil
}

func (e *jsEvaluator) injectContext(vm *goja.Runtime, env map[string]any) {
	for key, value := range env {
		vm.Set(key, value)
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

// jsProgram runs in a fresh runtime per call; goja runtimes are not safe for
// concurrent use.
type jsProgram struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (p *jsProgram) Run(env map[string]any) (any, error) {
	vm := goja.New()
	p.evaluator.injectContext(vm, env)
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, matchError(EngineJS, p.expression, nil, err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}
