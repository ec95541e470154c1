package matcher

import (
	"fmt"
	"strings"
)

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Evaluator compiles predicate expressions for one engine.
type Evaluator interface {
	Engine() string
	Compile(expression string) (Program, error)
}

// Program is a compiled expression. Run evaluates it against the variables
// in env and may be called concurrently.
type Program interface {
	Run(env map[string]any) (any, error)
}

// Settings are the shared knobs every engine accepts.
type Settings struct {
	Cache     ProgramCache
	Functions *FunctionRegistry
}

// NewEvaluator builds the evaluator for engine. An empty engine selects expr.
// The js engine is only available in binaries built with the js_eval tag.
func NewEvaluator(engine string, settings Settings) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(
			ExprWithProgramCache(settings.Cache),
			ExprWithFunctionRegistry(settings.Functions),
		), nil
	case EngineCEL:
		return NewCELEvaluator(
			CELWithProgramCache(settings.Cache),
			CELWithFunctionRegistry(settings.Functions),
		), nil
	case EngineJS:
		evaluator := NewJSEvaluator(
			JSWithProgramCache(settings.Cache),
			JSWithFunctionRegistry(settings.Functions),
		)
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js (build with -tags js_eval)", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Engines returns the engine names available in this binary.
func Engines() []string {
	engines := []string{EngineExpr, EngineCEL}
	if jsEvaluatorAvailable() {
		engines = append(engines, EngineJS)
	}
	return engines
}
