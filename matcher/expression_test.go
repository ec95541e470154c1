package matcher

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry))
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry))
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		},
	},
}

// predicates maps engine to expression for one behaviour.
type predicate map[string]string

var predicateCases = []struct {
	name  string
	rule  predicate
	match []reflect.Type
	miss  []reflect.Type
}{
	{
		name: "kind",
		rule: predicate{
			"expr": `kind == "int"`,
			"cel":  `kind == "int"`,
			"js":   `kind === "int"`,
		},
		match: []reflect.Type{reflect.TypeFor[int](), reflect.TypeFor[myInt]()},
		miss:  []reflect.Type{reflect.TypeFor[string](), reflect.TypeFor[fakeClock]()},
	},
	{
		name: "has method",
		rule: predicate{
			"expr": `"Close" in methods`,
			"cel":  `"Close" in methods`,
			"js":   `methods.includes("Close")`,
		},
		match: []reflect.Type{reflect.TypeFor[fakeClock](), reflect.TypeFor[*fakeClock]()},
		miss:  []reflect.Type{reflect.TypeFor[int]()},
	},
	{
		name: "name prefix and package",
		rule: predicate{
			"expr": `name startsWith "fake" && pkg endsWith "/matcher"`,
			"cel":  `name.startsWith("fake") && pkg.endsWith("/matcher")`,
			"js":   `name.startsWith("fake") && pkg.endsWith("/matcher")`,
		},
		match: []reflect.Type{reflect.TypeFor[fakeClock]()},
		miss:  []reflect.Type{reflect.TypeFor[*fakeClock](), reflect.TypeFor[myInt]()},
	},
	{
		name: "pointer to struct",
		rule: predicate{
			"expr": `kind == "ptr" && elem == "matcher.fakeClock"`,
			"cel":  `kind == "ptr" && elem == "matcher.fakeClock"`,
			"js":   `kind === "ptr" && elem === "matcher.fakeClock"`,
		},
		match: []reflect.Type{reflect.TypeFor[*fakeClock]()},
		miss:  []reflect.Type{reflect.TypeFor[fakeClock](), reflect.TypeFor[*int]()},
	},
}

func TestExpressionPredicatesAcrossEngines(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not built into this binary", factory.name)
			}
			for _, tc := range predicateCases {
				t.Run(tc.name, func(t *testing.T) {
					m, err := Compile(evaluator, tc.rule[factory.name])
					if err != nil {
						t.Fatalf("compile: %v", err)
					}
					for _, target := range tc.match {
						ok, err := m.Eval(target)
						if err != nil || !ok {
							t.Fatalf("%s on %v: ok=%v err=%v", m, target, ok, err)
						}
					}
					for _, target := range tc.miss {
						if m.Matches(target) {
							t.Fatalf("%s should not match %v", m, target)
						}
					}
				})
			}
		})
	}
}

func TestExpressionCustomFunctionsAcrossEngines(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("isFake", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("isFake expects 1 arg")
		}
		name, _ := args[0].(string)
		return strings.HasPrefix(strings.ToLower(name), "fake"), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, registry)
			if evaluator == nil {
				t.Skipf("%s evaluator not built into this binary", factory.name)
			}
			m, err := Compile(evaluator, `isfake(name)`)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if !m.Matches(reflect.TypeFor[fakeClock]()) {
				t.Fatalf("expected fakeClock to match")
			}
			if m.Matches(reflect.TypeFor[myInt]()) {
				t.Fatalf("expected myInt not to match")
			}
		})
	}
}

func TestExpressionProgramCache(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			cache := NewMapCache()
			evaluator := factory.new(cache, nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not built into this binary", factory.name)
			}
			rule := `numMethod > 0`
			for i := 0; i < 3; i++ {
				m, err := Compile(evaluator, rule)
				if err != nil {
					t.Fatalf("compile %d: %v", i, err)
				}
				if !m.Matches(reflect.TypeFor[*fakeClock]()) {
					t.Fatalf("expected match on iteration %d", i)
				}
			}
			hits, misses := cache.Stats()
			if hits != 2 || misses != 1 {
				t.Fatalf("expected 2 hits and 1 miss, got %d/%d", hits, misses)
			}
		})
	}
}

func TestExpressionErrors(t *testing.T) {
	if _, err := Compile(nil, "true"); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
	if _, err := Expr(""); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected ErrEmptyExpression, got %v", err)
	}

	_, err := CEL(`kind ==`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Engine != EngineCEL || evalErr.Expr != `kind ==` || evalErr.Phase != PhaseCompile {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if evalErr.Target != nil || evalErr.TargetName() != "" {
		t.Fatalf("compile failure must not carry a target, got %v", evalErr.Target)
	}
	if !strings.HasPrefix(err.Error(), `matcher: cel compile expr="kind =="`) {
		t.Fatalf("unexpected message %s", err)
	}

	m, err := Expr(`name`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ok, err := m.Eval(reflect.TypeFor[int]())
	if ok || !errors.Is(err, ErrNotBool) {
		t.Fatalf("expected ErrNotBool, got ok=%v err=%v", ok, err)
	}
	if !errors.As(err, &evalErr) || evalErr.Target != reflect.TypeFor[int]() || evalErr.Phase != PhaseMatch {
		t.Fatalf("expected target recorded, got %v", err)
	}
	if !strings.Contains(err.Error(), `expr="name" against int`) {
		t.Fatalf("expected target in message, got %s", err)
	}
	if m.Matches(reflect.TypeFor[int]()) {
		t.Fatalf("expected non-bool result to count as no match")
	}
}

func TestExpressionLogsEvaluations(t *testing.T) {
	var (
		mu     sync.Mutex
		events []EvaluatorLogEvent
	)
	logger := EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	})
	m, err := Expr(`kind == "struct"`, WithEvaluatorLogger(logger))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m.Matches(reflect.TypeFor[fakeClock]())
	m.Matches(reflect.TypeFor[int]())

	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}
	if !events[0].Matched || events[1].Matched {
		t.Fatalf("unexpected match flags %+v", events)
	}
	if events[0].Engine != EngineExpr || events[0].Target != "matcher.fakeClock" || events[0].Expr != `kind == "struct"` {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if m.String() != `expr(kind == "struct")` || m.Engine() != EngineExpr || m.Source() != `kind == "struct"` {
		t.Fatalf("unexpected accessors: %s", m)
	}
}

func TestNewEvaluator(t *testing.T) {
	for _, engine := range []string{"", "expr", "EXPR", " cel "} {
		evaluator, err := NewEvaluator(engine, Settings{})
		if err != nil || evaluator == nil {
			t.Fatalf("engine %q: %v", engine, err)
		}
	}
	if _, err := NewEvaluator("lua", Settings{}); !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}

	engines := Engines()
	hasJS := false
	for _, name := range engines {
		if name == EngineJS {
			hasJS = true
		}
	}
	_, err := NewEvaluator(EngineJS, Settings{})
	if hasJS && err != nil {
		t.Fatalf("expected js evaluator, got %v", err)
	}
	if !hasJS && !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator without js_eval, got %v", err)
	}
}

func TestMatchErrorCompletesInnerError(t *testing.T) {
	inner := &EvaluationError{Engine: EngineCEL, Err: errors.New("no such key: elem")}
	target := reflect.TypeFor[[]string]()
	err := matchError(EngineExpr, "elem == \"string\"", target, inner)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Engine != EngineCEL {
		t.Fatalf("inner engine must win, got %s", evalErr.Engine)
	}
	if evalErr.Expr != `elem == "string"` || evalErr.Phase != PhaseMatch || evalErr.TargetName() != "[]string" {
		t.Fatalf("expected blanks filled in, got %+v", evalErr)
	}
	if matchError(EngineExpr, "x", target, nil) != nil || compileError(EngineExpr, "x", nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
	if got := (&EvaluationError{Engine: EngineExpr, Expr: "x", Err: ErrNotBool}).Error(); !strings.Contains(got, "expr match") {
		t.Fatalf("blank phase should read as match, got %s", got)
	}
}
