package matcher

import (
	"fmt"
	"reflect"
	"time"
)

// ExpressionOption configures an Expression matcher.
type ExpressionOption func(*Expression)

// WithEvaluatorLogger logs every evaluation of the matcher.
func WithEvaluatorLogger(logger EvaluatorLogger) ExpressionOption {
	return func(e *Expression) {
		if logger == nil {
			e.logger = noopEvaluatorLogger{}
			return
		}
		e.logger = logger
	}
}

// Expression is a TypeMatcher whose predicate is an expression evaluated
// against Describe(t). The expression must evaluate to a bool.
//
//	m, err := matcher.Expr(`kind == "struct" && "Close" in methods`)
type Expression struct {
	engine  string
	source  string
	program Program
	logger  EvaluatorLogger
}

// Compile compiles expression with evaluator.
func Compile(evaluator Evaluator, expression string, opts ...ExpressionOption) (*Expression, error) {
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	if expression == "" {
		return nil, compileError(evaluator.Engine(), expression, ErrEmptyExpression)
	}
	program, err := evaluator.Compile(expression)
	if err != nil {
		return nil, compileError(evaluator.Engine(), expression, err)
	}
	m := &Expression{
		engine:  evaluator.Engine(),
		source:  expression,
		program: program,
		logger:  noopEvaluatorLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Expr compiles an expr-lang predicate.
func Expr(expression string, opts ...ExpressionOption) (*Expression, error) {
	return Compile(NewExprEvaluator(), expression, opts...)
}

// CEL compiles a CEL predicate.
func CEL(expression string, opts ...ExpressionOption) (*Expression, error) {
	return Compile(NewCELEvaluator(), expression, opts...)
}

// JS compiles a JavaScript predicate. It returns ErrNoEvaluator unless the
// binary was built with the js_eval tag.
func JS(expression string, opts ...ExpressionOption) (*Expression, error) {
	evaluator := NewJSEvaluator()
	if evaluator == nil {
		return nil, fmt.Errorf("%w: js (build with -tags js_eval)", ErrNoEvaluator)
	}
	return Compile(evaluator, expression, opts...)
}

// Engine returns the engine that compiled the expression.
func (m *Expression) Engine() string { return m.engine }

// Source returns the expression text.
func (m *Expression) Source() string { return m.source }

// Eval runs the predicate against t.
func (m *Expression) Eval(t reflect.Type) (bool, error) {
	target := fmt.Sprint(t)
	start := time.Now()
	out, err := m.program.Run(Describe(t))
	matched := false
	if err == nil {
		b, ok := out.(bool)
		if !ok {
			err = fmt.Errorf("%w: got %T", ErrNotBool, out)
		}
		matched = b
	}
	err = matchError(m.engine, m.source, t, err)
	m.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   m.engine,
		Expr:     m.source,
		Target:   target,
		Matched:  matched,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

// Matches implements TypeMatcher. Evaluation errors count as no match and
// are reported to the evaluator logger.
func (m *Expression) Matches(t reflect.Type) bool {
	ok, err := m.Eval(t)
	return err == nil && ok
}

func (m *Expression) String() string {
	return fmt.Sprintf("%s(%s)", m.engine, m.source)
}
