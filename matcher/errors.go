package matcher

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoEvaluator is returned when an engine is not built into the binary.
	ErrNoEvaluator = errors.New("matcher: evaluator not configured")
	// ErrUnknownEngine is returned for an unrecognised engine name.
	ErrUnknownEngine = errors.New("matcher: unknown expression engine")
	// ErrNotBool is returned when a predicate evaluates to a non-bool value.
	ErrNotBool = errors.New("matcher: expression did not evaluate to a bool")
	// ErrEmptyExpression is returned when a predicate has no source text.
	ErrEmptyExpression = errors.New("matcher: expression must not be empty")
)

// Phase tells whether a predicate failed while compiling or while being
// matched against a conversion target.
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseMatch   Phase = "match"
)

// EvaluationError reports a failing type predicate. Target is the type the
// predicate was matched against and is nil for compile failures.
type EvaluationError struct {
	Engine string
	Expr   string
	Phase  Phase
	Target reflect.Type
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("matcher: %s %s expr=%q", e.Engine, e.phase(), e.Expr)
	if e.Target != nil {
		msg += " against " + e.Target.String()
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TargetName returns the target type as written in converter traces, or an
// empty string when the predicate never ran.
func (e *EvaluationError) TargetName() string {
	if e == nil || e.Target == nil {
		return ""
	}
	return e.Target.String()
}

func (e *EvaluationError) phase() Phase {
	if e.Phase == "" {
		return PhaseMatch
	}
	return e.Phase
}

func compileError(engine, expr string, err error) error {
	return withContext(engine, expr, PhaseCompile, nil, err)
}

func matchError(engine, expr string, target reflect.Type, err error) error {
	return withContext(engine, expr, PhaseMatch, target, err)
}

// withContext fills in whatever an inner evaluator left blank so that the
// outermost caller, which knows the target type, completes the record.
func withContext(engine, expr string, phase Phase, target reflect.Type, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Phase == "" {
			evalErr.Phase = phase
		}
		if evalErr.Target == nil {
			evalErr.Target = target
		}
		return evalErr
	}
	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Phase:  phase,
		Target: target,
		Err:    err,
	}
}
