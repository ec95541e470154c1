package inherit

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/goliatone/go-inherit/pkg/activity"
)

// ErrAmbiguousConversion matches every AmbiguousConversionError.
var ErrAmbiguousConversion = errors.New("inherit: ambiguous type conversion")

// ErrorSink records problems found while answering lookups. Reporting never
// stops the lookup that found the problem.
type ErrorSink interface {
	AmbiguousTypeConversion(value string, source any, to reflect.Type, first, second MatcherAndConverter)
}

// AmbiguousConversionError describes two converter registrations that both
// match the same target type.
type AmbiguousConversionError struct {
	Value  string
	Source any
	To     reflect.Type
	First  MatcherAndConverter
	Second MatcherAndConverter
}

func (e *AmbiguousConversionError) Error() string {
	return fmt.Sprintf("Multiple converters can convert '%s' (bound at %v) to %v:\n %s and\n %s.\n Please adjust your type converter configuration to avoid overlapping matches.",
		e.Value, e.Source, e.To, e.First, e.Second)
}

// Is reports ErrAmbiguousConversion as a match.
func (e *AmbiguousConversionError) Is(target error) bool {
	return target == ErrAmbiguousConversion
}

// Message is one recorded problem.
type Message struct {
	Source any
	Text   string
	Cause  error
}

func (m Message) Error() string {
	if m.Source == nil {
		return m.Text
	}
	return fmt.Sprintf("%s (at %v)", m.Text, m.Source)
}

func (m Message) Unwrap() error { return m.Cause }

// ErrorsOption configures an Errors collector.
type ErrorsOption func(*Errors)

// WithErrorsLogger logs each recorded message.
func WithErrorsLogger(logger Logger) ErrorsOption {
	return func(e *Errors) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithErrorsActivity emits an activity event for each ambiguous conversion.
func WithErrorsActivity(ctx context.Context, emitter *activity.Emitter) ErrorsOption {
	return func(e *Errors) {
		if ctx == nil {
			ctx = context.Background()
		}
		e.ctx = ctx
		e.emitter = emitter
	}
}

// Errors is the standard ErrorSink: it accumulates messages for the caller to
// inspect once a batch of lookups is done. Safe for concurrent use.
type Errors struct {
	mu       sync.Mutex
	messages []Message

	logger  Logger
	emitter *activity.Emitter
	ctx     context.Context
}

// NewErrors builds an empty collector.
func NewErrors(opts ...ErrorsOption) *Errors {
	e := &Errors{logger: noopLogger{}, ctx: context.Background()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// AmbiguousTypeConversion implements ErrorSink.
func (e *Errors) AmbiguousTypeConversion(value string, source any, to reflect.Type, first, second MatcherAndConverter) {
	if e == nil {
		return
	}
	cause := &AmbiguousConversionError{
		Value:  value,
		Source: source,
		To:     to,
		First:  first,
		Second: second,
	}
	e.add(Message{Source: source, Text: cause.Error(), Cause: cause})

	if e.emitter.Enabled() {
		event := activity.BuildConversionAmbiguousEvent(activity.Conversion{
			Value:        value,
			TargetType:   fmt.Sprint(to),
			FirstSource:  describe(first.Source),
			SecondSource: describe(second.Source),
		}, describe(source))
		if err := e.emitter.Emit(e.ctx, event); err != nil {
			e.logger.Log(LogEvent{Op: "activity.emit", Err: err})
		}
	}
}

// Addf records a free-form message.
func (e *Errors) Addf(source any, format string, args ...any) {
	if e == nil {
		return
	}
	e.add(Message{Source: source, Text: fmt.Sprintf(format, args...)})
}

// Add records err as a message.
func (e *Errors) Add(source any, err error) {
	if e == nil || err == nil {
		return
	}
	e.add(Message{Source: source, Text: err.Error(), Cause: err})
}

func (e *Errors) add(msg Message) {
	e.mu.Lock()
	e.messages = append(e.messages, msg)
	e.mu.Unlock()
	if e.logger != nil {
		e.logger.Log(LogEvent{Op: "errors.recorded", Detail: describe(msg.Source), Err: msg})
	}
}

// Len returns the number of recorded messages.
func (e *Errors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

// Messages returns a copy of the recorded messages in recording order.
func (e *Errors) Messages() []Message {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Err joins every message into one error, nil when nothing was recorded.
func (e *Errors) Err() error {
	msgs := e.Messages()
	if len(msgs) == 0 {
		return nil
	}
	errs := make([]error, len(msgs))
	for i, msg := range msgs {
		errs[i] = msg
	}
	return errors.Join(errs...)
}

func (e *Errors) String() string {
	msgs := e.Messages()
	if len(msgs) == 0 {
		return "no errors"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s):\n", len(msgs))
	for i, msg := range msgs {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, msg.Error())
	}
	return b.String()
}
