package inherit

import (
	"errors"
	"reflect"
)

var (
	// ErrNilParent is the panic value for NewLevel(nil).
	ErrNilParent = errors.New("inherit: parent must not be nil (use inherit.None for a root level)")
	// ErrSentinelImmutable is returned when a session is asked to mutate None.
	ErrSentinelImmutable = errors.New("inherit: the root sentinel cannot be mutated")
	// ErrInterceptionDisabled is returned when adding an aspect to a level
	// built without interception support.
	ErrInterceptionDisabled = errors.New("inherit: interception support is disabled for this level")
)

// State is the contract shared by configuration levels and the root sentinel.
// Lookups for bindings and scopes consult the receiver first and then delegate
// to its ancestors; converters and aspects aggregate across the whole chain;
// reservations are written up the chain but read locally.
type State interface {
	// Parent returns the parent state, or nil for None.
	Parent() State

	ExplicitBinding(key Key) (Binding, bool)
	ExplicitBindingsThisLevel() BindingsView

	Scope(marker Marker) (Scope, bool)

	ConvertersThisLevel() []MatcherAndConverter
	Converter(value string, to reflect.Type, errs ErrorSink, source any) (MatcherAndConverter, bool)

	MethodAspects() []MethodAspect

	Reserve(key Key)
	IsReserved(key Key) bool

	Lock() *Lock

	// level returns the concrete level, nil for None.
	level() *Level
}

// None is the root sentinel. It has no parent, answers every lookup with
// "absent" or "empty" and ends every upward walk.
var None State = noneState{}

var noneLock = newLock()

type noneState struct{}

func (noneState) Parent() State { return nil }

func (noneState) ExplicitBinding(Key) (Binding, bool) { return nil, false }

func (noneState) ExplicitBindingsThisLevel() BindingsView { return BindingsView{} }

func (noneState) Scope(Marker) (Scope, bool) { return nil, false }

func (noneState) ConvertersThisLevel() []MatcherAndConverter { return nil }

func (noneState) Converter(string, reflect.Type, ErrorSink, any) (MatcherAndConverter, bool) {
	return MatcherAndConverter{}, false
}

func (noneState) MethodAspects() []MethodAspect { return nil }

// Reserve on None ends the upward walk.
func (noneState) Reserve(Key) {}

func (noneState) IsReserved(Key) bool { return false }

func (noneState) Lock() *Lock { return noneLock }

func (noneState) level() *Level { return nil }

func (noneState) String() string { return "inherit.None" }
