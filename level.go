package inherit

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-inherit/pkg/activity"
	"github.com/google/uuid"
)

// LevelOption configures a Level at construction.
type LevelOption func(*levelConfig)

type levelConfig struct {
	name         string
	logger       Logger
	emitter      *activity.Emitter
	interception *bool
}

// WithName labels a level. Names are informational; identity is the level ID.
func WithName(name string) LevelOption {
	return func(cfg *levelConfig) {
		cfg.name = name
	}
}

// WithInterception turns aspect storage on or off for a level. Children
// inherit the parent's setting unless they set their own. Enabled by default.
func WithInterception(enabled bool) LevelOption {
	return func(cfg *levelConfig) {
		cfg.interception = &enabled
	}
}

// Level is one node of a configuration chain. It stores what was declared at
// this level and answers lookups by consulting itself and then its ancestors.
//
// Mutators do not lock. Every mutation of any level in a chain must happen
// while holding the chain's Lock (see Lock.Acquire); lookups are meant to run
// once configuration has finished.
type Level struct {
	id     string
	name   string
	depth  int
	parent State
	up     *Level

	bindings   *bindingTable
	scopes     map[Marker]Scope
	converters []MatcherAndConverter
	aspects    []MethodAspect
	aop        bool
	reserved   *reservationSet
	lock       *Lock

	logger  Logger
	emitter *activity.Emitter
}

// NewLevel creates a level under parent. Pass None to create a root level.
// A nil parent is a programming error and panics with ErrNilParent.
func NewLevel(parent State, opts ...LevelOption) *Level {
	if parent == nil {
		panic(ErrNilParent)
	}
	if lvl, ok := parent.(*Level); ok && lvl == nil {
		panic(ErrNilParent)
	}

	cfg := levelConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	l := &Level{
		id:       uuid.NewString(),
		name:     cfg.name,
		parent:   parent,
		up:       parent.level(),
		bindings: newBindingTable(),
		scopes:   make(map[Marker]Scope),
		reserved: newReservationSet(),
		logger:   noopLogger{},
		aop:      true,
	}

	if l.up == nil {
		l.lock = newLock()
	} else {
		l.lock = l.up.lock
		l.depth = l.up.depth + 1
		l.logger = l.up.logger
		l.emitter = l.up.emitter
		l.aop = l.up.aop
	}
	if cfg.logger != nil {
		l.logger = cfg.logger
	}
	if cfg.emitter != nil {
		l.emitter = cfg.emitter
	}
	if cfg.interception != nil {
		l.aop = *cfg.interception
	}

	l.log(LogEvent{Op: OpLevelCreated})
	l.emit(context.Background(), activity.BuildLevelCreatedEvent(l.activityLevel()))
	return l
}

// ID returns the level's unique identifier.
func (l *Level) ID() string { return l.id }

// Name returns the level's label, empty when unnamed.
func (l *Level) Name() string { return l.name }

// Depth returns the number of levels above this one (0 for a root level).
func (l *Level) Depth() int { return l.depth }

// Interception reports whether the level stores aspects.
func (l *Level) Interception() bool { return l.aop }

// Parent returns the parent state (None for a root level).
func (l *Level) Parent() State { return l.parent }

// Lock returns the lock shared by every level of this chain.
func (l *Level) Lock() *Lock { return l.lock }

func (l *Level) level() *Level { return l }

func (l *Level) String() string {
	if l.name != "" {
		return "level(" + l.name + ")"
	}
	return "level(" + l.id + ")"
}

// PutBinding stores binding under key at this level. It does not check for a
// binding already present; duplicate detection belongs to the caller.
func (l *Level) PutBinding(key Key, binding Binding) {
	l.bindings.put(key, binding)
	l.log(LogEvent{Op: OpBindingPut, Key: key.String()})
}

// ExplicitBinding returns the binding for key at this level or the nearest
// ancestor that has one.
func (l *Level) ExplicitBinding(key Key) (Binding, bool) {
	for s := l; s != nil; s = s.up {
		if b, ok := s.bindings.get(key); ok {
			return b, true
		}
	}
	return nil, false
}

// ExplicitBindingsThisLevel returns the bindings put at this level only, in
// put order.
func (l *Level) ExplicitBindingsThisLevel() BindingsView {
	return BindingsView{table: l.bindings}
}

// ScopesThisLevel returns a copy of the scopes registered at this level.
func (l *Level) ScopesThisLevel() map[Marker]Scope {
	out := make(map[Marker]Scope, len(l.scopes))
	for marker, scope := range l.scopes {
		out[marker] = scope
	}
	return out
}

// PutScope registers scope under marker at this level.
func (l *Level) PutScope(marker Marker, scope Scope) {
	l.scopes[marker] = scope
	l.log(LogEvent{Op: OpScopePut, Detail: marker.String()})
}

// Scope returns the scope for marker at this level or the nearest ancestor.
func (l *Level) Scope(marker Marker) (Scope, bool) {
	for s := l; s != nil; s = s.up {
		if scope, ok := s.scopes[marker]; ok {
			return scope, true
		}
	}
	return nil, false
}

// AddConverter appends a converter registration to this level.
func (l *Level) AddConverter(mc MatcherAndConverter) {
	l.converters = append(l.converters, mc)
	l.log(LogEvent{Op: OpConverterAdded, Detail: describe(mc.Source)})
}

// ConvertersThisLevel returns a copy of this level's own registrations in
// registration order.
func (l *Level) ConvertersThisLevel() []MatcherAndConverter {
	if len(l.converters) == 0 {
		return nil
	}
	out := make([]MatcherAndConverter, len(l.converters))
	copy(out, l.converters)
	return out
}

// Converter finds the converter for coercing value to the type to. It walks
// from this level to the root, testing each level's own registrations in
// order. Every match after the first is reported to errs as ambiguous with
// the previous best, and the later match replaces it: the last registration
// matched on the walk wins.
func (l *Level) Converter(value string, to reflect.Type, errs ErrorSink, source any) (MatcherAndConverter, bool) {
	var (
		best  MatcherAndConverter
		found bool
	)
	for s := l; s != nil; s = s.up {
		for _, mc := range s.converters {
			if !mc.Matches(to) {
				continue
			}
			if found {
				l.log(LogEvent{Op: OpConverterAmbig, Key: fmt.Sprint(to), Detail: value})
				if errs != nil {
					errs.AmbiguousTypeConversion(value, source, to, best, mc)
				}
			}
			best = mc
			found = true
		}
	}
	return best, found
}

// AddMethodAspect appends an aspect to this level. It returns
// ErrInterceptionDisabled when the level was built without interception.
func (l *Level) AddMethodAspect(aspect MethodAspect) error {
	if !l.aop {
		return ErrInterceptionDisabled
	}
	l.aspects = append(l.aspects, aspect)
	l.log(LogEvent{Op: OpAspectAdded, Detail: describe(aspect.Source)})
	return nil
}

// AspectsThisLevel returns a copy of this level's own aspects.
func (l *Level) AspectsThisLevel() []MethodAspect {
	if len(l.aspects) == 0 {
		return nil
	}
	out := make([]MethodAspect, len(l.aspects))
	copy(out, l.aspects)
	return out
}

// MethodAspects returns every aspect visible to this level: ancestors' first,
// root to leaf, each level's in registration order.
func (l *Level) MethodAspects() []MethodAspect {
	chain := l.chain()
	var out []MethodAspect
	for i := len(chain) - 1; i >= 0; i-- {
		if !chain[i].aop {
			continue
		}
		out = append(out, chain[i].aspects...)
	}
	return out
}

// Reserve marks key as reserved at every ancestor and then at this level.
func (l *Level) Reserve(key Key) {
	l.ReserveFor(key, l)
}

// ReserveFor reserves key at this level and its ancestors on behalf of
// holder, usually a child that binds key itself. The reservation lives only
// as long as holder does. A nil holder means l.
func (l *Level) ReserveFor(key Key, holder *Level) {
	if holder == nil {
		holder = l
	}
	chain := l.chain()
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].reserved.add(key, holder)
	}
	l.log(LogEvent{Op: OpKeyReserved, Key: key.String(), Count: len(chain), Detail: holder.String()})
}

// IsReserved reports whether key is reserved in this level's own set. It
// never consults ancestors.
func (l *Level) IsReserved(key Key) bool {
	return l.reserved.contains(key)
}

// ReservedKeys returns the keys currently reserved at this level, in no
// particular order.
func (l *Level) ReservedKeys() []Key {
	return l.reserved.keys()
}

// Sweep drops reservations whose requesting levels have all been collected
// and returns how many keys were removed.
func (l *Level) Sweep() int {
	removed := l.reserved.sweep()
	if removed > 0 {
		l.log(LogEvent{Op: OpReservationSweep, Count: removed})
	}
	return removed
}

// chain returns l and its ancestors, leaf first.
func (l *Level) chain() []*Level {
	out := make([]*Level, 0, l.depth+1)
	for s := l; s != nil; s = s.up {
		out = append(out, s)
	}
	return out
}

func (l *Level) log(event LogEvent) {
	event.LevelID = l.id
	event.LevelName = l.name
	event.Depth = l.depth
	l.logger.Log(event)
}

func (l *Level) emit(ctx context.Context, event activity.Event) {
	if !l.emitter.Enabled() {
		return
	}
	if err := l.emitter.Emit(ctx, event); err != nil {
		l.log(LogEvent{Op: "activity.emit", Err: err})
	}
}

func (l *Level) activityLevel() activity.Level {
	ref := activity.Level{ID: l.id, Name: l.name, Depth: l.depth}
	if l.up != nil {
		ref.ParentID = l.up.id
	}
	return ref
}
