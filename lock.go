package inherit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/goliatone/go-inherit/pkg/activity"
	"github.com/google/uuid"
)

var (
	// ErrForeignLevel is returned when a session is used on a level that
	// belongs to a different chain.
	ErrForeignLevel = errors.New("inherit: level belongs to a different lock domain")
	// ErrSessionReleased is returned when a released session is reused.
	ErrSessionReleased = errors.New("inherit: session already released")
	// ErrNilLevel is returned when a session is given a nil target.
	ErrNilLevel = errors.New("inherit: target level must not be nil")
)

// Lock is the single synchronisation domain of a chain. The level whose parent
// is None creates it; every descendant shares the same *Lock, so pointer
// equality identifies the chain.
type Lock struct {
	id  uuid.UUID
	sem chan struct{}
}

func newLock() *Lock {
	return &Lock{id: uuid.New(), sem: make(chan struct{}, 1)}
}

// ID returns the lock's identifier, useful in logs.
func (k *Lock) ID() uuid.UUID { return k.id }

func (k *Lock) String() string { return "lock(" + k.id.String() + ")" }

// Acquire blocks until the lock is held or ctx is done. The returned session
// is the only handle through which checked mutations are made; Release it
// when configuration of this batch is complete.
func (k *Lock) Acquire(ctx context.Context) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case k.sem <- struct{}{}:
		return &Session{lock: k, ctx: ctx}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("inherit: acquire %s: %w", k, ctx.Err())
	}
}

// TryAcquire takes the lock only if it is free.
func (k *Lock) TryAcquire() (*Session, bool) {
	select {
	case k.sem <- struct{}{}:
		return &Session{lock: k, ctx: context.Background()}, true
	default:
		return nil, false
	}
}

// Do runs fn while holding the lock.
func (k *Lock) Do(ctx context.Context, fn func(*Session) error) error {
	session, err := k.Acquire(ctx)
	if err != nil {
		return err
	}
	defer session.Release()
	return fn(session)
}

// Session is proof that a chain's Lock is held. Mutations made through it are
// checked against the chain the lock belongs to.
type Session struct {
	lock     *Lock
	ctx      context.Context
	released atomic.Bool
}

// Lock returns the held lock.
func (s *Session) Lock() *Lock { return s.lock }

// Release gives the lock back. Calling it more than once is a no-op.
func (s *Session) Release() {
	if s.released.CompareAndSwap(false, true) {
		<-s.lock.sem
	}
}

// PutBinding stores binding under key at target.
func (s *Session) PutBinding(target State, key Key, binding Binding) error {
	l, err := s.check(target)
	if err != nil {
		return err
	}
	l.PutBinding(key, binding)
	source := ""
	if binding != nil {
		source = describe(binding.Source())
	}
	l.emit(s.ctx, activity.BuildBindingDeclaredEvent(l.activityLevel(), key.String(), source))
	return nil
}

// PutScope registers scope under marker at target.
func (s *Session) PutScope(target State, marker Marker, scope Scope) error {
	l, err := s.check(target)
	if err != nil {
		return err
	}
	l.PutScope(marker, scope)
	return nil
}

// AddConverter appends a converter registration to target.
func (s *Session) AddConverter(target State, mc MatcherAndConverter) error {
	l, err := s.check(target)
	if err != nil {
		return err
	}
	l.AddConverter(mc)
	return nil
}

// AddMethodAspect appends an aspect to target.
func (s *Session) AddMethodAspect(target State, aspect MethodAspect) error {
	l, err := s.check(target)
	if err != nil {
		return err
	}
	return l.AddMethodAspect(aspect)
}

// Reserve reserves key at target and all its ancestors. Reserving through
// None is a no-op, as it is for State.Reserve.
func (s *Session) Reserve(target State, key Key) error {
	return s.ReserveFor(target, key, nil)
}

// ReserveFor is Reserve with the reservation held by holder instead of
// target; see Level.ReserveFor. holder must share the session's lock.
func (s *Session) ReserveFor(target State, key Key, holder *Level) error {
	if target == nil {
		return ErrNilLevel
	}
	if s.released.Load() {
		return ErrSessionReleased
	}
	if holder != nil && holder.lock != s.lock {
		return fmt.Errorf("%w: holder %s is not held for %s", ErrForeignLevel, holder, s.lock)
	}
	if target.level() == nil {
		return nil
	}
	l, err := s.check(target)
	if err != nil {
		return err
	}
	l.ReserveFor(key, holder)
	if holder == nil {
		holder = l
	}
	l.emit(s.ctx, activity.BuildKeyReservedEvent(l.activityLevel(), key.String(), holder.activityLevel()))
	return nil
}

func (s *Session) check(target State) (*Level, error) {
	if s.released.Load() {
		return nil, ErrSessionReleased
	}
	if target == nil {
		return nil, ErrNilLevel
	}
	l := target.level()
	if l == nil {
		return nil, ErrSentinelImmutable
	}
	if l.lock != s.lock {
		return nil, fmt.Errorf("%w: %s is not held for %s", ErrForeignLevel, s.lock, l)
	}
	return l, nil
}

func describe(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}
