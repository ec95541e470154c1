package inherit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLockSharedAcrossChain(t *testing.T) {
	root := NewLevel(None)
	child := NewLevel(root)
	grandchild := NewLevel(child)
	sibling := NewLevel(root)

	for _, l := range []*Level{child, grandchild, sibling} {
		if l.Lock() != root.Lock() {
			t.Fatalf("expected %s to share the root lock", l)
		}
	}
	other := NewLevel(None)
	if other.Lock() == root.Lock() {
		t.Fatalf("expected separate chains to have separate locks")
	}
	if root.Lock() == None.Lock() {
		t.Fatalf("expected root lock to differ from None's")
	}
	if root.Lock().ID() == other.Lock().ID() {
		t.Fatalf("expected distinct lock IDs")
	}
}

func TestSessionMutations(t *testing.T) {
	root := NewLevel(None)
	child := NewLevel(root)
	key := KeyOf[string]("")

	session, err := root.Lock().Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := session.PutBinding(child, key, bind(key, "v")); err != nil {
		t.Fatalf("put binding: %v", err)
	}
	if err := session.PutScope(root, MarkerFor[requestScoped](), NamedScope("request")); err != nil {
		t.Fatalf("put scope: %v", err)
	}
	if err := session.AddConverter(root, converterAt("root", 0)); err != nil {
		t.Fatalf("add converter: %v", err)
	}
	if err := session.AddMethodAspect(child, aspectFrom("A")); err != nil {
		t.Fatalf("add aspect: %v", err)
	}
	if err := session.Reserve(child, key); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	session.Release()

	if _, ok := child.ExplicitBinding(key); !ok {
		t.Fatalf("expected binding stored")
	}
	if _, ok := child.Scope(MarkerFor[requestScoped]()); !ok {
		t.Fatalf("expected scope stored")
	}
	if len(root.ConvertersThisLevel()) != 1 || len(child.MethodAspects()) != 1 {
		t.Fatalf("expected converter and aspect stored")
	}
	if !root.IsReserved(key) || !child.IsReserved(key) {
		t.Fatalf("expected reservation on both levels")
	}
}

func TestSessionRejections(t *testing.T) {
	root := NewLevel(None)
	foreign := NewLevel(None)
	key := KeyOf[string]("")

	session, ok := root.Lock().TryAcquire()
	if !ok {
		t.Fatalf("expected free lock")
	}

	if err := session.PutBinding(foreign, key, bind(key, "x")); !errors.Is(err, ErrForeignLevel) {
		t.Fatalf("expected ErrForeignLevel, got %v", err)
	}
	if err := session.PutBinding(None, key, bind(key, "x")); !errors.Is(err, ErrSentinelImmutable) {
		t.Fatalf("expected ErrSentinelImmutable, got %v", err)
	}
	if err := session.AddConverter(nil, MatcherAndConverter{}); !errors.Is(err, ErrNilLevel) {
		t.Fatalf("expected ErrNilLevel, got %v", err)
	}
	if err := session.Reserve(None, key); err != nil {
		t.Fatalf("expected reserving through None to be a no-op, got %v", err)
	}
	if err := session.ReserveFor(root, key, foreign); !errors.Is(err, ErrForeignLevel) {
		t.Fatalf("expected ErrForeignLevel for a foreign holder, got %v", err)
	}
	holder := NewLevel(root)
	if err := session.ReserveFor(root, key, holder); err != nil {
		t.Fatalf("reserve for holder: %v", err)
	}
	if !root.IsReserved(key) || holder.IsReserved(key) {
		t.Fatalf("expected reservation at root only")
	}

	disabled := NewLevel(root, WithInterception(false))
	if err := session.AddMethodAspect(disabled, aspectFrom("A")); !errors.Is(err, ErrInterceptionDisabled) {
		t.Fatalf("expected ErrInterceptionDisabled, got %v", err)
	}

	session.Release()
	session.Release()

	if err := session.PutBinding(root, key, bind(key, "x")); !errors.Is(err, ErrSessionReleased) {
		t.Fatalf("expected ErrSessionReleased, got %v", err)
	}
	if err := session.Reserve(None, key); !errors.Is(err, ErrSessionReleased) {
		t.Fatalf("expected ErrSessionReleased through None, got %v", err)
	}
	if _, ok := root.ExplicitBinding(key); ok {
		t.Fatalf("expected rejected mutations to leave no trace")
	}
}

func TestTryAcquireWhileHeld(t *testing.T) {
	root := NewLevel(None)
	child := NewLevel(root)

	held, ok := root.Lock().TryAcquire()
	if !ok {
		t.Fatalf("expected free lock")
	}
	if _, ok := child.Lock().TryAcquire(); ok {
		t.Fatalf("expected the chain lock to be held")
	}
	held.Release()
	again, ok := child.Lock().TryAcquire()
	if !ok {
		t.Fatalf("expected lock to be free after release")
	}
	again.Release()
}

func TestAcquireHonoursContext(t *testing.T) {
	root := NewLevel(None)
	held, _ := root.Lock().TryAcquire()
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := root.Lock().Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLockSerialisesMutators(t *testing.T) {
	root := NewLevel(None)
	levels := []*Level{NewLevel(root), NewLevel(root), NewLevel(root)}

	var wg sync.WaitGroup
	for i, l := range levels {
		for j := 0; j < 20; j++ {
			wg.Add(1)
			go func(l *Level, n int) {
				defer wg.Done()
				err := root.Lock().Do(context.Background(), func(s *Session) error {
					key := KeyOf[int](string(rune('a' + n%26)))
					if err := s.PutBinding(l, key, bind(key, "x")); err != nil {
						return err
					}
					return s.Reserve(l, key)
				})
				if err != nil {
					t.Errorf("do: %v", err)
				}
			}(l, i*20+j)
		}
	}
	wg.Wait()

	for _, l := range levels {
		if l.ExplicitBindingsThisLevel().Len() == 0 {
			t.Fatalf("expected bindings on %s", l)
		}
	}
	if len(root.ReservedKeys()) == 0 {
		t.Fatalf("expected reservations at root")
	}
}

func TestDoReleasesOnError(t *testing.T) {
	root := NewLevel(None)
	boom := errors.New("boom")
	if err := root.Lock().Do(context.Background(), func(*Session) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	s, ok := root.Lock().TryAcquire()
	if !ok {
		t.Fatalf("expected lock released after Do")
	}
	s.Release()
}
