package layering

import (
	"testing"

	inherit "github.com/goliatone/go-inherit"
)

func declared(key inherit.Key, target string) *inherit.Declared {
	return inherit.NewDeclared(key, target, target)
}

func TestChainOrdering(t *testing.T) {
	h, leaf, err := inherit.RootModuleOverrideTest()
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	chain := Chain(leaf)
	if chain.Len() != 4 {
		t.Fatalf("expected 4 levels, got %d", chain.Len())
	}
	if chain.Strongest() != leaf || chain.Weakest() != h.Root() {
		t.Fatalf("unexpected ends %v %v", chain.Strongest(), chain.Weakest())
	}
	names := chain.Names()
	want := []string{"root", "module", "override", "test"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
	ordered := chain.Ordered()
	ordered[0] = nil
	if chain.Strongest() != leaf {
		t.Fatalf("expected Ordered to return a copy")
	}

	empty := Chain(nil)
	if empty.Len() != 0 || empty.Strongest() != nil || empty.Weakest() != nil {
		t.Fatalf("expected empty chain for nil level")
	}
}

func TestEffectiveStrongestWinsKeepsRootOrder(t *testing.T) {
	root := inherit.NewLevel(inherit.None, inherit.WithName("root"))
	child := inherit.NewLevel(root, inherit.WithName("child"))

	dsn := inherit.KeyOf[string]("dsn")
	port := inherit.KeyOf[int]("port")
	clock := inherit.KeyOf[string]("clock")

	root.PutBinding(dsn, declared(dsn, "prod-dsn"))
	root.PutBinding(port, declared(port, "8080"))
	child.PutBinding(clock, declared(clock, "fake-clock"))
	child.PutBinding(dsn, declared(dsn, "test-dsn"))

	entries := Effective(child)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantKeys := []inherit.Key{dsn, port, clock}
	wantLevels := []*inherit.Level{child, root, child}
	for i := range wantKeys {
		if entries[i].Key != wantKeys[i] || entries[i].Level != wantLevels[i] {
			t.Fatalf("entry %d: got %s at %s", i, entries[i].Key, entries[i].Level)
		}
	}
	if entries[0].Binding.(*inherit.Declared).Target != "test-dsn" {
		t.Fatalf("expected child binding to win")
	}

	rootEntries := Effective(root)
	if len(rootEntries) != 2 {
		t.Fatalf("expected root to see only its own bindings, got %d", len(rootEntries))
	}
}

func TestOverrides(t *testing.T) {
	root := inherit.NewLevel(inherit.None, inherit.WithName("root"))
	mid := inherit.NewLevel(root, inherit.WithName("mid"))
	leaf := inherit.NewLevel(mid, inherit.WithName("leaf"))

	key := inherit.KeyOf[string]("dsn")
	other := inherit.KeyOf[string]("other")
	root.PutBinding(key, declared(key, "root"))
	mid.PutBinding(key, declared(key, "mid"))
	leaf.PutBinding(other, declared(other, "leaf-only"))
	leaf.PutBinding(key, declared(key, "leaf"))

	overrides := Overrides(leaf)
	if len(overrides) != 1 {
		t.Fatalf("expected one override, got %d", len(overrides))
	}
	ov := overrides[0]
	if ov.Key != key || ov.Level != leaf || len(ov.Shadowed) != 2 {
		t.Fatalf("unexpected override %+v", ov)
	}
	if ov.Shadowed[0].Level != mid || ov.Shadowed[1].Level != root {
		t.Fatalf("expected nearest ancestor first, got %s then %s", ov.Shadowed[0].Level, ov.Shadowed[1].Level)
	}

	if len(Overrides(root)) != 0 {
		t.Fatalf("expected no overrides at root")
	}
	if Overrides(nil) != nil {
		t.Fatalf("expected nil for nil level")
	}

	all := ChainOverrides(leaf)
	if len(all) != 2 || all[0].Level != leaf || all[1].Level != mid {
		t.Fatalf("unexpected chain overrides %+v", all)
	}
}
