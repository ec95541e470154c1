package inventory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	inherit "github.com/goliatone/go-inherit"
	"github.com/goliatone/go-inherit/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestScoped struct{}

func fixedClock() time.Time {
	return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
}

func sampleHierarchy(t *testing.T) *inherit.Hierarchy {
	t.Helper()
	h, leaf, err := inherit.RootModuleOverrideTest()
	require.NoError(t, err)

	root := h.Root()
	module, _ := h.Level(inherit.LevelNameModule)
	dsn := inherit.KeyOf[string]("dsn")
	port := inherit.KeyOf[int]("port")

	err = h.Lock().Do(context.Background(), func(s *inherit.Session) error {
		require.NoError(t, s.PutBinding(root, dsn, inherit.NewDeclared(dsn, "prod", "root.yaml")))
		require.NoError(t, s.PutBinding(root, port, inherit.NewDeclared(port, 8080, "root.yaml")))
		require.NoError(t, s.PutBinding(leaf, dsn, inherit.NewDeclared(dsn, "memory", "test.yaml")))
		require.NoError(t, s.PutScope(module, inherit.MarkerFor[requestScoped](), inherit.NamedScope("request")))
		require.NoError(t, s.AddConverter(module, inherit.MatcherAndConverter{
			TypeMatcher: matcher.OnlyType[int](),
			Converter:   inherit.ConverterFunc(nil),
			Source:      "module.yaml",
		}))
		require.NoError(t, s.AddMethodAspect(root, inherit.MethodAspect{Source: "audit"}))
		require.NoError(t, s.Reserve(leaf.Parent(), dsn))
		return s.Reserve(leaf, port)
	})
	require.NoError(t, err)
	return h
}

func TestCaptureDescribesEveryLevel(t *testing.T) {
	h := sampleHierarchy(t)
	snapshot := Capture(h, WithName("app"), WithClock(fixedClock))

	assert.Equal(t, "app", snapshot.Name)
	assert.True(t, snapshot.CapturedAt.Equal(fixedClock()))
	require.Len(t, snapshot.Levels, 4)

	names := make([]string, len(snapshot.Levels))
	for i, l := range snapshot.Levels {
		names[i] = l.Name
	}
	assert.Equal(t, []string{"root", "module", "override", "test"}, names)

	root, ok := snapshot.Level("root")
	require.True(t, ok)
	assert.Empty(t, root.ParentID)
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 1, root.Aspects)
	require.Len(t, root.Bindings, 2)
	assert.Equal(t, inherit.KeyOf[string]("dsn").String(), root.Bindings[0].Key)
	assert.Equal(t, "root.yaml", root.Bindings[0].Source)
	assert.Equal(t, []string{
		inherit.KeyOf[int]("port").String(),
		inherit.KeyOf[string]("dsn").String(),
	}, root.Reserved)

	module, _ := snapshot.Level("module")
	assert.Equal(t, root.ID, module.ParentID)
	require.Len(t, module.Scopes, 1)
	assert.Equal(t, ScopeRecord{Marker: inherit.MarkerFor[requestScoped]().String(), Scope: "request"}, module.Scopes[0])
	require.Len(t, module.Converters, 1)
	assert.Equal(t, "module.yaml", module.Converters[0].Source)
	assert.Equal(t, "only(int)", module.Converters[0].Matcher)

	test, _ := snapshot.Level("test")
	assert.Equal(t, 3, test.Depth)
	assert.Equal(t, []string{inherit.KeyOf[int]("port").String()}, test.Reserved)

	_, ok = snapshot.Level("missing")
	assert.False(t, ok)
}

func TestCaptureNilHierarchy(t *testing.T) {
	snapshot := Capture(nil, WithClock(fixedClock))
	assert.Empty(t, snapshot.Levels)
}

func TestSnapshotJSONShape(t *testing.T) {
	payload, err := json.Marshal(Capture(sampleHierarchy(t), WithClock(fixedClock)))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Contains(t, decoded, "captured_at")
	levels, ok := decoded["levels"].([]any)
	require.True(t, ok)
	first := levels[0].(map[string]any)
	assert.Equal(t, "root", first["name"])
	assert.NotContains(t, first, "parent_id")
}

func TestMemoryStoreSaveLoadList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.now = fixedClock

	snapshot, meta, err := Record(ctx, store, sampleHierarchy(t), Meta{Extra: map[string]string{"env": "ci"}}, WithName("first"))
	require.NoError(t, err)
	assert.NotEmpty(t, meta.SnapshotID)
	assert.NotEmpty(t, meta.ETag)
	assert.Equal(t, "first", meta.Name)
	assert.True(t, meta.UpdatedAt.Equal(fixedClock()))

	loaded, loadedMeta, ok, err := store.Load(ctx, meta.SnapshotID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot.Name, loaded.Name)
	assert.Equal(t, meta, loadedMeta)

	loadedMeta.Extra["env"] = "mutated"
	_, again, _, _ := store.Load(ctx, meta.SnapshotID)
	assert.Equal(t, "ci", again.Extra["env"], "Load must return a copy of Extra")

	store.now = func() time.Time { return fixedClock().Add(time.Minute) }
	_, second, err := Record(ctx, store, sampleHierarchy(t), Meta{}, WithName("second"))
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.SnapshotID, list[0].SnapshotID)
	assert.Equal(t, meta.SnapshotID, list[1].SnapshotID)

	_, _, ok, err = store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveETagMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	snapshot := Capture(sampleHierarchy(t), WithName("a"))

	meta, err := store.Save(ctx, snapshot, Meta{})
	require.NoError(t, err)

	// saving with the current etag succeeds
	snapshot.Name = "b"
	updated, err := store.Save(ctx, snapshot, Meta{SnapshotID: meta.SnapshotID, ETag: meta.ETag})
	require.NoError(t, err)
	assert.Equal(t, meta.SnapshotID, updated.SnapshotID)
	assert.NotEqual(t, meta.ETag, updated.ETag)

	// the stale etag is now rejected
	_, err = store.Save(ctx, snapshot, Meta{SnapshotID: meta.SnapshotID, ETag: meta.ETag})
	assert.ErrorIs(t, err, ErrETagMismatch)
}

func TestGetAndRecordErrors(t *testing.T) {
	ctx := context.Background()
	_, _, err := Get(ctx, NewMemoryStore(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = Get(ctx, nil, "nope")
	assert.Error(t, err)

	_, _, err = Record(ctx, nil, sampleHierarchy(t), Meta{})
	assert.Error(t, err)
	_, _, err = Record(ctx, NewMemoryStore(), nil, Meta{})
	assert.Error(t, err)
}

func TestETagIsStable(t *testing.T) {
	snapshot := Capture(sampleHierarchy(t), WithClock(fixedClock))
	a, err := ETag(snapshot)
	require.NoError(t, err)
	b, err := ETag(snapshot)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}
