package inventory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	inherit "github.com/goliatone/go-inherit"
	"github.com/google/uuid"
)

var (
	ErrETagMismatch = errors.New("inventory: etag mismatch")
	ErrNotFound     = errors.New("inventory: snapshot not found")
)

// Meta is storage-owned metadata used for listing and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves snapshots by ID.
//
// Save assigns a SnapshotID when meta has none. When meta carries an ETag and
// a snapshot with that ID already exists, the stored ETag must match or Save
// fails with ErrETagMismatch.
type Store interface {
	Load(ctx context.Context, id string) (snapshot Snapshot, meta Meta, ok bool, err error)
	Save(ctx context.Context, snapshot Snapshot, meta Meta) (Meta, error)
	List(ctx context.Context) ([]Meta, error)
}

// Record captures h and saves the snapshot into store.
func Record(ctx context.Context, store Store, h *inherit.Hierarchy, meta Meta, opts ...CaptureOption) (Snapshot, Meta, error) {
	if store == nil {
		return Snapshot{}, Meta{}, fmt.Errorf("inventory: store is required")
	}
	if h == nil {
		return Snapshot{}, Meta{}, fmt.Errorf("inventory: hierarchy is required")
	}
	snapshot := Capture(h, opts...)
	saved, err := store.Save(ctx, snapshot, meta)
	if err != nil {
		return Snapshot{}, Meta{}, fmt.Errorf("inventory: save %q: %w", snapshot.Name, err)
	}
	return snapshot, saved, nil
}

// Get loads id from store, failing with ErrNotFound when it is absent.
func Get(ctx context.Context, store Store, id string) (Snapshot, Meta, error) {
	if store == nil {
		return Snapshot{}, Meta{}, fmt.Errorf("inventory: store is required")
	}
	snapshot, meta, ok, err := store.Load(ctx, id)
	if err != nil {
		return Snapshot{}, Meta{}, fmt.Errorf("inventory: load %q: %w", id, err)
	}
	if !ok {
		return Snapshot{}, Meta{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snapshot, meta, nil
}

// PrepareSave computes the metadata to store for snapshot given the record
// already stored under the same ID (existing, found). Store implementations
// share it so they agree on IDs, ETags and timestamps.
func PrepareSave(snapshot Snapshot, incoming, existing Meta, found bool, now time.Time) (Meta, error) {
	if found && incoming.ETag != "" && existing.ETag != "" && incoming.ETag != existing.ETag {
		return existing, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, incoming.ETag, existing.ETag)
	}
	out := existing
	if !found {
		out = Meta{}
	}
	out.SnapshotID = incoming.SnapshotID
	if out.SnapshotID == "" {
		out.SnapshotID = NewSnapshotID()
	}
	out.Name = snapshot.Name
	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	if incoming.Extra != nil {
		out.Extra = incoming.Extra
	}
	out.UpdatedAt = incoming.UpdatedAt
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = now.UTC()
	}
	// the first save fixes CreatedAt; updates never move it
	if out.CreatedAt.IsZero() {
		out.CreatedAt = incoming.CreatedAt
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = out.UpdatedAt
	}
	etag, err := ETag(snapshot)
	if err != nil {
		return Meta{}, err
	}
	out.ETag = etag
	return CloneMeta(out), nil
}

// NewSnapshotID returns a time-ordered identifier.
func NewSnapshotID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ETag hashes the JSON form of snapshot.
func ETag(snapshot Snapshot) (string, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("inventory: encode snapshot: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8]), nil
}

// CloneMeta deep-copies meta.
func CloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
