// Package inventory captures serialisable snapshots of a hierarchy and
// persists them behind a small Store contract.
//
// Data flow:
//
//	inherit.Hierarchy -> Capture -> Snapshot -> Store.Save -> Meta
//
// Store implementations only load, save and list whole snapshots; IDs, ETags
// and timestamps are computed by PrepareSave so every implementation agrees
// on them. MemoryStore lives here; a SQLite implementation lives in
// sqlitestore.
package inventory
