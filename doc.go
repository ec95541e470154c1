// Package inherit holds the configuration state of an injection container
// organised as a chain of levels.
//
// A root level is created under None; child levels are created under any
// existing level for overrides, tests or module composition. Each level keeps
// what was declared on it and sees everything its ancestors declared:
//
//	root := inherit.NewLevel(inherit.None, inherit.WithName("root"))
//	child := inherit.NewLevel(root, inherit.WithName("test"))
//
//	root.PutBinding(dbKey, dbBinding)
//	child.PutBinding(clockKey, fakeClock)
//
//	child.ExplicitBinding(dbKey)    // root's binding
//	root.ExplicitBinding(clockKey)  // absent
//
// Lookup rules:
//
//   - Bindings and scopes: the level first, then each ancestor. The nearest
//     declaration shadows the rest; children are invisible to parents.
//   - Converters: every level from the queried one to the root contributes its
//     own registrations. Each match after the first is reported to the
//     ErrorSink and replaces the previous one, so the last match wins.
//   - Aspects: ancestors' aspects first, root to leaf.
//   - Reservations: Reserve records the key on every ancestor and the level
//     itself; IsReserved only reads the level's own set.
//
// Every level of a chain shares one Lock. Mutations must be made while it is
// held; Lock.Acquire returns a Session that checks each mutation targets the
// same chain.
package inherit
