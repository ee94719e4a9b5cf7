// Package state loads and saves entity snapshots and resolves them against
// code-defined defaults.
//
// Responsibilities:
//   - Store only loads/saves a single snapshot for a single Ref.
//   - Resolver clones the defaults tree, layers the persisted snapshot on top
//     through entity.Stack (imported leniently so stale files never break a
//     boot) and validates the result.
//   - The entity package stays persistence-agnostic; all file handling lives
//     behind Store implementations.
//
// Data flow:
//
//	Store -> Resolver -> entity.NewStack(...).Apply(defaults) -> entity.Entity
//
// Layout:
//
//	Ref.Identifier() yields "main" for the main tree and "modules/<name>" for
//	module trees. FileStore appends ".config.json" (or ".config.yaml").
package state
