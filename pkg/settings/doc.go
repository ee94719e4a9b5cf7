// Package settings holds the committed configuration trees of a bot: one
// main tree and one tree per module.
//
// Editors never touch a committed tree. They receive a clone through
// DraftMain or DraftModule, or send snapshots through ApplyAll, and the
// manager swaps a tree in only after it validates. Persistence goes through
// a state.Store and lifecycle events through an activity.Emitter.
package settings
