// Package botschema declares the configuration trees of the bot: the main
// tree (server port, Twitch and StreamElements credentials, channel rewards)
// and the per-module tree (commands and functions with their cooldowns,
// user filters, triggers and responses).
//
// Register installs every tag on an entity.Registry so persisted snapshots of
// these trees can be read back, including array elements and dynamic
// object children that only exist in the snapshot.
package botschema
