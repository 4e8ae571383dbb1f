// Package store persists serialized queue snapshots.
//
// The queue treats the store as an opaque key-value slot: every state
// change saves one complete snapshot, and startup loads the last one.
// The SQLite implementation is the durable store used in production;
// Memory backs tests.
package store
