// Package executor performs queued mutations against the inventory
// backend. Payloads are opaque to the queue and sync engine; this is
// the only layer that puts them on the wire.
package executor
