// Package syncer drives queued entries to completion against the
// backend: one entry in flight at a time, in enqueue order, woken by
// connectivity changes, new enqueues, and explicit retry requests.
package syncer
