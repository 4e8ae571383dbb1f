// Package queue is the durable record of writes awaiting execution
// against the backend.
//
// The queue is the single source of truth for pending and failed work.
// Every mutation persists a complete snapshot to the store before
// subscribers are notified, so an observer can never see a state that
// was not durably written. Entries are processed in enqueue order;
// success removes the entry, failure parks it until a retry trigger.
package queue
