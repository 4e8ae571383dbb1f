// Package notifications pushes non-blocking warnings about queue
// health (persistent save failures, mutations entering failed) to an
// optional ntfy topic. Unconfigured installs get a noop service.
package notifications
