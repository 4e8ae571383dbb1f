// Package logging builds the slog loggers used across barsync and
// provides standardized attribute helpers so queue entries and
// mutations are logged with consistent keys.
package logging
