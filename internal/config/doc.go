// Package config loads and validates barsync configuration from TOML.
//
// Configuration is resolved from an explicit path, then
// ~/.config/barsync/config.toml, then barsync.toml in the working
// directory. Missing files fall back to defaults so the queue can run
// with nothing but a backend URL.
package config
