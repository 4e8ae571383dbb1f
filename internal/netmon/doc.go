// Package netmon provides the connectivity signal the sync engine
// drains under. The HTTP probe polls the backend health endpoint;
// Manual lets tests and host platforms inject reachability directly.
package netmon
