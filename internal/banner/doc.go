// Package banner projects queue and connectivity state into the small
// enumerated banner the UI layer displays. The projection is a Mealy
// machine: its only memory is the prior displayed state, used to decide
// whether a return to a clean queue deserves a transient "synced"
// acknowledgment.
package banner
