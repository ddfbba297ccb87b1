// Package id generates run identifiers for the journal.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string: time-sortable, monotonic within a millisecond,
// safe for concurrent use. Journal run IDs only; anything inside a backtest
// result uses sequential integers so a rerun reproduces the result byte for
// byte.
func New() string {
	return ulid.Make().String()
}
