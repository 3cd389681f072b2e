// Package store implements the Postgres repositories behind the
// ingestion, chat, and training components. Rows are traversed by
// explicit id lookup; no live object graph is kept.
package store

import "errors"

// ErrNotFound is returned when a referenced entity id does not exist.
var ErrNotFound = errors.New("not found")
