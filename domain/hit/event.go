// Package hit provides resolution hit event types. All values are
// immutable; aggregation happens in the store.
package hit

import "time"

// Event records one successful query resolution.
type Event struct {
	ID       string
	Keyword  string // keyword of the route that served the query
	Group    string // owning group of that route
	Kind     string // "template" or "exec"
	Fallback bool   // resolved via the default route
	At       time.Time
}

// KeywordCount is an aggregated hit total for one keyword.
type KeywordCount struct {
	Keyword string
	Count   int64
}
