package hop

import (
	"strings"
)

// Hit is the outcome of resolving a query against a table.
type Hit struct {
	Route    Route
	Args     []string // whitespace-delimited argument words
	Fallback bool     // resolved via the default route
}

// Resolve matches a raw query string against the table.
//
// The query is trimmed and split on whitespace; the first word is the
// keyword, the remaining words are the arguments. A keyword whose entry
// rejects the argument count is a soft mismatch, not an error: resolution
// falls through to the default route, which receives every word of the
// original query as its argument payload. Default-route bounds are not
// checked on fallback. An empty query, or a miss with no default route
// configured, reports no hit.
func (t *Table) Resolve(query string) (Hit, bool) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return Hit{}, false
	}

	if r, ok := t.byKeyword[words[0]]; ok {
		args := words[1:]
		if r.AcceptsArgCount(len(args)) {
			return Hit{Route: r, Args: args}, true
		}
	}

	if t.def != nil {
		return Hit{Route: *t.def, Args: words, Fallback: true}, true
	}

	return Hit{}, false
}
