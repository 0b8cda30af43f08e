package hop

import (
	"errors"
	"fmt"
)

// Validation failures surfaced by Compile. Callers classify with errors.Is.
var (
	// ErrInvalidKeyword is returned when a group declares a route with an
	// empty keyword.
	ErrInvalidKeyword = errors.New("invalid route keyword")

	// ErrDanglingDefaultRoute is returned when the configured default route
	// keyword does not resolve to any compiled entry.
	ErrDanglingDefaultRoute = errors.New("default route does not match any keyword")
)

// Table is a compiled, query-ready route table (immutable after Compile).
// It holds the flattened keyword mapping plus the ordered groups retained
// for listing purposes. Replacement is the only update operation; a Table
// is never mutated in place.
type Table struct {
	byKeyword map[string]Route
	groups    []Group
	def       *Route
}

// Compile flattens groups into a keyword table. Groups are visited in
// document order and routes within a group in document order; when the same
// keyword is declared more than once, the declaration seen last wins and
// earlier ones are silently superseded. When defaultKeyword is non-empty it
// must resolve against the flattened mapping.
//
// The table keeps its own copy of the groups, with every route stamped with
// its owning group name. Mutating the input after Compile has no effect.
func Compile(groups []Group, defaultKeyword string) (*Table, error) {
	byKeyword := make(map[string]Route)
	kept := make([]Group, len(groups))
	for gi, g := range groups {
		routes := make([]Route, len(g.Routes))
		for ri, r := range g.Routes {
			if r.Keyword == "" {
				return nil, fmt.Errorf("group %q: %w", g.Name, ErrInvalidKeyword)
			}
			r.Group = g.Name
			routes[ri] = r
			byKeyword[r.Keyword] = r
		}
		g.Routes = routes
		kept[gi] = g
	}

	t := &Table{
		byKeyword: byKeyword,
		groups:    kept,
	}

	if defaultKeyword != "" {
		r, ok := byKeyword[defaultKeyword]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrDanglingDefaultRoute, defaultKeyword)
		}
		t.def = &r
	}

	return t, nil
}

// Lookup returns the route for a keyword.
func (t *Table) Lookup(keyword string) (Route, bool) {
	r, ok := t.byKeyword[keyword]
	return r, ok
}

// Default returns the fallback route, if one is configured.
func (t *Table) Default() (Route, bool) {
	if t.def == nil {
		return Route{}, false
	}
	return *t.def, true
}

// Groups returns the groups in document order, including hidden entries.
// Presentation layers apply their own visibility filtering.
func (t *Table) Groups() []Group {
	return t.groups
}

// Len returns the number of distinct keywords in the table.
func (t *Table) Len() int {
	return len(t.byKeyword)
}
