// Package hop provides route table value types and pure resolution functions.
// A route maps a short keyword to either a URL template or a delegate program;
// tables are compiled from configuration groups and are immutable once built.
package hop

import (
	"fmt"
	"strconv"
)

// Kind discriminates the two route variants.
type Kind string

const (
	KindTemplate Kind = "template" // static URL template with an optional query marker
	KindExec     Kind = "exec"     // external program computes the destination
)

// MaxArgsUnbounded marks a route that accepts any number of argument words.
const MaxArgsUnbounded = -1

// Route is a single keyword mapping (immutable value type).
// Exactly one of Template or Exec is populated, per Kind.
type Route struct {
	Keyword     string
	Kind        Kind
	Template    string // destination template for KindTemplate
	Exec        string // executable path for KindExec
	MinArgs     int    // minimum argument words; 0 = no lower bound
	MaxArgs     int    // maximum argument words; MaxArgsUnbounded = no upper bound
	Hidden      bool   // excluded from listings; still resolvable
	Description string
	Group       string // owning group name, for listings and stats
}

// Group is an ordered collection of routes under a display name.
// Group order and in-group route order mirror the configuration document.
type Group struct {
	Name        string
	Description string
	Hidden      bool // hides every member route from listings
	Routes      []Route
}

// NewTemplateRoute creates a static route with open argument bounds.
func NewTemplateRoute(keyword, template string) Route {
	return Route{
		Keyword:  keyword,
		Kind:     KindTemplate,
		Template: template,
		MaxArgs:  MaxArgsUnbounded,
	}
}

// NewExecRoute creates a delegate route with open argument bounds.
func NewExecRoute(keyword, path string) Route {
	return Route{
		Keyword: keyword,
		Kind:    KindExec,
		Exec:    path,
		MaxArgs: MaxArgsUnbounded,
	}
}

// AcceptsArgCount reports whether n argument words satisfy the route's bounds.
func (r Route) AcceptsArgCount(n int) bool {
	if n < r.MinArgs {
		return false
	}
	if r.MaxArgs != MaxArgsUnbounded && n > r.MaxArgs {
		return false
	}
	return true
}

// Destination returns a display string for listings: the template for static
// routes, the executable path for delegate routes.
func (r Route) Destination() string {
	if r.Kind == KindExec {
		return r.Exec
	}
	return r.Template
}

// ArgRange returns a display string for the accepted argument counts:
// "any", "2", "1+" or "1-3".
func (r Route) ArgRange() string {
	switch {
	case r.MinArgs == 0 && r.MaxArgs == MaxArgsUnbounded:
		return "any"
	case r.MaxArgs == MaxArgsUnbounded:
		return strconv.Itoa(r.MinArgs) + "+"
	case r.MinArgs == r.MaxArgs:
		return strconv.Itoa(r.MinArgs)
	default:
		return fmt.Sprintf("%d-%d", r.MinArgs, r.MaxArgs)
	}
}
