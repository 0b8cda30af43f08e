package hop

// ActionKind discriminates what a resolved route asks the caller to do.
type ActionKind string

const (
	ActionRedirect ActionKind = "redirect" // issue an HTTP redirect to Value
	ActionBody     ActionKind = "body"     // return Value as response content
)

// Action is the outcome a route produces once resolved: either a redirect
// target or literal response content.
type Action struct {
	Kind  ActionKind
	Value string
}

// RedirectAction builds a redirect outcome.
func RedirectAction(location string) Action {
	return Action{Kind: ActionRedirect, Value: location}
}

// BodyAction builds a literal-content outcome.
func BodyAction(content string) Action {
	return Action{Kind: ActionBody, Value: content}
}
