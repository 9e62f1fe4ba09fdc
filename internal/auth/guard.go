package auth

import "github.com/desertthunder/ecn/internal/models"

// LoginPath is where unauthenticated viewers are sent.
const LoginPath = "/login"

// Decision is the route guard's verdict for a protected view.
type Decision int

const (
	Loading  Decision = iota // store still initializing: show a loading indicator
	Redirect                 // unauthenticated: go to [LoginPath], dropping the attempted location
	Render                   // authenticated: render the protected view unchanged
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decide gates a protected view on the session state. It has no side effects.
func Decide(initializing bool, session models.Session) Decision {
	switch {
	case initializing:
		return Loading
	case !session.Authenticated():
		return Redirect
	default:
		return Render
	}
}
