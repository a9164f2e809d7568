// Package guard decides whether a navigation may proceed given the route's
// requirement and the session state. Evaluate is pure and never touches the
// network.
package guard

import "github.com/dmitrijs2005/gophauth/internal/client/services"

type Requirement int

const (
	Public Requirement = iota
	RequiresAuth
	GuestOnly
)

func (r Requirement) String() string {
	switch r {
	case RequiresAuth:
		return "auth"
	case GuestOnly:
		return "guest"
	default:
		return "public"
	}
}

type Decision int

const (
	Proceed Decision = iota
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToHome:
		return "redirect-to-home"
	default:
		return "proceed"
	}
}

// Target is the route a redirect leads to, or "" for Proceed.
func (d Decision) Target() string {
	switch d {
	case RedirectToLogin:
		return RouteLogin
	case RedirectToHome:
		return RouteHome
	default:
		return ""
	}
}

// Evaluate only treats Authenticated as logged in; a session waiting for its
// second factor is still anonymous for routing purposes.
func Evaluate(req Requirement, state services.State) Decision {
	authenticated := state == services.Authenticated
	switch {
	case req == RequiresAuth && !authenticated:
		return RedirectToLogin
	case req == GuestOnly && authenticated:
		return RedirectToHome
	default:
		return Proceed
	}
}
