// Package routeguard gates navigation on session state. The decision is a
// pure function evaluated on every navigation; it holds no state of its own.
package routeguard

import (
	"github.com/facilitycare/client-go/session"
)

// Action is what the caller should do with the requested route.
type Action int

const (
	// ActionRender shows the requested route.
	ActionRender Action = iota
	// ActionLoading shows a loading indicator; the session is still
	// restoring and no routing decision can be made yet.
	ActionLoading
	// ActionRedirect navigates to Decision.RedirectTo instead.
	ActionRedirect
)

// Decision is the outcome of guarding one navigation.
type Decision struct {
	Action     Action
	RedirectTo string
}

// Redirect targets.
const (
	RedirectLogin        = "/login"
	RedirectNoBuildings  = "/no-buildings"
	RedirectUnauthorized = "/unauthorized"
)

// Evaluate decides what happens when a navigation to route occurs in the
// given session state. The rules apply in order, and the no-buildings check
// deliberately precedes the role check: a regular user with no assigned
// buildings lands on /no-buildings even for admin-only routes.
func Evaluate(state session.State, sess *session.Session, route Route) Decision {
	if route.Public {
		return Decision{Action: ActionRender}
	}

	if state == session.StateRestoring || state == session.StateUnknown {
		return Decision{Action: ActionLoading}
	}

	if state != session.StateAuthenticated || sess == nil {
		return Decision{Action: ActionRedirect, RedirectTo: RedirectLogin}
	}

	if sess.Role == session.RoleRegular && len(sess.Buildings) == 0 {
		return Decision{Action: ActionRedirect, RedirectTo: RedirectNoBuildings}
	}

	if len(route.AllowedRoles) > 0 && !roleAllowed(sess.Role, route.AllowedRoles) {
		return Decision{Action: ActionRedirect, RedirectTo: RedirectUnauthorized}
	}

	return Decision{Action: ActionRender}
}

// EvaluatePath is Evaluate over a concrete path, resolving it against the
// route table first. Unknown paths render (the not-found page needs no
// session).
func EvaluatePath(state session.State, sess *session.Session, path string) Decision {
	route, ok := Lookup(path)
	if !ok {
		return Decision{Action: ActionRender}
	}
	return Evaluate(state, sess, route)
}

func roleAllowed(role session.Role, allowed []session.Role) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
