// Package session owns the authenticated principal: who is logged in, their
// role and building assignments, and the lifecycle transitions between
// anonymous and authenticated. It is the only component that opens or closes
// the push channel.
package session

// Role distinguishes the two access levels the backend knows about.
type Role string

const (
	RoleAdmin   Role = "admin"   // Full management access
	RoleRegular Role = "regular" // Building-scoped requester
)

// State is the session lifecycle state machine.
type State int

const (
	// StateUnknown is the initial state before Restore has run.
	StateUnknown State = iota
	// StateRestoring means a stored access token exists and the "who am I"
	// call is in flight. Route decisions must wait.
	StateRestoring
	// StateAuthenticated means a valid session is held.
	StateAuthenticated
	// StateAnonymous means no session: never logged in, logged out, or
	// restore/refresh failed.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Building is a building assignment as serialized by the backend.
type Building struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 string  `json:"address_line2"`
	City         string  `json:"city"`
	Postcode     string  `json:"postcode"`
	Country      string  `json:"country"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Session represents the authenticated principal. Buildings keeps the server's
// order; it is empty for admins, and a regular user with zero buildings is a
// valid state distinct from "no session" (routed to /no-buildings, not
// /login).
type Session struct {
	UserID    int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      Role       `json:"user_type"`
	Buildings []Building `json:"buildings"`
}

// HasRole reports whether the session's role matches.
func (s *Session) HasRole(role Role) bool {
	return s != nil && s.Role == role
}

// Credentials is the login request payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request payload. Password2 must match Password;
// the backend validates and reports field-level errors.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// RegistrationResult is the created-account acknowledgement.
type RegistrationResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}
