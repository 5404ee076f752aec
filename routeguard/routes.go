package routeguard

import (
	"strings"

	"github.com/facilitycare/client-go/session"
)

// Route describes one navigable path and who may see it. A nil AllowedRoles
// on a protected route means any authenticated role.
type Route struct {
	Pattern      string
	Public       bool
	AllowedRoles []session.Role
}

var adminOnly = []session.Role{session.RoleAdmin}
var anyRole = []session.Role{session.RoleAdmin, session.RoleRegular}

// routes mirrors the application's route table: public pages, shared pages
// and admin-only management screens.
var routes = []Route{
	{Pattern: "/login", Public: true},
	{Pattern: "/register", Public: true},
	{Pattern: "/unauthorized", Public: true},
	{Pattern: "/unavailable", Public: true},
	{Pattern: "/no-buildings", Public: true},

	{Pattern: "/", AllowedRoles: anyRole},
	{Pattern: "/profile", AllowedRoles: anyRole},
	{Pattern: "/my-requests", AllowedRoles: anyRole},
	{Pattern: "/my-requests/{raise}", AllowedRoles: anyRole},
	{Pattern: "/help-faq", AllowedRoles: anyRole},
	{Pattern: "/requests/{id}", AllowedRoles: anyRole},

	{Pattern: "/buildings", AllowedRoles: adminOnly},
	{Pattern: "/buildings/{id}", AllowedRoles: adminOnly},
	{Pattern: "/service-types", AllowedRoles: adminOnly},
	{Pattern: "/requests", AllowedRoles: adminOnly},
	{Pattern: "/manage-users", AllowedRoles: adminOnly},
	{Pattern: "/help-faqs", AllowedRoles: adminOnly},
}

// Lookup resolves a concrete path against the route table. The second return
// is false for paths outside the table (the not-found page).
func Lookup(path string) (Route, bool) {
	for _, route := range routes {
		if matches(route.Pattern, path) {
			return route, true
		}
	}
	return Route{}, false
}

func matches(pattern, path string) bool {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(patternParts) != len(pathParts) {
		return false
	}
	for i, part := range patternParts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			continue
		}
		if part != pathParts[i] {
			return false
		}
	}
	return true
}
