package api

import "strconv"

// REST endpoints exposed by the FacilityCare backend. Paths are relative to
// the configured API base URL.
const (
	EndpointLogin          = "/auth/login/"
	EndpointRefreshToken   = "/auth/refresh_token/"
	EndpointLogout         = "/auth/logout/"
	EndpointRegister       = "/auth/register/"
	EndpointUpdatePassword = "/auth/update_password/"

	EndpointMe = "/users/me/"

	EndpointNotifications = "/updates/notifications/"
	EndpointMarkAllRead   = "/updates/mark_all_read/"
)

// EndpointMarkRead returns the mark-one-read path for a notification id.
func EndpointMarkRead(id int64) string {
	return "/updates/" + strconv.FormatInt(id, 10) + "/mark_read/"
}
