// Package resources provides typed wrappers over the boundary REST endpoints:
// buildings, service types, service requests, users and the admin dashboard.
// These are fetch-and-decode calls with no client-side logic; all state
// machinery lives in the session, push and notifications packages.
package resources

import (
	"time"

	"github.com/facilitycare/client-go/session"
)

// UserSummary is the reduced user shape embedded in buildings and requests.
type UserSummary struct {
	ID        int64        `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Role      session.Role `json:"user_type"`
}

// BuildingDetail is a building including its assigned users (admin reads).
type BuildingDetail struct {
	session.Building
	Users []UserSummary `json:"users"`
}

// ServiceType is an offered service category.
type ServiceType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ServiceIcon string `json:"service_icon"`
	IsActive    bool   `json:"is_active"`
}

// ServiceRequest is one raised request. SLADate is consumed verbatim; the
// server computes it.
type ServiceRequest struct {
	ID            int64             `json:"id"`
	CustomerNotes string            `json:"customer_notes"`
	Status        string            `json:"status"`
	Priority      string            `json:"priority"`
	CreatedDate   time.Time         `json:"created_date"`
	UpdatedDate   time.Time         `json:"updated_date"`
	CreatedBy     *UserSummary      `json:"created_by"`
	ServiceType   *ServiceType      `json:"service_request_item_detail"`
	Building      *session.Building `json:"building_detail"`
	SLADate       *time.Time        `json:"service_level_agreement_date"`
}

// NewServiceRequest is the create payload: ids only, details come back on
// reads.
type NewServiceRequest struct {
	CustomerNotes string `json:"customer_notes"`
	Priority      string `json:"priority,omitempty"`
	ServiceTypeID int64  `json:"service_request_item"`
	BuildingID    int64  `json:"building"`
}

// NewBuilding is the building create/update payload.
type NewBuilding struct {
	Name         string  `json:"name"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 string  `json:"address_line2,omitempty"`
	City         string  `json:"city"`
	Postcode     string  `json:"postcode"`
	Country      string  `json:"country,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// PasswordChange is the update-password payload.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword1    string `json:"new_password1"`
	NewPassword2    string `json:"new_password2"`
}

// DashboardStats are the admin dashboard aggregates, consumed opaquely.
type DashboardStats struct {
	TotalRequests      int `json:"total_requests"`
	OpenRequests       int `json:"open_requests"`
	CompletedRequests  int `json:"completed_requests"`
	OverdueRequests    int `json:"overdue_requests"`
	TotalBuildings     int `json:"total_buildings"`
	TotalUsers         int `json:"total_users"`
	ActiveServiceTypes int `json:"active_service_types"`
}

// CountByLabel is one slice of a grouped aggregate (by building, by service
// type, over time).
type CountByLabel struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
