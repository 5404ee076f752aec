package resources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/facilitycare/client-go/api"
	"github.com/facilitycare/client-go/session"
)

// Client exposes the boundary endpoints over the shared request pipeline.
type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) (*Client, error) {
	if apiClient == nil {
		return nil, errors.New("[resources.NewClient] API client is required")
	}
	return &Client{api: apiClient}, nil
}

// Buildings lists all buildings (admin).
func (c *Client) Buildings(ctx context.Context) ([]BuildingDetail, error) {
	var buildings []BuildingDetail
	if err := c.api.Get(ctx, "/buildings/", &buildings); err != nil {
		return nil, errors.Wrap(err, "[Client.Buildings]")
	}
	return buildings, nil
}

// Building fetches one building with its assigned users.
func (c *Client) Building(ctx context.Context, id int64) (*BuildingDetail, error) {
	var building BuildingDetail
	if err := c.api.Get(ctx, "/buildings/"+formatID(id)+"/", &building); err != nil {
		return nil, errors.Wrap(err, "[Client.Building]")
	}
	return &building, nil
}

// CreateBuilding creates a building (admin).
func (c *Client) CreateBuilding(ctx context.Context, building NewBuilding) (*BuildingDetail, error) {
	var created BuildingDetail
	if err := c.api.Post(ctx, "/buildings/", building, &created); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateBuilding]")
	}
	return &created, nil
}

// UpdateBuilding replaces a building's details (admin).
func (c *Client) UpdateBuilding(ctx context.Context, id int64, building NewBuilding) (*BuildingDetail, error) {
	var updated BuildingDetail
	if err := c.api.Put(ctx, "/buildings/"+formatID(id)+"/", building, &updated); err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateBuilding]")
	}
	return &updated, nil
}

// DeleteBuilding removes a building (admin).
func (c *Client) DeleteBuilding(ctx context.Context, id int64) error {
	return errors.Wrap(c.api.Delete(ctx, "/buildings/"+formatID(id)+"/"), "[Client.DeleteBuilding]")
}

// BuildingUsers lists the users assigned to a building.
func (c *Client) BuildingUsers(ctx context.Context, id int64) ([]UserSummary, error) {
	var users []UserSummary
	if err := c.api.Get(ctx, "/buildings/"+formatID(id)+"/users/", &users); err != nil {
		return nil, errors.Wrap(err, "[Client.BuildingUsers]")
	}
	return users, nil
}

// AvailableBuildingUsers lists users not yet assigned to a building.
func (c *Client) AvailableBuildingUsers(ctx context.Context, id int64) ([]UserSummary, error) {
	var users []UserSummary
	if err := c.api.Get(ctx, "/buildings/"+formatID(id)+"/available_users/", &users); err != nil {
		return nil, errors.Wrap(err, "[Client.AvailableBuildingUsers]")
	}
	return users, nil
}

// UpdateBuildingUsers replaces a building's user assignments (admin).
func (c *Client) UpdateBuildingUsers(ctx context.Context, id int64, userIDs []int64) error {
	body := struct {
		UserIDs []int64 `json:"user_ids"`
	}{UserIDs: userIDs}
	return errors.Wrap(c.api.Put(ctx, "/buildings/"+formatID(id)+"/update_users/", body, nil), "[Client.UpdateBuildingUsers]")
}

// ServiceTypes lists service types, optionally filtered by a search query.
func (c *Client) ServiceTypes(ctx context.Context, search string) ([]ServiceType, error) {
	path := "/service-types/"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var serviceTypes []ServiceType
	if err := c.api.Get(ctx, path, &serviceTypes); err != nil {
		return nil, errors.Wrap(err, "[Client.ServiceTypes]")
	}
	return serviceTypes, nil
}

// ServiceRequests lists requests with optional query filters (status,
// building, service_request_item).
func (c *Client) ServiceRequests(ctx context.Context, filters url.Values) ([]ServiceRequest, error) {
	path := "/service-requests/"
	if encoded := filters.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var requests []ServiceRequest
	if err := c.api.Get(ctx, path, &requests); err != nil {
		return nil, errors.Wrap(err, "[Client.ServiceRequests]")
	}
	return requests, nil
}

// ServiceRequest fetches one request.
func (c *Client) ServiceRequest(ctx context.Context, id int64) (*ServiceRequest, error) {
	var request ServiceRequest
	if err := c.api.Get(ctx, "/service-requests/"+formatID(id)+"/", &request); err != nil {
		return nil, errors.Wrap(err, "[Client.ServiceRequest]")
	}
	return &request, nil
}

// CreateServiceRequest raises a new request against a building.
func (c *Client) CreateServiceRequest(ctx context.Context, request NewServiceRequest) (*ServiceRequest, error) {
	var created ServiceRequest
	if err := c.api.Post(ctx, "/service-requests/", request, &created); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateServiceRequest]")
	}
	return &created, nil
}

// UserHomeData returns the regular-user home payload (open requests and the
// buildings they can raise against).
func (c *Client) UserHomeData(ctx context.Context, out any) error {
	return errors.Wrap(c.api.Get(ctx, "/service-requests/user_home_data/", out), "[Client.UserHomeData]")
}

// Users lists users, optionally filtered by a search query (admin).
func (c *Client) Users(ctx context.Context, query string) ([]UserSummary, error) {
	path := "/users/"
	if query != "" {
		path += "?query=" + url.QueryEscape(query)
	}
	var users []UserSummary
	if err := c.api.Get(ctx, path, &users); err != nil {
		return nil, errors.Wrap(err, "[Client.Users]")
	}
	return users, nil
}

// Me returns the current user's profile including role and buildings.
func (c *Client) Me(ctx context.Context) (*session.Session, error) {
	var me session.Session
	if err := c.api.Get(ctx, api.EndpointMe, &me); err != nil {
		return nil, errors.Wrap(err, "[Client.Me]")
	}
	return &me, nil
}

// UpdatePassword changes the current user's password. Validation failures
// come back as field-level errors.
func (c *Client) UpdatePassword(ctx context.Context, change PasswordChange) error {
	return errors.Wrap(c.api.Post(ctx, api.EndpointUpdatePassword, change, nil), "[Client.UpdatePassword]")
}

// GeneralStats returns the admin dashboard headline numbers.
func (c *Client) GeneralStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.api.Get(ctx, "/dashboard/general_stats/", &stats); err != nil {
		return nil, errors.Wrap(err, "[Client.GeneralStats]")
	}
	return &stats, nil
}

// RequestsByBuilding returns request counts grouped by building.
func (c *Client) RequestsByBuilding(ctx context.Context) ([]CountByLabel, error) {
	var counts []CountByLabel
	if err := c.api.Get(ctx, "/dashboard/requests_by_building/", &counts); err != nil {
		return nil, errors.Wrap(err, "[Client.RequestsByBuilding]")
	}
	return counts, nil
}

// RequestsByServiceType returns request counts grouped by service type.
func (c *Client) RequestsByServiceType(ctx context.Context) ([]CountByLabel, error) {
	var counts []CountByLabel
	if err := c.api.Get(ctx, "/dashboard/requests_by_service_type/", &counts); err != nil {
		return nil, errors.Wrap(err, "[Client.RequestsByServiceType]")
	}
	return counts, nil
}

// RequestsOverTime returns request counts bucketed over the given timeframe.
func (c *Client) RequestsOverTime(ctx context.Context, timeframe string) ([]CountByLabel, error) {
	var counts []CountByLabel
	path := "/dashboard/requests_over_time/?timeframe=" + url.QueryEscape(timeframe)
	if err := c.api.Get(ctx, path, &counts); err != nil {
		return nil, errors.Wrap(err, "[Client.RequestsOverTime]")
	}
	return counts, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
