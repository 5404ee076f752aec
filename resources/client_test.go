package resources_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facilitycare/client-go/api"
	"github.com/facilitycare/client-go/credentials"
	"github.com/facilitycare/client-go/internal/apierrors"
	"github.com/facilitycare/client-go/resources"
)

func newClient(t *testing.T, mux *http.ServeMux) *resources.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	apiClient, err := api.New(server.URL, credentials.NewMemoryStore())
	require.NoError(t, err)
	client, err := resources.NewClient(apiClient)
	require.NoError(t, err)
	return client
}

func TestBuildingDecodesAssignedUsers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/buildings/3/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": 3, "name": "Head Office", "address_line1": "1 Main St",
			"city": "Leeds", "postcode": "LS1 1AA",
			"latitude": 53.8, "longitude": -1.55,
			"users": [{"id": 7, "first_name": "Jane", "last_name": "Doe", "email": "jdoe@example.com", "user_type": "regular"}]
		}`))
	})
	client := newClient(t, mux)

	building, err := client.Building(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "Head Office", building.Name)
	require.Len(t, building.Users, 1)
	require.Equal(t, "Jane", building.Users[0].FirstName)
}

func TestServiceRequestsPassFilters(t *testing.T) {
	var query url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/service-requests/", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = w.Write([]byte(`[{"id": 12, "status": "open", "customer_notes": "leaking tap"}]`))
	})
	client := newClient(t, mux)

	requests, err := client.ServiceRequests(context.Background(), url.Values{"status": {"open"}})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.EqualValues(t, 12, requests[0].ID)
	require.Equal(t, "open", query.Get("status"))
}

func TestCreateServiceRequestSendsIDsOnly(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/service-requests/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 13, "status": "open"}`))
	})
	client := newClient(t, mux)

	created, err := client.CreateServiceRequest(context.Background(), resources.NewServiceRequest{
		CustomerNotes: "broken light",
		ServiceTypeID: 2,
		BuildingID:    1,
	})
	require.NoError(t, err)
	require.EqualValues(t, 13, created.ID)
	require.EqualValues(t, 2, body["service_request_item"])
	require.EqualValues(t, 1, body["building"])
}

func TestUpdatePasswordMapsValidationErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/update_password/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Validation failed", "details": {"current_password": ["Incorrect password."]}}`))
	})
	client := newClient(t, mux)

	err := client.UpdatePassword(context.Background(), resources.PasswordChange{
		CurrentPassword: "wrong", NewPassword1: "NewPass123", NewPassword2: "NewPass123",
	})
	var validationErr *apierrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.FieldErrors, "current_password")
}
