package apierrors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facilitycare/client-go/internal/apierrors"
)

func TestFromResponseMapsValidationDetails(t *testing.T) {
	body := []byte(`{"error": "Validation failed", "details": {"email": ["Email is already taken."], "password2": ["Password fields didn't match."]}}`)

	err := apierrors.FromResponse(http.StatusBadRequest, body)

	var validationErr *apierrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "Validation failed", validationErr.Message)
	require.Equal(t, []string{"Email is already taken."}, validationErr.FieldErrors["email"])
	require.Equal(t, []string{"Password fields didn't match."}, validationErr.FieldErrors["password2"])
}

func TestFromResponseToleratesScalarDetailValues(t *testing.T) {
	body := []byte(`{"error": "Validation failed", "details": {"username": "Username is already taken.", "weird": 42}}`)

	err := apierrors.FromResponse(http.StatusBadRequest, body)

	var validationErr *apierrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"Username is already taken."}, validationErr.FieldErrors["username"])
	// Unmapped detail values are dropped, not fatal.
	require.NotContains(t, validationErr.FieldErrors, "weird")
}

func TestFromResponseWrapsStatusSentinels(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, apierrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, apierrors.ErrForbidden},
		{"not found", http.StatusNotFound, apierrors.ErrNotFound},
		{"server error", http.StatusBadGateway, apierrors.ErrServer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := apierrors.FromResponse(tc.status, []byte(`{"error": "nope"}`))
			require.ErrorIs(t, err, tc.sentinel)

			var statusErr *apierrors.StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tc.status, statusErr.StatusCode)
			require.Equal(t, "nope", statusErr.Message)
		})
	}
}

func TestFromResponseHandlesEmptyBody(t *testing.T) {
	err := apierrors.FromResponse(http.StatusInternalServerError, nil)
	require.ErrorIs(t, err, apierrors.ErrServer)
	require.Equal(t, "http 500", err.Error())
}
