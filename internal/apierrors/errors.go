package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common error types for the FacilityCare client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoRefreshToken     = errors.New("no refresh token available")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotAuthenticated   = errors.New("not authenticated")

	// Transport errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")

	// General errors
	ErrStorageUnavailable = errors.New("credential storage unavailable")
	ErrInternal           = errors.New("internal error")
)

// StatusError carries the HTTP status and server-supplied message of a failed
// request. It wraps one of the sentinel errors above so callers can use
// errors.Is without inspecting status codes.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	if e.StatusCode >= 500 {
		return ErrServer
	}
	return nil
}

// ValidationError maps the backend's field-level validation shape:
//
//	{"error": "Validation failed", "details": {"email": ["Email is already taken."]}}
//
// Unmapped detail values are ignored rather than failing the decode.
type ValidationError struct {
	Message     string
	FieldErrors map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return e.Message
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	return fmt.Sprintf("%s (fields: %s)", e.Message, strings.Join(fields, ", "))
}

type errorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// FromResponse builds the most specific error available from a non-2xx
// response body. A 400 with field details becomes a ValidationError,
// everything else a StatusError.
func FromResponse(statusCode int, body []byte) error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Error
	if message == "" {
		message = parsed.Message
	}

	if statusCode == http.StatusBadRequest && len(parsed.Details) > 0 {
		if fieldErrors := decodeFieldErrors(parsed.Details); len(fieldErrors) > 0 {
			return &ValidationError{Message: message, FieldErrors: fieldErrors}
		}
	}

	return &StatusError{StatusCode: statusCode, Message: message}
}

// decodeFieldErrors tolerates both ["msg"] and "msg" detail values; anything
// else is dropped.
func decodeFieldErrors(details json.RawMessage) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(details, &raw); err != nil {
		return nil
	}

	fieldErrors := make(map[string][]string, len(raw))
	for field, value := range raw {
		var messages []string
		if err := json.Unmarshal(value, &messages); err == nil {
			fieldErrors[field] = messages
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			fieldErrors[field] = []string{single}
		}
	}
	return fieldErrors
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
