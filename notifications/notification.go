// Package notifications holds the client's local view of server notifications
// and drives the transient toast display.
package notifications

import (
	"encoding/json"
	"time"
)

// Notification is one server notification record. IDs are unique within the
// store; the ordering of the collection is the server's (newest first) and is
// never re-sorted client-side.
type Notification struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	CreatedDate      time.Time `json:"created_date"`
	ServiceRequestID int64     `json:"service_request_id"`
	IsRead           bool      `json:"is_read"`
}

// Envelope is the push channel's wire shape: {"notification": {...}}.
type Envelope struct {
	Notification Notification `json:"notification"`
}

// listResponse tolerates both the paginated ({"results": [...]}) and bare
// array forms the list endpoint can return.
type listResponse struct {
	items []Notification
}

func (l *listResponse) UnmarshalJSON(data []byte) error {
	var paginated struct {
		Results []Notification `json:"results"`
	}
	if err := json.Unmarshal(data, &paginated); err == nil && paginated.Results != nil {
		l.items = paginated.Results
		return nil
	}
	var bare []Notification
	if err := json.Unmarshal(data, &bare); err != nil {
		return err
	}
	l.items = bare
	return nil
}
