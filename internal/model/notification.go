package model

import "time"

// MaxNotifications is the capacity of the in-memory notification list.
const MaxNotifications = 20

// NotificationDetails carries the labels derived from the newest row of
// a grown dataset.
type NotificationDetails struct {
	// Laboratory is the laboratory of the newest row, if known.
	Laboratory string `json:"laboratory,omitempty"`

	// DrugName is the drug of the newest row. It is left empty for
	// medication notifications.
	DrugName string `json:"drug_name,omitempty"`

	// UserEmail identifies the user the dashboard is running for.
	UserEmail string `json:"user_email"`
}

// NotificationRecord is a user-facing alert raised when a dataset grew.
type NotificationRecord struct {
	// ID is a synthetic identifier derived from kind, count, delta and time.
	ID string `json:"id"`

	// Kind identifies which dataset grew.
	Kind DatasetKind `json:"kind"`

	// Title is the short headline shown in lists and desktop banners.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Details holds the labels of the newest row.
	Details NotificationDetails `json:"details"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`

	// Count is the dataset size after growth.
	Count int `json:"count"`

	// Delta is how many rows were added since the previous poll.
	Delta int `json:"delta"`
}
