package db

import "time"

// Contact is one entry of the contact directory
type Contact struct {
	ID         int64   `db:"contact_id"`
	ExternalID string  `db:"external_id"`
	Name       string  `db:"name"`
	Phone      string  `db:"phone_number"`
	Email      string  `db:"email"`
	SourceApp  string  `db:"source_app"`
	Country    *string `db:"country"`
}

// Message is a stored chat/SMS message
type Message struct {
	ID         int64     `db:"message_id"`
	ExternalID string    `db:"external_id"`
	SenderID   *int64    `db:"sender_id"`
	ReceiverID *int64    `db:"receiver_id"`
	Timestamp  time.Time `db:"sent_at"`
	Content    string    `db:"content"`
	App        string    `db:"app_name"`
}

// Call is a stored call log entry
type Call struct {
	ID              int64     `db:"call_id"`
	ExternalID      string    `db:"external_id"`
	CallerID        *int64    `db:"caller_id"`
	CalleeID        *int64    `db:"callee_id"`
	Type            string    `db:"call_type"`
	StartTime       time.Time `db:"start_time"`
	DurationSeconds int       `db:"duration_seconds"`
	Location        *string   `db:"location"`
}

// Location is a recorded device position
type Location struct {
	ID        int64     `db:"location_id"`
	ContactID *int64    `db:"contact_id"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	Timestamp time.Time `db:"recorded_at"`
	Accuracy  *float64  `db:"accuracy_meters"`
}

// Keyword links an extracted term to a message
type Keyword struct {
	ID        int64   `db:"keyword_id"`
	Term      string  `db:"term"`
	Category  *string `db:"category"`
	MessageID int64   `db:"message_id"`
}

// Window pushes a date range and a participant set down to the store.
// Nil bounds and an empty PersonIDs slice mean unrestricted.
type Window struct {
	Start     *time.Time
	End       *time.Time
	PersonIDs []int64
	Limit     int
}
