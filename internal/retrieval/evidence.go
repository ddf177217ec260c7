package retrieval

import "time"

// isoLayout renders timestamps with an explicit offset, microsecond precision
// when present.
const isoLayout = "2006-01-02T15:04:05.999999-07:00"

// MessageEvidence is one message in a response
type MessageEvidence struct {
	MessageID int64    `json:"message_id"`
	Timestamp string   `json:"timestamp"`
	App       string   `json:"app"`
	Sender    string   `json:"sender"`
	Receiver  *string  `json:"receiver"`
	Content   string   `json:"content"`
	Keywords  []string `json:"keywords"`
}

// CallEvidence is one call in a response
type CallEvidence struct {
	CallID          int64   `json:"call_id"`
	Timestamp       string  `json:"timestamp"`
	Caller          *string `json:"caller"`
	Callee          *string `json:"callee"`
	DurationSeconds int     `json:"duration_seconds"`
	Type            string  `json:"type"`
	Location        *string `json:"location"`
}

// LocationEvidence is one location record in a response
type LocationEvidence struct {
	LocationID     int64    `json:"location_id"`
	Timestamp      string   `json:"timestamp"`
	Contact        *string  `json:"contact"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	AccuracyMeters *float64 `json:"accuracy_meters"`
}

// Result is a category's items plus the collaborator failures that were
// absorbed while producing them.
type Result[T any] struct {
	Items    []T
	Failures []*Failure
}

// Message retrieval stages
const (
	SourceSimilarity = "similarity"
	SourceRecent     = "recent"
)

// MessageResult also records which stage served the messages
type MessageResult struct {
	Result[MessageEvidence]
	Source string
}

func formatTimestamp(ts time.Time, loc *time.Location) string {
	return ts.In(loc).Format(isoLayout)
}
