package vectordb

import "time"

// Config controls Qdrant client behavior
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	// URL overrides Host/Port when set (e.g. https://qdrant.internal:6333)
	URL string `mapstructure:"url"`
	// Collection holds one point per message, payload {message_id}
	Collection string        `mapstructure:"collection"`
	TopK       int           `mapstructure:"top_k"`
	Threshold  float64       `mapstructure:"threshold"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Candidate is one similarity hit, best first
type Candidate struct {
	MessageID int64
	Score     float64
}
