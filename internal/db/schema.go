package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Ingestion owns the write path; the statements below exist so that a fresh
// store can be created by `migrate` and populated in tests.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		contact_id BIGINT PRIMARY KEY,
		external_id VARCHAR(64),
		name VARCHAR(128),
		phone_number VARCHAR(32),
		email VARCHAR(128),
		source_app VARCHAR(64),
		country VARCHAR(64)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		message_id BIGINT PRIMARY KEY,
		external_id VARCHAR(64),
		sender_id BIGINT,
		receiver_id BIGINT,
		sent_at {{timestamp}} NOT NULL,
		content TEXT,
		app_name VARCHAR(64)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages (sent_at)`,
	`CREATE TABLE IF NOT EXISTS calls (
		call_id BIGINT PRIMARY KEY,
		external_id VARCHAR(64),
		caller_id BIGINT,
		callee_id BIGINT,
		call_type VARCHAR(16),
		start_time {{timestamp}} NOT NULL,
		duration_seconds INTEGER,
		location VARCHAR(128)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calls_start_time ON calls (start_time)`,
	`CREATE TABLE IF NOT EXISTS locations (
		location_id BIGINT PRIMARY KEY,
		contact_id BIGINT,
		latitude {{float}} NOT NULL,
		longitude {{float}} NOT NULL,
		recorded_at {{timestamp}} NOT NULL,
		accuracy_meters {{float}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_recorded_at ON locations (recorded_at)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		keyword_id BIGINT PRIMARY KEY,
		term VARCHAR(64) NOT NULL,
		category VARCHAR(64),
		message_id BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_keywords_message ON keywords (message_id)`,
}

func (c *Client) ddl(stmt string) string {
	ts, float := "TIMESTAMP", "REAL"
	if c.driver == DriverPostgres {
		ts, float = "TIMESTAMPTZ", "DOUBLE PRECISION"
	}
	return strings.NewReplacer("{{timestamp}}", ts, "{{float}}", float).Replace(stmt)
}

// Migrate creates the evidence tables if they do not exist
func (c *Client) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.db.ExecContext(ctx, c.ddl(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	c.logger.Info("Evidence schema ready", zap.String("driver", c.driver))
	return nil
}

func (c *Client) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := c.db.ExecContext(ctx, c.rebind(query), args...)
	return err
}

// InsertContact stores a contact with an explicit id
func (c *Client) InsertContact(ctx context.Context, ct Contact) error {
	return c.exec(ctx, `INSERT INTO contacts (contact_id, external_id, name, phone_number, email, source_app, country)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ct.ID, ct.ExternalID, ct.Name, ct.Phone, ct.Email, ct.SourceApp, ct.Country)
}

// InsertMessage stores a message; the timestamp is written in UTC
func (c *Client) InsertMessage(ctx context.Context, m Message) error {
	return c.exec(ctx, `INSERT INTO messages (message_id, external_id, sender_id, receiver_id, sent_at, content, app_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ExternalID, m.SenderID, m.ReceiverID, utc(m.Timestamp), m.Content, m.App)
}

// InsertCall stores a call record
func (c *Client) InsertCall(ctx context.Context, cl Call) error {
	return c.exec(ctx, `INSERT INTO calls (call_id, external_id, caller_id, callee_id, call_type, start_time, duration_seconds, location)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cl.ID, cl.ExternalID, cl.CallerID, cl.CalleeID, cl.Type, utc(cl.StartTime), cl.DurationSeconds, cl.Location)
}

// InsertLocation stores a location record
func (c *Client) InsertLocation(ctx context.Context, l Location) error {
	return c.exec(ctx, `INSERT INTO locations (location_id, contact_id, latitude, longitude, recorded_at, accuracy_meters)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.ContactID, l.Latitude, l.Longitude, utc(l.Timestamp), l.Accuracy)
}

// InsertKeyword attaches a term to a message
func (c *Client) InsertKeyword(ctx context.Context, k Keyword) error {
	return c.exec(ctx, `INSERT INTO keywords (keyword_id, term, category, message_id) VALUES (?, ?, ?, ?)`,
		k.ID, k.Term, k.Category, k.MessageID)
}

func utc(t time.Time) time.Time { return t.UTC() }
