// Package dbtest opens migrated in-memory evidence stores for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
)

// Open returns a migrated in-memory sqlite store closed at test cleanup
func Open(t testing.TB) *db.Client {
	t.Helper()
	raw, err := sql.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every connection to :memory: is a different database
	raw.SetMaxOpenConns(1)

	client := db.New(raw, db.DriverSQLite, 0, zaptest.NewLogger(t))
	if err := client.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// Fixture is a small evidence set loaded in one call
type Fixture struct {
	Contacts  []db.Contact
	Messages  []db.Message
	Calls     []db.Call
	Locations []db.Location
	Keywords  []db.Keyword
}

// Load inserts every record of f
func Load(t testing.TB, c *db.Client, f Fixture) {
	t.Helper()
	ctx := context.Background()
	for _, ct := range f.Contacts {
		if err := c.InsertContact(ctx, ct); err != nil {
			t.Fatalf("insert contact %d: %v", ct.ID, err)
		}
	}
	for _, m := range f.Messages {
		if err := c.InsertMessage(ctx, m); err != nil {
			t.Fatalf("insert message %d: %v", m.ID, err)
		}
	}
	for _, cl := range f.Calls {
		if err := c.InsertCall(ctx, cl); err != nil {
			t.Fatalf("insert call %d: %v", cl.ID, err)
		}
	}
	for _, l := range f.Locations {
		if err := c.InsertLocation(ctx, l); err != nil {
			t.Fatalf("insert location %d: %v", l.ID, err)
		}
	}
	for _, k := range f.Keywords {
		if err := c.InsertKeyword(ctx, k); err != nil {
			t.Fatalf("insert keyword %d: %v", k.ID, err)
		}
	}
}

// ID returns a pointer to id
func ID(id int64) *int64 { return &id }

// Str returns a pointer to s
func Str(s string) *string { return &s }

// At builds a time in loc
func At(loc *time.Location, year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}
