// Package retrieval fetches, filters and formats evidence for one query's
// criteria across messages, calls, locations and the relationship graph.
package retrieval

import (
	"context"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
)

// EvidenceReader is the read side of the relational evidence store
type EvidenceReader interface {
	RecentMessages(ctx context.Context, w db.Window) ([]db.Message, error)
	MessagesByIDs(ctx context.Context, ids []int64, w db.Window) ([]db.Message, error)
	RecentCalls(ctx context.Context, w db.Window) ([]db.Call, error)
	RecentLocations(ctx context.Context, w db.Window) ([]db.Location, error)
	KeywordsFor(ctx context.Context, messageIDs []int64) (map[int64][]string, error)
}

// SimilarityIndex ranks message ids by similarity to free text, best first
type SimilarityIndex interface {
	Search(ctx context.Context, text string, k int) ([]int64, error)
}

// Directory is the contact lookup loaded once per query
type Directory struct {
	contacts []db.Contact
	byID     map[int64]*db.Contact
}

// NewDirectory indexes contacts by id
func NewDirectory(contacts []db.Contact) *Directory {
	d := &Directory{contacts: contacts, byID: make(map[int64]*db.Contact, len(contacts))}
	for i := range contacts {
		d.byID[contacts[i].ID] = &contacts[i]
	}
	return d
}

// Contacts returns the loaded contacts in store order
func (d *Directory) Contacts() []db.Contact { return d.contacts }

// Lookup resolves a nullable contact reference
func (d *Directory) Lookup(id *int64) *db.Contact {
	if id == nil {
		return nil
	}
	return d.byID[*id]
}

// Name returns the contact name for id, or nil when it does not resolve
func (d *Directory) Name(id *int64) *string {
	c := d.Lookup(id)
	if c == nil {
		return nil
	}
	name := c.Name
	return &name
}
