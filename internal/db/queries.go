package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	contactColumns = `contact_id, COALESCE(external_id, '') AS external_id, COALESCE(name, '') AS name,
		COALESCE(phone_number, '') AS phone_number, COALESCE(email, '') AS email,
		COALESCE(source_app, '') AS source_app, country`
	messageColumns = `message_id, COALESCE(external_id, '') AS external_id, sender_id, receiver_id,
		sent_at, COALESCE(content, '') AS content, COALESCE(app_name, '') AS app_name`
	callColumns = `call_id, COALESCE(external_id, '') AS external_id, caller_id, callee_id,
		COALESCE(call_type, '') AS call_type, start_time, COALESCE(duration_seconds, 0) AS duration_seconds, location`
	locationColumns = `location_id, contact_id, latitude, longitude, recorded_at, accuracy_meters`
)

// predicates renders the window as SQL conditions on the given timestamp and
// participant columns. Person ids match if any participant column is in the set.
func (w Window) predicates(tsColumn string, personColumns ...string) ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if w.Start != nil {
		conds = append(conds, tsColumn+" >= ?")
		args = append(args, w.Start.UTC())
	}
	if w.End != nil {
		conds = append(conds, tsColumn+" <= ?")
		args = append(args, w.End.UTC())
	}
	if len(w.PersonIDs) > 0 && len(personColumns) > 0 {
		parts := make([]string, len(personColumns))
		for i, col := range personColumns {
			parts[i] = col + " IN (?)"
			args = append(args, w.PersonIDs)
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}
	return conds, args
}

func (c *Client) limitFor(w Window) int {
	if w.Limit > 0 && w.Limit < c.cap {
		return w.Limit
	}
	return c.cap
}

func (c *Client) selectInto(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return fmt.Errorf("expand query: %w", err)
	}
	rows, err := c.db.QueryContext(ctx, c.rebind(query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	return sqlx.StructScan(rows, dest)
}

func buildSelect(columns, table string, conds []string, orderBy string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM ")
	b.WriteString(table)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	return b.String()
}

// Contacts returns the full contact directory ordered by id
func (c *Client) Contacts(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	query := buildSelect(contactColumns, "contacts", nil, "contact_id")
	if err := c.selectInto(ctx, &contacts, query); err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	return contacts, nil
}

// RecentMessages returns the most recent messages inside the window,
// newest first.
func (c *Client) RecentMessages(ctx context.Context, w Window) ([]Message, error) {
	conds, args := w.predicates("sent_at", "sender_id", "receiver_id")
	query := buildSelect(messageColumns, "messages", conds, "sent_at DESC, message_id DESC") + " LIMIT ?"
	args = append(args, c.limitFor(w))

	var msgs []Message
	if err := c.selectInto(ctx, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	normalizeMessages(msgs)
	return msgs, nil
}

// MessagesByIDs fetches the given messages, still honoring the window's date
// and participant predicates. Order is unspecified; callers reorder.
func (c *Client) MessagesByIDs(ctx context.Context, ids []int64, w Window) ([]Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	conds, args := w.predicates("sent_at", "sender_id", "receiver_id")
	conds = append([]string{"message_id IN (?)"}, conds...)
	args = append([]interface{}{ids}, args...)
	query := buildSelect(messageColumns, "messages", conds, "sent_at DESC, message_id DESC")

	var msgs []Message
	if err := c.selectInto(ctx, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("messages by id: %w", err)
	}
	normalizeMessages(msgs)
	return msgs, nil
}

// RecentCalls returns the most recent calls inside the window, newest first
func (c *Client) RecentCalls(ctx context.Context, w Window) ([]Call, error) {
	conds, args := w.predicates("start_time", "caller_id", "callee_id")
	query := buildSelect(callColumns, "calls", conds, "start_time DESC, call_id DESC") + " LIMIT ?"
	args = append(args, c.limitFor(w))

	var calls []Call
	if err := c.selectInto(ctx, &calls, query, args...); err != nil {
		return nil, fmt.Errorf("recent calls: %w", err)
	}
	for i := range calls {
		calls[i].StartTime = calls[i].StartTime.UTC()
	}
	return calls, nil
}

// RecentLocations returns the most recent location records inside the
// window, newest first.
func (c *Client) RecentLocations(ctx context.Context, w Window) ([]Location, error) {
	conds, args := w.predicates("recorded_at", "contact_id")
	query := buildSelect(locationColumns, "locations", conds, "recorded_at DESC, location_id DESC") + " LIMIT ?"
	args = append(args, c.limitFor(w))

	var locs []Location
	if err := c.selectInto(ctx, &locs, query, args...); err != nil {
		return nil, fmt.Errorf("recent locations: %w", err)
	}
	for i := range locs {
		locs[i].Timestamp = locs[i].Timestamp.UTC()
	}
	return locs, nil
}

// KeywordsFor returns the stored keyword terms per message id
func (c *Client) KeywordsFor(ctx context.Context, messageIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	var kws []Keyword
	query := buildSelect("keyword_id, term, category, message_id", "keywords",
		[]string{"message_id IN (?)"}, "message_id, keyword_id")
	if err := c.selectInto(ctx, &kws, query, messageIDs); err != nil {
		return nil, fmt.Errorf("message keywords: %w", err)
	}
	for _, kw := range kws {
		out[kw.MessageID] = append(out[kw.MessageID], kw.Term)
	}
	return out, nil
}

func normalizeMessages(msgs []Message) {
	for i := range msgs {
		msgs[i].Timestamp = msgs[i].Timestamp.UTC()
	}
}
