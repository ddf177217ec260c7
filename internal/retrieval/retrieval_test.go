package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/db/dbtest"
	"github.com/ufdr-assistant/go/orchestrator/internal/graph"
	"github.com/ufdr-assistant/go/orchestrator/internal/intent"
	"github.com/ufdr-assistant/go/orchestrator/internal/lexicon"
	"github.com/ufdr-assistant/go/orchestrator/internal/vectordb"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func now() time.Time { return time.Date(2024, 3, 15, 14, 30, 0, 0, ist) }

func fixture() dbtest.Fixture {
	at := func(day, hour, min int) time.Time { return dbtest.At(ist, 2024, time.March, day, hour, min) }
	return dbtest.Fixture{
		Contacts: []db.Contact{
			{ID: 1, Name: "Raj Mehta", Phone: "+91 98200 11111", Country: dbtest.Str("India")},
			{ID: 2, Name: "Omar Haddad", Phone: "+971 50 222 3333", Country: dbtest.Str("UAE")},
			{ID: 3, Name: "Priya Nair", Phone: "+91 99000 44444", Country: dbtest.Str("India")},
		},
		Messages: []db.Message{
			{ID: 101, SenderID: dbtest.ID(2), ReceiverID: dbtest.ID(1), Timestamp: at(10, 22, 30), Content: "Sending Bitcoin to the new wallet", App: "WhatsApp"},
			{ID: 102, SenderID: dbtest.ID(3), ReceiverID: dbtest.ID(1), Timestamp: at(10, 23, 0), Content: "bitcoin price is up", App: "SMS"},
			{ID: 103, SenderID: dbtest.ID(2), ReceiverID: dbtest.ID(1), Timestamp: at(10, 21, 0), Content: "crypto deal tomorrow", App: "Telegram"},
			{ID: 104, SenderID: dbtest.ID(1), ReceiverID: dbtest.ID(3), Timestamp: at(11, 9, 0), Content: "lunch?", App: "SMS"},
			{ID: 105, SenderID: dbtest.ID(99), ReceiverID: dbtest.ID(1), Timestamp: at(12, 10, 0), Content: "call me", App: "SMS"},
		},
		Calls: []db.Call{
			{ID: 201, CallerID: dbtest.ID(2), CalleeID: dbtest.ID(1), Type: "outgoing", StartTime: at(10, 22, 45), DurationSeconds: 120, Location: dbtest.Str("Dubai")},
			{ID: 202, CallerID: dbtest.ID(1), CalleeID: dbtest.ID(3), Type: "incoming", StartTime: at(11, 23, 10), DurationSeconds: 30},
		},
		Locations: []db.Location{
			{ID: 301, ContactID: dbtest.ID(2), Latitude: 25.2, Longitude: 55.3, Timestamp: at(10, 22, 50)},
			{ID: 302, ContactID: dbtest.ID(1), Latitude: 19.07, Longitude: 72.87, Timestamp: at(11, 8, 0)},
		},
		Keywords: []db.Keyword{
			{ID: 1, Term: "bitcoin", MessageID: 101},
			{ID: 2, Term: "wallet", MessageID: 101},
		},
	}
}

type stubIndex struct {
	ids []int64
	err error
	k   int
}

func (s *stubIndex) Search(_ context.Context, _ string, k int) ([]int64, error) {
	s.k = k
	return s.ids, s.err
}

type harness struct {
	store     *db.Client
	extractor *intent.Extractor
	dir       *Directory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := dbtest.Open(t)
	f := fixture()
	dbtest.Load(t, store, f)
	return &harness{
		store:     store,
		extractor: intent.NewExtractor(lexicon.Default(), ist, now),
		dir:       NewDirectory(f.Contacts),
	}
}

func (h *harness) query(text string, limit int) Query {
	return Query{
		ID:        "q-test",
		Text:      text,
		Criteria:  h.extractor.Extract(text, h.dir.Contacts(), limit),
		Directory: h.dir,
		Extractor: h.extractor,
	}
}

func messageIDs(items []MessageEvidence) []int64 {
	out := make([]int64, len(items))
	for i, m := range items {
		out[i] = m.MessageID
	}
	return out
}

func TestMessages_ForeignCryptoAfterTenPM(t *testing.T) {
	h := newHarness(t)
	r := New(h.store, nil, nil, ist, zaptest.NewLogger(t))

	res := r.Messages(context.Background(), h.query("show me foreign crypto messages after 10 pm", 5))

	require.Len(t, res.Items, 1)
	m := res.Items[0]
	assert.Equal(t, int64(101), m.MessageID)
	assert.Equal(t, "Omar Haddad", m.Sender)
	require.NotNil(t, m.Receiver)
	assert.Equal(t, "Raj Mehta", *m.Receiver)
	assert.Equal(t, "2024-03-10T22:30:00+05:30", m.Timestamp)
	assert.Equal(t, []string{"bitcoin", "wallet"}, m.Keywords)
	assert.Equal(t, SourceRecent, res.Source)
	assert.Empty(t, res.Failures)
}

func TestMessages_SimilarityRankOrder(t *testing.T) {
	h := newHarness(t)
	idx := &stubIndex{ids: []int64{104, 101, 999, 102}}
	r := New(h.store, idx, nil, ist, zaptest.NewLogger(t))

	res := r.Messages(context.Background(), h.query("show messages", 2))

	assert.Equal(t, SourceSimilarity, res.Source)
	assert.Equal(t, []int64{104, 101}, messageIDs(res.Items))
	assert.Equal(t, 10, idx.k, "k is at least ten")

	h2 := newHarness(t)
	idx2 := &stubIndex{ids: []int64{102}}
	New(h2.store, idx2, nil, ist, nil).Messages(context.Background(), h2.query("show messages", 7))
	assert.Equal(t, 21, idx2.k)
}

func TestMessages_IndexFailureFallsBackToRecent(t *testing.T) {
	h := newHarness(t)
	idx := &stubIndex{err: errors.New("connection refused")}
	r := New(h.store, idx, nil, ist, zaptest.NewLogger(t))

	res := r.Messages(context.Background(), h.query("show messages", 3))

	assert.Equal(t, SourceRecent, res.Source)
	assert.Equal(t, []int64{105, 104, 102}, messageIDs(res.Items))
	assert.Equal(t, "Unknown", res.Items[0].Sender)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, KindTransient, res.Failures[0].Kind)
	assert.Equal(t, CollaboratorIndex, res.Failures[0].Collaborator)
}

func TestMessages_FilteredCandidatesFallBack(t *testing.T) {
	h := newHarness(t)
	// only candidate fails the topic filter, so the recency path runs
	idx := &stubIndex{ids: []int64{104}}
	r := New(h.store, idx, nil, ist, zaptest.NewLogger(t))

	res := r.Messages(context.Background(), h.query("bitcoin messages", 5))

	assert.Equal(t, SourceRecent, res.Source)
	// "crypto deal" matches through the suspicious-term union
	assert.Equal(t, []int64{102, 101, 103}, messageIDs(res.Items))
}

func TestMessages_DateRangeAndPerson(t *testing.T) {
	h := newHarness(t)
	r := New(h.store, nil, nil, ist, zaptest.NewLogger(t))

	// window starts 2024-03-11 00:00 local, so 102 (10th, 23:00) is out
	q := h.query("messages with Priya in the last 4 days", 5)
	require.Equal(t, []int64{3}, q.Criteria.PersonIDList())
	res := r.Messages(context.Background(), q)
	assert.Equal(t, []int64{104}, messageIDs(res.Items))
}

func TestMessages_RespectsLimitOnFallback(t *testing.T) {
	h := newHarness(t)
	r := New(h.store, &stubIndex{}, nil, ist, zaptest.NewLogger(t))
	for limit := 1; limit <= 6; limit++ {
		res := r.Messages(context.Background(), h.query("show messages", limit))
		assert.LessOrEqual(t, len(res.Items), limit)
	}
}

func TestCalls_ForeignOnly(t *testing.T) {
	h := newHarness(t)
	r := New(h.store, nil, nil, ist, zaptest.NewLogger(t))

	res := r.Calls(context.Background(), h.query("foreign calls", 5))
	require.Len(t, res.Items, 1)
	c := res.Items[0]
	assert.Equal(t, int64(201), c.CallID)
	assert.Equal(t, "Omar Haddad", *c.Caller)
	assert.Equal(t, "Raj Mehta", *c.Callee)
	assert.Equal(t, 120, c.DurationSeconds)
	assert.Equal(t, "Dubai", *c.Location)
	assert.Equal(t, "2024-03-10T22:45:00+05:30", c.Timestamp)
}

func TestLocations_IgnoreForeignOnly(t *testing.T) {
	h := newHarness(t)
	r := New(h.store, nil, nil, time.UTC, zaptest.NewLogger(t))

	res := r.Locations(context.Background(), h.query("foreign locations", 5))
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(302), res.Items[0].LocationID)
	assert.Equal(t, "2024-03-11T02:30:00+00:00", res.Items[0].Timestamp)
	assert.Equal(t, "Omar Haddad", *res.Items[1].Contact)
}

func TestLocations_TimeCutoffIsStrict(t *testing.T) {
	h := newHarness(t)
	r := New(h.store, nil, nil, ist, zaptest.NewLogger(t))

	res := r.Locations(context.Background(), h.query("locations after 22:50", 5))
	assert.Empty(t, res.Items, "22:50 is not after 22:50")

	res = r.Locations(context.Background(), h.query("locations after 22:49", 5))
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(301), res.Items[0].LocationID)
}

func TestGraph_SkipsIsolatedAndStopsAtLimit(t *testing.T) {
	g, err := graph.Parse([]byte(`{"directed": true, "nodes": [
		{"id": "a", "label": "Alone"},
		{"id": "b", "label": "Raj"},
		{"id": "c", "label": "Omar"},
		{"id": "d", "label": "Priya"}
	], "links": [
		{"source": "b", "target": "c", "relation": "CALLED"},
		{"source": "c", "target": "d", "relation": "SENT"}
	]}`))
	require.NoError(t, err)

	h := newHarness(t)
	r := New(h.store, nil, g, ist, zaptest.NewLogger(t))

	res := r.Graph(context.Background(), h.query("show connections", 1))
	assert.Equal(t, []string{"Raj connects to Omar"}, res.Items)

	res = r.Graph(context.Background(), h.query("show connections", 5))
	assert.Equal(t, []string{"Raj connects to Omar", "Omar connects to Priya"}, res.Items)

	none := New(h.store, nil, nil, ist, nil).Graph(context.Background(), h.query("show connections", 5))
	assert.Empty(t, none.Items)
}

type failingStore struct{ err error }

func (f failingStore) RecentMessages(context.Context, db.Window) ([]db.Message, error) {
	return nil, f.err
}
func (f failingStore) MessagesByIDs(context.Context, []int64, db.Window) ([]db.Message, error) {
	return nil, f.err
}
func (f failingStore) RecentCalls(context.Context, db.Window) ([]db.Call, error) { return nil, f.err }
func (f failingStore) RecentLocations(context.Context, db.Window) ([]db.Location, error) {
	return nil, f.err
}
func (f failingStore) KeywordsFor(context.Context, []int64) (map[int64][]string, error) {
	return nil, f.err
}

func TestStoreFailuresDegradeToEmpty(t *testing.T) {
	h := newHarness(t)
	r := New(failingStore{err: errors.New("database is locked")}, &stubIndex{ids: []int64{101}}, nil, ist, zaptest.NewLogger(t))
	q := h.query("show messages and calls and locations", 5)

	msgs := r.Messages(context.Background(), q)
	assert.Empty(t, msgs.Items)
	assert.Len(t, msgs.Failures, 2, "enrichment and fallback both fail")

	calls := r.Calls(context.Background(), q)
	assert.Empty(t, calls.Items)
	require.Len(t, calls.Failures, 1)
	assert.Equal(t, CollaboratorStore, calls.Failures[0].Collaborator)

	locs := r.Locations(context.Background(), q)
	assert.Empty(t, locs.Items)
}

func TestClassify(t *testing.T) {
	f := Classify(CollaboratorIndex, fmt.Errorf("search: %w", vectordb.ErrDisabled))
	assert.Equal(t, KindBackendUnavailable, f.Kind)
	assert.ErrorIs(t, f, vectordb.ErrDisabled)

	f = Classify(CollaboratorGraph, errors.New("timeout"))
	assert.Equal(t, KindTransient, f.Kind)
	assert.Equal(t, "transient", f.Kind.String())
}
