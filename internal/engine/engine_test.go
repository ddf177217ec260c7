package engine

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/db/dbtest"
	"github.com/ufdr-assistant/go/orchestrator/internal/graph"
	"github.com/ufdr-assistant/go/orchestrator/internal/planner"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func clock() time.Time { return time.Date(2024, 3, 15, 14, 30, 0, 0, ist) }

func scenarioFixture() dbtest.Fixture {
	at := func(day, hour, min int) time.Time { return dbtest.At(ist, 2024, time.March, day, hour, min) }
	return dbtest.Fixture{
		Contacts: []db.Contact{
			{ID: 1, Name: "Raj Mehta", Phone: "+91 98200 11111", Country: dbtest.Str("India")},
			{ID: 2, Name: "Omar Haddad", Phone: "+971 50 222 3333", Country: dbtest.Str("UAE")},
			{ID: 3, Name: "Priya Nair", Phone: "+91 99000 44444", Country: dbtest.Str("India")},
		},
		Messages: []db.Message{
			{ID: 101, SenderID: dbtest.ID(2), ReceiverID: dbtest.ID(1), Timestamp: at(10, 22, 30), Content: "Sent the bitcoin, check the wallet", App: "WhatsApp"},
			{ID: 102, SenderID: dbtest.ID(3), ReceiverID: dbtest.ID(1), Timestamp: at(10, 23, 0), Content: "bitcoin is pumping tonight", App: "SMS"},
			{ID: 103, SenderID: dbtest.ID(2), ReceiverID: dbtest.ID(1), Timestamp: at(10, 21, 0), Content: "meet at the port", App: "Telegram"},
		},
		Calls: []db.Call{
			{ID: 201, CallerID: dbtest.ID(2), CalleeID: dbtest.ID(1), Type: "outgoing", StartTime: at(10, 22, 45), DurationSeconds: 120},
		},
	}
}

type stubPlanner struct {
	plan *planner.Plan
	err  error
}

func (s stubPlanner) Plan(context.Context, string) (*planner.Plan, error) { return s.plan, s.err }
func (s stubPlanner) Name() string                                        { return "stub" }

func newEngine(t *testing.T, f dbtest.Fixture, deps Deps) *Engine {
	t.Helper()
	store := dbtest.Open(t)
	dbtest.Load(t, store, f)
	deps.Contacts = store
	deps.Store = store
	deps.Clock = clock
	e, err := New(Config{LocalTimezone: "Asia/Kolkata"}, deps, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e
}

func TestAnswer_EmptyDataset(t *testing.T) {
	e := newEngine(t, dbtest.Fixture{}, Deps{})

	resp, err := e.Answer(context.Background(), "tell me about Raj", 5)
	require.NoError(t, err)
	assert.Equal(t, FallbackSummary, resp.Summary)
	assert.Empty(t, resp.Messages)
	assert.Empty(t, resp.Calls)
	assert.Empty(t, resp.Locations)
	assert.Empty(t, resp.GraphInsights)
	assert.NotNil(t, resp.Messages, "empty lists serialize as []")
	assert.NotEmpty(t, resp.QueryID)
}

func TestAnswer_ForeignCryptoAfterTenPM(t *testing.T) {
	e := newEngine(t, scenarioFixture(), Deps{})

	resp, err := e.Answer(context.Background(), "show me foreign crypto messages after 10 pm", 5)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, int64(101), resp.Messages[0].MessageID)
	assert.Equal(t, "2024-03-10T22:30:00+05:30", resp.Messages[0].Timestamp)
	assert.Empty(t, resp.Calls, "calls were not requested")
	assert.Equal(t, "Flagged terms: crypto Found 1 relevant message(s).", resp.Summary)
}

func TestAnswer_Idempotent(t *testing.T) {
	e := newEngine(t, scenarioFixture(), Deps{})
	ctx := context.Background()

	first, err := e.Answer(ctx, "bitcoin messages and calls", 5)
	require.NoError(t, err)
	second, err := e.Answer(ctx, "bitcoin messages and calls", 5)
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Messages, second.Messages)
	assert.Equal(t, first.Calls, second.Calls)
	assert.NotEqual(t, first.QueryID, second.QueryID)
}

func TestAnswer_PlanOverridesCalls(t *testing.T) {
	plan := &planner.Plan{IncludeCalls: planner.False}
	e := newEngine(t, scenarioFixture(), Deps{Planner: stubPlanner{plan: plan}})

	resp, err := e.Answer(context.Background(), "calls with omar", 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Calls)
	// with no category left, messages is forced on
	assert.Len(t, resp.Messages, 2)
	assert.Equal(t, "Found 2 relevant message(s).", resp.Summary)
}

func TestAnswer_PlannerErrorKeepsHeuristics(t *testing.T) {
	e := newEngine(t, scenarioFixture(), Deps{Planner: stubPlanner{err: errors.New("quota exceeded")}})

	resp, err := e.Answer(context.Background(), "calls with omar", 5)
	require.NoError(t, err)
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, "Omar Haddad", *resp.Calls[0].Caller)
	assert.Empty(t, resp.Messages)
	assert.Equal(t, "Identified 1 matching call(s).", resp.Summary)
}

func TestAnswer_GraphInsights(t *testing.T) {
	g, err := graph.Parse([]byte(`{"directed": true,
		"nodes": [{"id": ["Person", 2], "label": "Omar Haddad"}, {"id": ["Call", 201], "label": "Call 201"}],
		"links": [{"source": ["Person", 2], "target": ["Call", 201], "relation": "ORIGINATED"}]}`))
	require.NoError(t, err)
	e := newEngine(t, dbtest.Fixture{}, Deps{Graph: g})

	resp, err := e.Answer(context.Background(), "show network", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Omar Haddad connects to Call 201"}, resp.GraphInsights)
	assert.Equal(t, "Graph highlights: Omar Haddad connects to Call 201", resp.Summary)
}

type brokenDirectory struct{}

func (brokenDirectory) Contacts(context.Context) ([]db.Contact, error) {
	return nil, errors.New("no such table: contacts")
}

func TestAnswer_ContactFailurePropagates(t *testing.T) {
	store := dbtest.Open(t)
	e, err := New(Config{}, Deps{Contacts: brokenDirectory{}, Store: store}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = e.Answer(context.Background(), "anything", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load contacts")
}

func TestAnswer_DefaultLimit(t *testing.T) {
	f := dbtest.Fixture{Contacts: scenarioFixture().Contacts}
	for i := int64(0); i < 8; i++ {
		f.Messages = append(f.Messages, db.Message{
			ID: 500 + i, SenderID: dbtest.ID(1), Timestamp: dbtest.At(ist, 2024, time.March, 1, 9, int(i)), Content: "ping",
		})
	}
	e := newEngine(t, f, Deps{})

	resp, err := e.Answer(context.Background(), "show messages", 0)
	require.NoError(t, err)
	assert.Len(t, resp.Messages, 5)
	assert.Equal(t, int64(507), resp.Messages[0].MessageID)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{}, Deps{}, nil)
	assert.Error(t, err)

	store := dbtest.Open(t)
	_, err = New(Config{LocalTimezone: "Mars/Olympus"}, Deps{Contacts: store, Store: store}, nil)
	assert.Error(t, err)
}
