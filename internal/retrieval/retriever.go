package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ufdr-assistant/go/orchestrator/internal/graph"
	"github.com/ufdr-assistant/go/orchestrator/internal/intent"
	ometrics "github.com/ufdr-assistant/go/orchestrator/internal/metrics"
)

// Query is everything a category retrieval reads. It is not modified.
type Query struct {
	ID        string
	Text      string
	Criteria  *intent.Criteria
	Directory *Directory
	// Extractor carries the lexicon snapshot and local timezone of this query
	Extractor *intent.Extractor
}

// Retriever runs the per-category retrieval protocols. index and graph may
// be nil when the backend is unavailable for the process.
type Retriever struct {
	store  EvidenceReader
	index  SimilarityIndex
	graph  graph.Graph
	report *time.Location
	logger *zap.Logger
}

// New creates a Retriever. report is the timezone evidence timestamps are
// rendered in; nil means UTC.
func New(store EvidenceReader, index SimilarityIndex, g graph.Graph, report *time.Location, logger *zap.Logger) *Retriever {
	if report == nil {
		report = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, index: index, graph: g, report: report, logger: logger}
}

func (r *Retriever) filterFor(q Query, foreignOnly bool) recordFilter {
	return recordFilter{
		dateRange:   q.Criteria.DateRange,
		cutoff:      q.Criteria.TimeCutoff,
		loc:         q.Extractor.Location(),
		foreignOnly: foreignOnly,
		lex:         q.Extractor.Lexicon(),
		dir:         q.Directory,
	}
}

// absorb classifies and logs a collaborator error; the caller continues
// with an empty result for that call.
func (r *Retriever) absorb(q Query, collaborator string, err error) *Failure {
	f := Classify(collaborator, err)
	fields := []zap.Field{
		zap.String("query_id", q.ID),
		zap.String("collaborator", collaborator),
		zap.Error(err),
	}
	switch f.Kind {
	case KindBackendUnavailable:
		r.logger.Warn("Collaborator unavailable, continuing without it", fields...)
	case KindTransient:
		r.logger.Warn("Collaborator call failed, treating as empty", fields...)
	}
	ometrics.RecordCollaboratorFailure(collaborator, f.Kind.String())
	return f
}

// Calls returns up to Criteria.Limit calls, newest first
func (r *Retriever) Calls(ctx context.Context, q Query) Result[CallEvidence] {
	var res Result[CallEvidence]
	calls, err := r.store.RecentCalls(ctx, window(q.Criteria))
	if err != nil {
		res.Failures = append(res.Failures, r.absorb(q, CollaboratorStore, err))
		return res
	}

	f := r.filterFor(q, q.Criteria.ForeignOnly)
	for _, c := range calls {
		if !f.admits(c.StartTime, c.CallerID, c.CalleeID) {
			continue
		}
		res.Items = append(res.Items, CallEvidence{
			CallID:          c.ID,
			Timestamp:       formatTimestamp(c.StartTime, r.report),
			Caller:          q.Directory.Name(c.CallerID),
			Callee:          q.Directory.Name(c.CalleeID),
			DurationSeconds: c.DurationSeconds,
			Type:            c.Type,
			Location:        c.Location,
		})
		if len(res.Items) >= q.Criteria.Limit {
			break
		}
	}
	return res
}

// Locations returns up to Criteria.LocationLimit records, newest first.
// Foreign-only does not apply to locations.
func (r *Retriever) Locations(ctx context.Context, q Query) Result[LocationEvidence] {
	var res Result[LocationEvidence]
	locs, err := r.store.RecentLocations(ctx, window(q.Criteria))
	if err != nil {
		res.Failures = append(res.Failures, r.absorb(q, CollaboratorStore, err))
		return res
	}

	f := r.filterFor(q, false)
	for _, l := range locs {
		if !f.admits(l.Timestamp) {
			continue
		}
		res.Items = append(res.Items, LocationEvidence{
			LocationID:     l.ID,
			Timestamp:      formatTimestamp(l.Timestamp, r.report),
			Contact:        q.Directory.Name(l.ContactID),
			Latitude:       l.Latitude,
			Longitude:      l.Longitude,
			AccuracyMeters: l.Accuracy,
		})
		if len(res.Items) >= q.Criteria.LocationLimit {
			break
		}
	}
	return res
}

// Graph summarizes the first 2·limit graph nodes that have neighbors, up to
// Criteria.Limit insights.
func (r *Retriever) Graph(ctx context.Context, q Query) Result[string] {
	var res Result[string]
	if r.graph == nil {
		return res
	}
	limit := q.Criteria.Limit
	nodes, err := r.graph.Nodes(ctx, limit*2)
	if err != nil {
		res.Failures = append(res.Failures, r.absorb(q, CollaboratorGraph, err))
		return res
	}
	for _, n := range nodes {
		neighbors, err := r.graph.Neighbors(ctx, n.ID)
		if err != nil {
			res.Failures = append(res.Failures, r.absorb(q, CollaboratorGraph, err))
			continue
		}
		if len(neighbors) == 0 {
			continue
		}
		res.Items = append(res.Items, graph.Insight(n, neighbors))
		if len(res.Items) >= limit {
			break
		}
	}
	return res
}
