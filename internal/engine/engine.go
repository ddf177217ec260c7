// Package engine answers investigative queries: it derives criteria, merges
// the optional advisory plan, fans out category retrievals and summarizes.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/graph"
	"github.com/ufdr-assistant/go/orchestrator/internal/intent"
	"github.com/ufdr-assistant/go/orchestrator/internal/lexicon"
	ometrics "github.com/ufdr-assistant/go/orchestrator/internal/metrics"
	"github.com/ufdr-assistant/go/orchestrator/internal/planner"
	"github.com/ufdr-assistant/go/orchestrator/internal/retrieval"
	"github.com/ufdr-assistant/go/orchestrator/internal/tracing"
)

// Config holds engine settings
type Config struct {
	// LocalTimezone interprets naive dates and time-of-day cutoffs
	LocalTimezone string `mapstructure:"local_timezone"`
	// ReportingTimezone renders evidence timestamps
	ReportingTimezone string `mapstructure:"reporting_timezone"`
	DefaultLimit      int    `mapstructure:"default_limit"`
}

// ContactDirectory is the mandatory contact source
type ContactDirectory interface {
	Contacts(ctx context.Context) ([]db.Contact, error)
}

// LexiconSource hands out the keyword tables for one query
type LexiconSource interface {
	Snapshot() *lexicon.Lexicon
}

// Deps are the engine's collaborators. Index, Graph and Planner are optional.
type Deps struct {
	Contacts ContactDirectory
	Store    retrieval.EvidenceReader
	Index    retrieval.SimilarityIndex
	Graph    graph.Graph
	Lexicon  LexiconSource
	Planner  planner.Planner
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Response is the answer to one query
type Response struct {
	QueryID       string                       `json:"query_id"`
	Query         string                       `json:"query"`
	Summary       string                       `json:"summary"`
	Messages      []retrieval.MessageEvidence  `json:"messages"`
	Calls         []retrieval.CallEvidence     `json:"calls"`
	Locations     []retrieval.LocationEvidence `json:"locations"`
	GraphInsights []string                     `json:"graph_insights"`
	// MessageSource is the message retrieval stage that served Messages
	MessageSource string `json:"message_source,omitempty"`
}

// Engine is safe for concurrent use; nothing is shared between queries
// except read-only collaborators.
type Engine struct {
	cfg       Config
	deps      Deps
	local     *time.Location
	retriever *retrieval.Retriever
	logger    *zap.Logger
}

// New validates the configuration and wires the retriever
func New(cfg Config, deps Deps, logger *zap.Logger) (*Engine, error) {
	if deps.Contacts == nil || deps.Store == nil {
		return nil, fmt.Errorf("engine: contact directory and evidence store are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LocalTimezone == "" {
		cfg.LocalTimezone = "Asia/Kolkata"
	}
	if cfg.ReportingTimezone == "" {
		cfg.ReportingTimezone = cfg.LocalTimezone
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = intent.DefaultLimit
	}
	local, err := time.LoadLocation(cfg.LocalTimezone)
	if err != nil {
		return nil, fmt.Errorf("local timezone: %w", err)
	}
	report, err := time.LoadLocation(cfg.ReportingTimezone)
	if err != nil {
		return nil, fmt.Errorf("reporting timezone: %w", err)
	}
	if deps.Lexicon == nil {
		deps.Lexicon = lexicon.NewStaticStore(lexicon.Default())
	}
	if deps.Planner == nil {
		deps.Planner = planner.Noop{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Engine{
		cfg:       cfg,
		deps:      deps,
		local:     local,
		retriever: retrieval.New(deps.Store, deps.Index, deps.Graph, report, logger),
		logger:    logger,
	}, nil
}

// Answer runs one query end to end. Only a contact directory failure is
// returned as an error; every other collaborator failure degrades to an
// empty category.
func (e *Engine) Answer(ctx context.Context, query string, limit int) (*Response, error) {
	start := time.Now()
	queryID := uuid.New().String()
	ctx, span := tracing.StartSpan(ctx, "engine.answer")
	defer span.End()
	span.SetAttributes(attribute.String("query.id", queryID))

	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}

	contacts, err := e.deps.Contacts.Contacts(ctx)
	if err != nil {
		ometrics.RecordQuery("error", time.Since(start).Seconds())
		e.logger.Error("Contact directory unavailable", zap.String("query_id", queryID), zap.Error(err))
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	ex := intent.NewExtractor(e.deps.Lexicon.Snapshot(), e.local, e.deps.Clock)
	criteria := ex.Extract(query, contacts, limit)
	e.applyPlan(ctx, queryID, query, criteria, contacts, ex)

	q := retrieval.Query{
		ID:        queryID,
		Text:      query,
		Criteria:  criteria,
		Directory: retrieval.NewDirectory(contacts),
		Extractor: ex,
	}
	resp := e.retrieve(ctx, q)
	resp.QueryID = queryID
	resp.Query = query
	resp.Summary = ComposeSummary(criteria.FlaggedTerms, len(resp.Messages), len(resp.Calls),
		len(resp.Locations), resp.GraphInsights)

	ometrics.RecordQuery("ok", time.Since(start).Seconds())
	e.logger.Info("Query answered",
		zap.String("query_id", queryID),
		zap.Int("messages", len(resp.Messages)),
		zap.Int("calls", len(resp.Calls)),
		zap.Int("locations", len(resp.Locations)),
		zap.Int("graph_insights", len(resp.GraphInsights)),
		zap.String("message_source", resp.MessageSource),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (e *Engine) applyPlan(ctx context.Context, queryID, query string, c *intent.Criteria, contacts []db.Contact, ex *intent.Extractor) {
	plan, err := e.deps.Planner.Plan(ctx, query)
	if err != nil {
		e.logger.Warn("Advisory planner failed, using heuristic criteria",
			zap.String("query_id", queryID),
			zap.String("planner", e.deps.Planner.Name()),
			zap.Error(err))
		return
	}
	if plan == nil {
		return
	}
	planner.Merge(c, plan, contacts, ex)
	e.logger.Debug("Advisory plan merged",
		zap.String("query_id", queryID),
		zap.Bool("messages", c.IncludeMessages),
		zap.Bool("calls", c.IncludeCalls),
		zap.Bool("locations", c.IncludeLocations),
		zap.Bool("graph", c.IncludeGraph),
	)
}

// retrieve fans the enabled categories out concurrently; each goroutine
// writes only its own response field.
func (e *Engine) retrieve(ctx context.Context, q retrieval.Query) *Response {
	resp := &Response{
		Messages:      []retrieval.MessageEvidence{},
		Calls:         []retrieval.CallEvidence{},
		Locations:     []retrieval.LocationEvidence{},
		GraphInsights: []string{},
	}
	c := q.Criteria
	var g errgroup.Group

	if c.IncludeMessages {
		g.Go(func() error {
			res := e.retriever.Messages(ctx, q)
			if len(res.Items) > 0 {
				resp.Messages = res.Items
			}
			resp.MessageSource = res.Source
			return nil
		})
	}
	if c.IncludeCalls {
		g.Go(func() error {
			if res := e.retriever.Calls(ctx, q); len(res.Items) > 0 {
				resp.Calls = res.Items
			}
			return nil
		})
	}
	if c.IncludeLocations {
		g.Go(func() error {
			if res := e.retriever.Locations(ctx, q); len(res.Items) > 0 {
				resp.Locations = res.Items
			}
			return nil
		})
	}
	if c.IncludeGraph {
		g.Go(func() error {
			if res := e.retriever.Graph(ctx, q); len(res.Items) > 0 {
				resp.GraphInsights = res.Items
			}
			return nil
		})
	}
	_ = g.Wait()

	ometrics.RecordCategory("messages", len(resp.Messages))
	ometrics.RecordCategory("calls", len(resp.Calls))
	ometrics.RecordCategory("locations", len(resp.Locations))
	ometrics.RecordCategory("graph", len(resp.GraphInsights))
	return resp
}
