package retrieval

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/intent"
	ometrics "github.com/ufdr-assistant/go/orchestrator/internal/metrics"
	"github.com/ufdr-assistant/go/orchestrator/internal/tracing"
)

const minSimilarityCandidates = 10

// Messages runs similarity search first and falls back to the recency
// window only when similarity produced nothing.
func (r *Retriever) Messages(ctx context.Context, q Query) MessageResult {
	ctx, span := tracing.StartSpan(ctx, "retrieval.messages")
	defer span.End()

	var res MessageResult
	res.Source = SourceSimilarity
	res.Items = r.similarMessages(ctx, q, &res.Failures)
	if len(res.Items) == 0 {
		res.Source = SourceRecent
		res.Items = r.recentMessages(ctx, q, &res.Failures)
	}
	r.attachKeywords(ctx, q, &res)

	ometrics.MessageStages.WithLabelValues(res.Source).Inc()
	span.SetAttributes(
		attribute.String("retrieval.source", res.Source),
		attribute.Int("retrieval.count", len(res.Items)),
	)
	return res
}

func (r *Retriever) similarMessages(ctx context.Context, q Query, failures *[]*Failure) []MessageEvidence {
	if r.index == nil {
		return nil
	}
	k := 3 * q.Criteria.Limit
	if k < minSimilarityCandidates {
		k = minSimilarityCandidates
	}
	ids, err := r.index.Search(ctx, q.Text, k)
	if err != nil {
		*failures = append(*failures, r.absorb(q, CollaboratorIndex, err))
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	msgs, err := r.store.MessagesByIDs(ctx, ids, window(q.Criteria))
	if err != nil {
		*failures = append(*failures, r.absorb(q, CollaboratorStore, err))
		return nil
	}
	rankByID(msgs, ids)

	terms := contentTerms(q.Criteria.TopicTerms, q.Extractor.Lexicon())
	return r.selectMessages(q, msgs, terms)
}

func (r *Retriever) recentMessages(ctx context.Context, q Query, failures *[]*Failure) []MessageEvidence {
	msgs, err := r.store.RecentMessages(ctx, window(q.Criteria))
	if err != nil {
		*failures = append(*failures, r.absorb(q, CollaboratorStore, err))
		return nil
	}

	tokens := q.Criteria.TopicTerms
	if len(tokens) == 0 {
		tokens = q.Extractor.TopicTerms(strings.ToLower(q.Text), nil,
			intent.PersonTokens(q.Criteria.PersonIDs, q.Directory.Contacts()))
	}
	return r.selectMessages(q, msgs, contentTerms(tokens, q.Extractor.Lexicon()))
}

// selectMessages applies the filter chain and topic containment in the given
// order, stopping at the limit.
func (r *Retriever) selectMessages(q Query, msgs []db.Message, terms []string) []MessageEvidence {
	f := r.filterFor(q, q.Criteria.ForeignOnly)
	var out []MessageEvidence
	for _, m := range msgs {
		if !f.admits(m.Timestamp, m.SenderID, m.ReceiverID) {
			continue
		}
		if len(terms) > 0 && !containsAny(m.Content, terms) {
			continue
		}
		sender := "Unknown"
		if name := q.Directory.Name(m.SenderID); name != nil {
			sender = *name
		}
		out = append(out, MessageEvidence{
			MessageID: m.ID,
			Timestamp: formatTimestamp(m.Timestamp, r.report),
			App:       m.App,
			Sender:    sender,
			Receiver:  q.Directory.Name(m.ReceiverID),
			Content:   m.Content,
			Keywords:  []string{},
		})
		if len(out) >= q.Criteria.Limit {
			break
		}
	}
	return out
}

func (r *Retriever) attachKeywords(ctx context.Context, q Query, res *MessageResult) {
	if len(res.Items) == 0 {
		return
	}
	ids := make([]int64, len(res.Items))
	for i, m := range res.Items {
		ids[i] = m.MessageID
	}
	kws, err := r.store.KeywordsFor(ctx, ids)
	if err != nil {
		res.Failures = append(res.Failures, r.absorb(q, CollaboratorStore, err))
		return
	}
	for i := range res.Items {
		if terms, ok := kws[res.Items[i].MessageID]; ok {
			res.Items[i].Keywords = terms
		}
	}
}

// rankByID reorders msgs to the order of ids. Messages whose id is not in
// ids go last; ties keep their current order.
func rankByID(msgs []db.Message, ids []int64) {
	rank := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}
	pos := func(id int64) int {
		if p, ok := rank[id]; ok {
			return p
		}
		return len(ids)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return pos(msgs[i].ID) < pos(msgs[j].ID)
	})
}
