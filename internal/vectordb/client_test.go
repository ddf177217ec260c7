package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSearchDisabled(t *testing.T) {
	c := NewClient(Config{Enabled: false}, zaptest.NewLogger(t))
	_, err := c.SearchMessages(context.Background(), []float32{0.1, 0.2}, 3)
	assert.ErrorIs(t, err, ErrDisabled)

	ok, err := c.CollectionExists(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchMessagesQueryEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/messages/points/query", r.URL.Path)
		var body qdrantQueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 15, body.Limit)
		assert.True(t, body.WithPayload)
		w.Write([]byte(`{"status":"ok","result":{"points":[
			{"id":"6b0c6d5e-2f0a-4c1e-9d3b-7a1f2e4c5d6f","score":0.91,"payload":{"message_id":42}},
			{"id":7,"score":0.80,"payload":{}},
			{"id":"no-id","score":0.70,"payload":{"text":"x"}},
			{"id":9,"score":0.60,"payload":{"message_id":"13"}}
		]}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Enabled: true, URL: srv.URL}, zaptest.NewLogger(t))
	cands, err := c.SearchMessages(context.Background(), []float32{1, 0}, 15)
	require.NoError(t, err)
	require.Len(t, cands, 3)
	assert.Equal(t, []int64{42, 7, 13}, []int64{cands[0].MessageID, cands[1].MessageID, cands[2].MessageID})
	assert.InDelta(t, 0.91, cands[0].Score, 1e-9)
}

func TestSearchFallsBackToLegacyEndpoint(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/collections/messages/points/query" {
			http.NotFound(w, r)
			return
		}
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "vector")
		w.Write([]byte(`{"status":"ok","result":[{"id":3,"score":0.5,"payload":{"message_id":3}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Enabled: true, URL: srv.URL}, zaptest.NewLogger(t))
	cands, err := c.SearchMessages(context.Background(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{MessageID: 3, Score: 0.5}}, cands)
	assert.Equal(t, []string{"/collections/messages/points/query", "/collections/messages/points/search"}, paths)
}

func TestCollectionExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/messages" {
			w.Write([]byte(`{"status":"ok","result":{}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Config{Enabled: true, URL: srv.URL}, zaptest.NewLogger(t))
	ok, err := c.CollectionExists(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	missing := NewClient(Config{Enabled: true, URL: srv.URL, Collection: "unbuilt"}, zaptest.NewLogger(t))
	ok, err = missing.CollectionExists(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) GenerateEmbedding(context.Context, string, string) ([]float32, error) {
	return s.vec, s.err
}

func TestMessageIndexSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"points":[{"id":1,"score":0.9,"payload":{"message_id":11}},{"id":2,"score":0.8,"payload":{"message_id":12}}]}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Enabled: true, URL: srv.URL}, zaptest.NewLogger(t))
	idx := NewMessageIndex(stubEmbedder{vec: []float32{0.1}}, client, "")
	ids, err := idx.Search(context.Background(), "bitcoin", 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, ids)

	failing := NewMessageIndex(stubEmbedder{err: errors.New("embedding down")}, client, "")
	_, err = failing.Search(context.Background(), "bitcoin", 10)
	assert.ErrorContains(t, err, "embedding down")
}
