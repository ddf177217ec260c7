package vectordb

import (
	"context"
	"fmt"
)

// Embedder turns query text into a vector
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string, model string) ([]float32, error)
}

// MessageIndex answers "which messages are most similar to this text"
// by embedding the text and searching the message collection.
type MessageIndex struct {
	embedder Embedder
	client   *Client
	model    string
}

// NewMessageIndex composes an embedder and a Qdrant client. model may be
// empty to use the embedder's default.
func NewMessageIndex(embedder Embedder, client *Client, model string) *MessageIndex {
	return &MessageIndex{embedder: embedder, client: client, model: model}
}

// Search returns up to k message ids, most similar first
func (m *MessageIndex) Search(ctx context.Context, text string, k int) ([]int64, error) {
	vec, err := m.embedder.GenerateEmbedding(ctx, text, m.model)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	cands, err := m.client.SearchMessages(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(cands))
	for i, c := range cands {
		ids[i] = c.MessageID
	}
	return ids, nil
}
