package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

func NewEmbedder(ctx context.Context, apiKey, model string, dimensions int, opts ...option.ClientOption) (*Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, model: model, dimensions: dimensions}, nil
}

// EmbedBatch embeds all chunks in a single API call and returns one vector
// per chunk, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	slog.DebugContext(ctx, "embedding batch", "model", e.model, "chunks", len(chunks))

	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, chunk := range chunks {
		batch.AddContent(genai.Text(chunk))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		slog.ErrorContext(ctx, "batch embedding failed", "error", err, "chunks", len(chunks))
		return nil, err
	}

	if len(res.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(res.Embeddings))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding received at index %d", i)
		}
		if e.dimensions > 0 && len(emb.Values) != e.dimensions {
			return nil, fmt.Errorf("embedding at index %d has %d dimensions, expected %d", i, len(emb.Values), e.dimensions)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}
