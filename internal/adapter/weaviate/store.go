package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"webvec/internal/vector"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// EnsureSchema creates or completes the PageChunk class.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.client))
}

// Upsert replaces the chunks of a job: any objects left over from an earlier
// attempt are deleted first, so a retried or re-run job never accumulates
// duplicates. Returns the number of objects written.
func (s *Store) Upsert(ctx context.Context, chunks []string, vectors [][]float32, metadata map[string]interface{}, jobID string) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := s.deleteChunksByJob(ctx, jobID); err != nil {
		return 0, fmt.Errorf("delete stale chunks: %w", err)
	}

	objects := make([]*models.Object, 0, len(chunks))
	for i, chunk := range chunks {
		props := map[string]interface{}{
			"content":    chunk,
			"jobId":      jobID,
			"chunkIndex": i,
		}
		if sourceURL, ok := metadata["source_url"].(string); ok {
			props["sourceUrl"] = sourceURL
		}
		objects = append(objects, &models.Object{
			Class:      vector.ClassPageChunk,
			Properties: props,
			Vector:     vectors[i],
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().
		WithObjects(objects...).
		Do(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return added, fmt.Errorf("batch object failed: %s", r.Result.Errors.Error[0].Message)
		}
		added++
	}
	return added, nil
}

func (s *Store) deleteChunksByJob(ctx context.Context, jobID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassPageChunk).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"jobId"}).
			WithOperator(filters.Equal).
			WithValueString(jobID)).
		Do(ctx)
	return err
}

// CountChunks returns the total number of stored chunk objects.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassPageChunk).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	agg, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate response shape")
	}
	rows, ok := agg[vector.ClassPageChunk].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate row shape")
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate meta shape")
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate count type %T", meta["count"])
	}
	return int(count), nil
}
