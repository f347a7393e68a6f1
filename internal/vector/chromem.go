package vector

import (
	"context"
	"runtime"

	"github.com/philippgille/chromem-go"
)

// ChromemStore is an embedded, file-backed alternative to the hosted
// store. It keeps the same upsert semantics by deleting existing IDs
// before re-adding them.
type ChromemStore struct {
	db *chromem.DB
}

func NewChromemStore(path string) (*ChromemStore, error) {
	if path == "" {
		return &ChromemStore{db: chromem.NewDB()}, nil
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, err
	}
	return &ChromemStore{db: db}, nil
}

func (s ChromemStore) CollectionExists(ctx context.Context, collectionName string) (bool, error) {
	_, exists := s.db.ListCollections()[collectionName]
	return exists, nil
}

func (s ChromemStore) CreateCollection(ctx context.Context, collection Collection) error {
	_, err := s.db.GetOrCreateCollection(collection.Name, nil, nil)
	return err
}

func (s ChromemStore) Upsert(ctx context.Context, collectionName string, points []*Point) error {
	c, err := s.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(points))
	docs := make([]chromem.Document, 0, len(points))
	for _, point := range points {
		ids = append(ids, point.ID)
		docs = append(docs, chromem.Document{
			ID:        point.ID,
			Content:   point.Payload["text"],
			Metadata:  point.Payload,
			Embedding: point.Vector,
		})
	}

	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return err
	}

	return c.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s ChromemStore) Query(ctx context.Context, params *QueryParams) ([]*ScoredPoint, error) {
	c, err := s.db.GetOrCreateCollection(params.collection, nil, nil)
	if err != nil {
		return nil, err
	}

	// chromem rejects limits above the collection size
	limit := int(params.limit)
	if count := c.Count(); limit > count {
		limit = count
	}
	if limit == 0 {
		return []*ScoredPoint{}, nil
	}

	where := make(map[string]string, len(params.filters))
	for _, filter := range params.filters {
		where[filter.Key] = filter.Value
	}

	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: params.query,
		NResults:       limit,
		Where:          where,
	})
	if err != nil {
		return nil, err
	}

	scoredPoints := make([]*ScoredPoint, 0, len(results))
	for _, res := range results {
		payload := make(map[string]string, len(res.Metadata)+1)
		for k, v := range res.Metadata {
			payload[k] = v
		}
		payload["text"] = res.Content

		scoredPoints = append(scoredPoints, &ScoredPoint{
			ID:      res.ID,
			Score:   res.Similarity,
			Payload: payload,
		})
	}

	return scoredPoints, nil
}

func (s ChromemStore) Count(ctx context.Context, collectionName string) (uint64, error) {
	c := s.db.GetCollection(collectionName, nil)
	if c == nil {
		return 0, nil
	}
	cnt := c.Count()
	if cnt < 0 {
		cnt = 0
	}
	return uint64(cnt), nil
}

func (s ChromemStore) Close() error {
	return nil
}
