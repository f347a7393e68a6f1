// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package vector

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"paperag/internal/api"
)

var (
	ErrInvalidStoreType      = errors.New("no vector store found for given type")
	ErrFailedStoreInitialize = errors.New("failed to initialise vector store")
)

const (
	StoreTypeQdrant = iota
	StoreTypeChromem
)

var storeTypeMap = map[string]StoreType{
	"qdrant":  StoreTypeQdrant,
	"chromem": StoreTypeChromem,
}

type StoreType int

// Store wraps a vector database collection: upserting chunk embeddings
// and returning the top-K nearest neighbours for a query embedding.
type Store interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, collection Collection) error

	Upsert(ctx context.Context, collectionName string, points []*Point) error

	Query(ctx context.Context, params *QueryParams) ([]*ScoredPoint, error)

	// Count returns the number of points held in the collection.
	Count(ctx context.Context, collectionName string) (uint64, error)

	Close() error
}

type StoreConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// Path is the persistence directory for embedded stores.
	Path string
}

func NewStore(storeName string, conf StoreConfig) (Store, error) {
	storeType, ok := storeTypeMap[storeName]
	if !ok {
		return nil, ErrInvalidStoreType
	}

	switch storeType {
	case StoreTypeQdrant:
		store, err := NewQdrantStore(conf)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedStoreInitialize, err)
		}
		return store, nil

	case StoreTypeChromem:
		store, err := NewChromemStore(conf.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedStoreInitialize, err)
		}
		return store, nil

	default:
		return nil, ErrInvalidStoreType
	}
}

type Collection struct {
	Name       string
	Dimensions uint
}

type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]string
}

// CreatePoints pairs chunks with their embedding vectors. The point ID is
// derived from the document name and chunk ID, so re-ingesting the same
// document upserts the existing points instead of duplicating them.
func CreatePoints(document string, chunks []api.Chunk, values [][]float32) ([]*Point, error) {
	if len(chunks) != len(values) {
		return nil, fmt.Errorf("chunk count '%d' does not match embedding count '%d'", len(chunks), len(values))
	}

	points := make([]*Point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &Point{
			ID:     PointID(document, chunk.ID),
			Vector: values[i],
			Payload: map[string]string{
				"document":    document,
				"chunk_id":    chunk.ID,
				"source_type": string(chunk.SourceType),
				"ordinal":     strconv.Itoa(chunk.Ordinal),
				"text":        chunk.Content,
			},
		})
	}
	return points, nil
}

func PointID(document, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("paperag://"+document+"/"+chunkID)).String()
}

type QueryMatch struct {
	Key   string
	Value string
}

type QueryParams struct {
	collection  string
	query       []float32
	withPayload bool
	limit       uint
	filters     []*QueryMatch
}

func (qp *QueryParams) Collection() string {
	return qp.collection
}

func (qp *QueryParams) Limit() uint {
	return qp.limit
}

type QueryParamsOption func(*QueryParams)

func NewQueryParams(collection string, query []float32, opts ...QueryParamsOption) *QueryParams {
	qp := &QueryParams{
		collection:  collection,
		query:       query,
		withPayload: false,
		limit:       0,
		filters:     make([]*QueryMatch, 0),
	}

	for _, opt := range opts {
		opt(qp)
	}
	return qp
}

func WithPayload(w bool) QueryParamsOption {
	return func(qp *QueryParams) {
		qp.withPayload = w
	}
}

func WithLimit(limit uint) QueryParamsOption {
	return func(qp *QueryParams) {
		qp.limit = limit
	}
}

func WithFilter(filter *QueryMatch) QueryParamsOption {
	return func(qp *QueryParams) {
		qp.filters = append(qp.filters, filter)
	}
}
