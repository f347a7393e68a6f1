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

package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"paperag/internal/api"
	"paperag/internal/pipeline"
	"paperag/internal/vector"
)

type fakeLM struct {
	response string
	err      error
	calls    int
	lastReq  api.GenerationRequest
}

func (f *fakeLM) Generate(ctx context.Context, req api.GenerationRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEmbedder) GetDimensions() uint { return 3 }

type fakeStore struct {
	points    []*vector.ScoredPoint
	err       error
	calls     int
	lastLimit uint
}

func (f *fakeStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	return true, nil
}

func (f *fakeStore) CreateCollection(ctx context.Context, c vector.Collection) error { return nil }

func (f *fakeStore) Upsert(ctx context.Context, name string, points []*vector.Point) error {
	return nil
}

func (f *fakeStore) Query(ctx context.Context, params *vector.QueryParams) ([]*vector.ScoredPoint, error) {
	f.calls++
	f.lastLimit = params.Limit()
	if f.err != nil {
		return nil, f.err
	}

	limit := int(params.Limit())
	if limit > len(f.points) {
		limit = len(f.points)
	}
	return f.points[:limit], nil
}

func (f *fakeStore) Count(ctx context.Context, name string) (uint64, error) {
	return uint64(len(f.points)), nil
}

func (f *fakeStore) Close() error { return nil }

func scoredPoints(n int) []*vector.ScoredPoint {
	points := make([]*vector.ScoredPoint, 0, n)
	for i := range n {
		points = append(points, &vector.ScoredPoint{
			ID:    fmt.Sprintf("point-%d", i),
			Score: float32(n-i) / float32(n),
			Payload: map[string]string{
				"text":     fmt.Sprintf("chunk %d", i),
				"chunk_id": fmt.Sprintf("text_%d", i+1),
			},
		})
	}
	return points
}

func TestRestructureFallbackOnError(t *testing.T) {
	lm := &fakeLM{err: errors.New("connection refused")}
	r := pipeline.NewLMRestructurer(lm)

	question := "what is there is figure 1"
	got := r.Restructure(context.Background(), question)
	if got != question {
		t.Errorf("expected original question '%s', got '%s'", question, got)
	}
}

func TestRestructureFallbackOnEmptyResponse(t *testing.T) {
	lm := &fakeLM{response: "   \n"}
	r := pipeline.NewLMRestructurer(lm)

	question := "what is there is figure 1"
	if got := r.Restructure(context.Background(), question); got != question {
		t.Errorf("expected original question '%s', got '%s'", question, got)
	}
}

func TestRestructureReturnsRewrite(t *testing.T) {
	rewrite := "What content is shown in Figure 1 of the paper?"
	lm := &fakeLM{response: rewrite + "\n"}
	r := pipeline.NewLMRestructurer(lm)

	got := r.Restructure(context.Background(), "what is there is figure 1")
	if got != rewrite {
		t.Errorf("expected rewrite '%s', got '%s'", rewrite, got)
	}
	if lm.calls != 1 {
		t.Errorf("expected a single completion call, got %d", lm.calls)
	}
}

func TestAnswerClampsTopK(t *testing.T) {
	store := &fakeStore{points: scoredPoints(20)}
	a := pipeline.NewRetrievalAnswerer(&fakeEmbedder{}, store, &fakeLM{response: "answer"}, "documents")

	for _, tc := range []struct {
		topK  int
		limit uint
	}{
		{topK: 0, limit: pipeline.DefaultTopK},
		{topK: -4, limit: pipeline.DefaultTopK},
		{topK: 5, limit: 5},
		{topK: 50, limit: pipeline.MaxTopK},
	} {
		_, docs, err := a.Answer(context.Background(), "question", tc.topK)
		if err != nil {
			t.Fatalf("topK=%d: unexpected error %v", tc.topK, err)
		}
		if store.lastLimit != tc.limit {
			t.Errorf("topK=%d: expected store limit %d, got %d", tc.topK, tc.limit, store.lastLimit)
		}
		if uint(len(docs)) > tc.limit {
			t.Errorf("topK=%d: context length %d exceeds limit %d", tc.topK, len(docs), tc.limit)
		}
	}
}

func TestAnswerEmptyRetrieval(t *testing.T) {
	lm := &fakeLM{response: "The document does not cover this."}
	a := pipeline.NewRetrievalAnswerer(&fakeEmbedder{}, &fakeStore{}, lm, "documents")

	answer, docs, err := a.Answer(context.Background(), "unknown topic", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer == "" {
		t.Errorf("expected a non-empty answer with empty context")
	}
	if len(docs) != 0 {
		t.Errorf("expected empty context, got %v", docs)
	}
	if lm.calls != 1 {
		t.Errorf("expected exactly one completion call, got %d", lm.calls)
	}
}

func TestAnswerStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("unreachable")}
	lm := &fakeLM{response: "answer"}
	a := pipeline.NewRetrievalAnswerer(&fakeEmbedder{}, store, lm, "documents")

	_, _, err := a.Answer(context.Background(), "question", 3)
	if err == nil {
		t.Fatal("expected error when the vector store is unreachable")
	}
	if lm.calls != 0 {
		t.Errorf("expected no completion call after store failure, got %d", lm.calls)
	}
}

func TestAnswerContextInSimilarityOrder(t *testing.T) {
	store := &fakeStore{points: scoredPoints(4)}
	a := pipeline.NewRetrievalAnswerer(&fakeEmbedder{}, store, &fakeLM{response: "answer"}, "documents")

	_, docs, err := a.Answer(context.Background(), "question", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []string{"chunk 0", "chunk 1", "chunk 2", "chunk 3"} {
		if docs[i] != want {
			t.Errorf("docs[%d]: expected '%s', got '%s'", i, want, docs[i])
		}
	}
}

type fakeReranker struct {
	docs []*api.ScoredDocument
	err  error
}

func (f *fakeReranker) Rerank(ctx context.Context, req api.RerankRequest) (*api.RerankResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.RerankResponse{Query: req.Query, Documents: f.docs}, nil
}

func TestAnswerRerankReorders(t *testing.T) {
	store := &fakeStore{points: scoredPoints(2)}
	reranker := &fakeReranker{docs: []*api.ScoredDocument{
		{Content: "chunk 1", Score: 0.9},
		{Content: "chunk 0", Score: 0.8},
	}}
	a := pipeline.NewRetrievalAnswerer(
		&fakeEmbedder{}, store, &fakeLM{response: "answer"}, "documents",
		pipeline.WithReranker(reranker),
	)

	_, docs, err := a.Answer(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0] != "chunk 1" || docs[1] != "chunk 0" {
		t.Errorf("expected reranked order, got %v", docs)
	}
}

func TestAnswerRerankFailureKeepsOrder(t *testing.T) {
	store := &fakeStore{points: scoredPoints(2)}
	a := pipeline.NewRetrievalAnswerer(
		&fakeEmbedder{}, store, &fakeLM{response: "answer"}, "documents",
		pipeline.WithReranker(&fakeReranker{err: errors.New("rate limited")}),
	)

	_, docs, err := a.Answer(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0] != "chunk 0" || docs[1] != "chunk 1" {
		t.Errorf("expected similarity order after rerank failure, got %v", docs)
	}
}

type fakeRestructurer struct {
	out   string
	calls int
}

func (f *fakeRestructurer) Restructure(ctx context.Context, question string) string {
	f.calls++
	if f.out == "" {
		return question
	}
	return f.out
}

type fakeAnswerer struct {
	answer string
	docs   []string
	err    error
	calls  int
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, topK int) (string, []string, error) {
	f.calls++
	return f.answer, f.docs, f.err
}

func TestPipelineQuery(t *testing.T) {
	r := &fakeRestructurer{out: "rewritten"}
	a := &fakeAnswerer{answer: "generated", docs: []string{"c1", "c2"}}
	p := pipeline.New(r, a)

	res, err := p.Query(context.Background(), "original", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Question != "original" {
		t.Errorf("expected question 'original', got '%s'", res.Question)
	}
	if res.Restructured != "rewritten" {
		t.Errorf("expected restructured 'rewritten', got '%s'", res.Restructured)
	}
	if res.Answer != "generated" {
		t.Errorf("expected answer 'generated', got '%s'", res.Answer)
	}
	if len(res.Context) != 2 {
		t.Errorf("expected 2 context documents, got %d", len(res.Context))
	}
}

func TestPipelineRejectsEmptyQuestion(t *testing.T) {
	r := &fakeRestructurer{}
	a := &fakeAnswerer{}
	p := pipeline.New(r, a)

	for _, question := range []string{"", "   ", "\n\t"} {
		_, err := p.Query(context.Background(), question, 3)
		if !errors.Is(err, pipeline.ErrEmptyQuestion) {
			t.Errorf("question '%q': expected ErrEmptyQuestion, got %v", question, err)
		}
	}

	if r.calls != 0 || a.calls != 0 {
		t.Errorf("expected no stage calls for empty questions, got restructure=%d answer=%d", r.calls, a.calls)
	}
}

func TestPipelineAnswerError(t *testing.T) {
	p := pipeline.New(&fakeRestructurer{}, &fakeAnswerer{err: errors.New("store down")})

	_, err := p.Query(context.Background(), "question", 3)
	if err == nil {
		t.Fatal("expected error when the answer stage fails")
	}
}
