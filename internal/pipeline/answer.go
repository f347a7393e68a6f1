package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"paperag/internal/api"
	"paperag/internal/provider"
	"paperag/internal/vector"
)

const (
	DefaultTopK = 3
	MaxTopK     = 10

	answerMaxTokens = 500
)

const promptAnswerWithContext = `You are an AI assistant that answers questions about a research paper. Answer based on the provided context. If the context does not contain the information needed to answer, say that the document does not cover it.

CONTEXT:
{{.Context}}
`

// RetrievalAnswerer fetches the top-K nearest chunks for the question
// embedding, concatenates them as grounding context and issues one
// completion call. Zero retrieved chunks is not an error: the completion
// is still issued with empty context so the model can state that it has
// no information.
type RetrievalAnswerer struct {
	embedder provider.Embedder
	store    vector.Store
	lm       provider.LM

	// reranker is optional; nil disables post-retrieval reranking.
	reranker provider.Reranker

	collection string
	maxTopK    int

	promptAnswer *template.Template
}

type AnswererOption func(*RetrievalAnswerer)

func NewRetrievalAnswerer(embedder provider.Embedder, store vector.Store, lm provider.LM, collection string, opts ...AnswererOption) *RetrievalAnswerer {
	a := &RetrievalAnswerer{
		embedder:     embedder,
		store:        store,
		lm:           lm,
		collection:   collection,
		maxTopK:      MaxTopK,
		promptAnswer: template.Must(template.New("promptAnswerWithContext").Parse(promptAnswerWithContext)),
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithReranker(reranker provider.Reranker) AnswererOption {
	return func(a *RetrievalAnswerer) {
		a.reranker = reranker
	}
}

func WithMaxTopK(maxTopK int) AnswererOption {
	return func(a *RetrievalAnswerer) {
		if maxTopK > 0 {
			a.maxTopK = maxTopK
		}
	}
}

func (a *RetrievalAnswerer) Answer(ctx context.Context, question string, topK int) (string, []string, error) {
	topK = a.clampTopK(topK)

	vec, err := a.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed question: %w", err)
	}

	queryParams := vector.NewQueryParams(
		a.collection,
		vec,
		vector.WithPayload(true),
		vector.WithLimit(uint(topK)),
	)

	points, err := a.store.Query(ctx, queryParams)
	if err != nil {
		return "", nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	docs := make([]string, 0, len(points))
	for _, p := range points {
		t, ok := p.Payload["text"]
		if !ok {
			slog.Warn("malformed retrieved point: missing 'text' field in payload", "id", p.ID)
			continue
		}
		docs = append(docs, t)
	}

	docs = a.rerank(ctx, question, docs, topK)

	answer, err := a.generate(ctx, question, docs)
	if err != nil {
		return "", nil, err
	}

	return answer, docs, nil
}

func (a *RetrievalAnswerer) clampTopK(topK int) int {
	if topK < 1 {
		return DefaultTopK
	}
	if topK > a.maxTopK {
		return a.maxTopK
	}
	return topK
}

// rerank reorders the retrieved documents by relevance when a reranker
// is configured. Rerank failure keeps the similarity order; like the
// rewrite stage it degrades instead of failing the request.
func (a *RetrievalAnswerer) rerank(ctx context.Context, question string, docs []string, topK int) []string {
	if a.reranker == nil || len(docs) == 0 {
		return docs
	}

	resp, err := a.reranker.Rerank(ctx, api.RerankRequest{
		Query:     question,
		Documents: docs,
		Limit:     topK,
	})
	if err != nil {
		slog.Warn("rerank failed, keeping similarity order", "err", err)
		return docs
	}

	reranked := make([]string, 0, len(resp.Documents))
	for _, doc := range resp.Documents {
		reranked = append(reranked, doc.Content)
	}

	if len(reranked) == 0 {
		// everything scored below the threshold; similarity order is
		// still better context than nothing
		return docs
	}
	return reranked
}

func (a *RetrievalAnswerer) generate(ctx context.Context, question string, docs []string) (string, error) {
	type templatePayload struct {
		Context string
	}
	tp := templatePayload{Context: strings.Join(docs, "\n\n")}

	var buf bytes.Buffer
	if err := a.promptAnswer.Execute(&buf, tp); err != nil {
		return "", fmt.Errorf("failed to parse answer prompt template: %w", err)
	}

	answer, err := a.lm.Generate(ctx, api.GenerationRequest{
		Prompt:       question,
		SystemPrompt: buf.String(),
		Temperature:  0.1,
		MaxTokens:    answerMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return answer, nil
}
