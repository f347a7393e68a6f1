package cohere

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"paperag/internal/api"
)

type CohereProvider struct {
	client *cohereclient.Client
}

func New(apiKey string) *CohereProvider {
	c := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(
			&http.Client{
				Timeout: 60 * time.Second,
			},
		),
	)
	return &CohereProvider{
		client: c,
	}
}

func (p CohereProvider) Rerank(ctx context.Context, req api.RerankRequest) (*api.RerankResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("rerank request failed: missing parameter 'query' in request")
	}

	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("rerank request failed: missing parameter 'documents' in request")
	}

	returnDocuments := true
	coReq := &cohere.V2RerankRequest{
		Query:           req.Query,
		Documents:       req.Documents,
		Model:           "rerank-v3.5",
		ReturnDocuments: &returnDocuments,
	}

	if req.ModelName != "" {
		coReq.Model = req.ModelName
	}

	if req.Limit != 0 {
		coReq.TopN = &req.Limit
	}

	resp, err := p.client.V2.Rerank(ctx, coReq)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}

	scoredDocs := make([]*api.ScoredDocument, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.RelevanceScore >= api.RerankScoreThreshold {
			scoredDocs = append(scoredDocs, &api.ScoredDocument{
				Content: result.Document.Text,
				Score:   result.RelevanceScore,
			})
		}
	}

	return &api.RerankResponse{
		Query:     req.Query,
		Documents: scoredDocs,
		ModelName: coReq.Model,
	}, nil
}
