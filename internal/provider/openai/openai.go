package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"paperag/internal/api"
)

const embedMaxInputLength = 2048

type OpenAIProvider struct {
	client     *openai.Client
	vectorDims int
}

func New(apiKey string) *OpenAIProvider {
	c := openai.NewClient(apiKey)
	return &OpenAIProvider{
		client:     c,
		vectorDims: 1536,
	}
}

func (p OpenAIProvider) Generate(ctx context.Context, req api.GenerationRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	openaiReq := openai.ChatCompletionRequest{
		Model:       openai.GPT4oMini,
		Temperature: req.Temperature,
		Messages:    messages,
	}

	if req.ModelName != "" {
		openaiReq.Model = req.ModelName
	}

	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = req.MaxTokens
	}

	res, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return "", err
	}

	if len(res.Choices) == 0 {
		return "", fmt.Errorf("completion response contains no choices")
	}

	return res.Choices[0].Message.Content, nil
}

func (p OpenAIProvider) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	openaiReq := &openai.EmbeddingRequestStrings{
		Input:          []string{q},
		Model:          "text-embedding-3-small",
		EncodingFormat: "float",
		Dimensions:     p.vectorDims,
	}

	res, err := p.client.CreateEmbeddings(ctx, openaiReq)
	if err != nil {
		return nil, err
	}

	return res.Data[0].Embedding, nil
}

func (p OpenAIProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	docEmbeddings := make([]*api.DocumentEmbedding, 0, len(docs))

	for _, doc := range docs {
		if len(doc.Chunks) > embedMaxInputLength {
			return nil, fmt.Errorf("length of chunks exceeds limit: accepts '%d', received '%d'", embedMaxInputLength, len(doc.Chunks))
		}

		openaiReq := &openai.EmbeddingRequestStrings{
			Input:          doc.Chunks,
			Model:          "text-embedding-3-small",
			EncodingFormat: "float",
			Dimensions:     p.vectorDims,
		}

		res, err := p.client.CreateEmbeddings(ctx, openaiReq)
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings for document '%s': %w", doc.Title, err)
		}

		vals := make([][]float32, 0, len(res.Data))
		for _, e := range res.Data {
			vals = append(vals, e.Embedding)
		}

		docEmbeddings = append(docEmbeddings, &api.DocumentEmbedding{
			Title:  doc.Title,
			Chunks: doc.Chunks,
			Values: vals,
		})
	}

	return docEmbeddings, nil
}

func (p OpenAIProvider) GetDimensions() uint {
	return uint(p.vectorDims)
}
