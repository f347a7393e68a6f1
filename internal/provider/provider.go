package provider

import (
	"context"
	"errors"

	"paperag/internal/api"
	"paperag/internal/config"
	"paperag/internal/provider/cohere"
	"paperag/internal/provider/gemini"
	"paperag/internal/provider/openai"
)

var (
	ErrInvalidLMType        = errors.New("no language model provider found for given type")
	ErrInvalidEmbedderType  = errors.New("no embedding provider found for given type")
	ErrInvalidDescriberType = errors.New("no image describer found for given type")
	ErrInvalidRerankerType  = errors.New("no reranker found for given type")
)

const (
	LMTypeOpenAI = iota
)

const (
	EmbedderTypeOpenAI = iota
)

const (
	DescriberTypeGemini = iota
)

const (
	RerankerTypeCohere = iota
)

type LMType int
type EmbedderType int
type DescriberType int
type RerankerType int

// LM issues a single prompt-completion call against a hosted language
// model and returns the generated text verbatim.
type LM interface {
	Generate(ctx context.Context, req api.GenerationRequest) (string, error)
}

func NewLM(t LMType, creds config.Credentials) (LM, error) {
	switch t {
	case LMTypeOpenAI:
		return openai.New(creds.OpenAIKey), nil
	default:
		return nil, ErrInvalidLMType
	}
}

type Embedder interface {
	EmbedQuery(ctx context.Context, q string) ([]float32, error)
	EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error)
	GetDimensions() uint
}

func NewEmbedder(t EmbedderType, creds config.Credentials) (Embedder, error) {
	switch t {
	case EmbedderTypeOpenAI:
		return openai.New(creds.OpenAIKey), nil
	default:
		return nil, ErrInvalidEmbedderType
	}
}

// Describer generates a natural-language description for a document
// figure using a hosted vision model.
type Describer interface {
	DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error)
}

func NewDescriber(t DescriberType, creds config.Credentials) (Describer, error) {
	switch t {
	case DescriberTypeGemini:
		return gemini.New(creds.GeminiKey), nil
	default:
		return nil, ErrInvalidDescriberType
	}
}

type Reranker interface {
	Rerank(ctx context.Context, req api.RerankRequest) (*api.RerankResponse, error)
}

func NewReranker(t RerankerType, creds config.Credentials) (Reranker, error) {
	switch t {
	case RerankerTypeCohere:
		return cohere.New(creds.CohereKey), nil
	default:
		return nil, ErrInvalidRerankerType
	}
}
