package gemini

import (
	"context"

	"google.golang.org/genai"
)

const describePrompt = `Analyze this image from a research paper and provide a detailed description including:
1. What type of content is shown (figure, table, diagram, chart, etc.)
2. The main subject or topic
3. Key elements and their relationships
4. Any text, numbers, or labels visible
5. The purpose or significance of this image in the context of a research paper

Provide a comprehensive but concise description suitable for document understanding.`

type GeminiProvider struct {
	client *genai.Client
}

func New(apiKey string) *GeminiProvider {
	// New methods might need error return
	// to handle error returns from client libs like genai
	c, _ := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	return &GeminiProvider{
		client: c,
	}
}

func (p GeminiProvider) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(describePrompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	temperature := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}

	resp, err := p.client.Models.GenerateContent(ctx, "gemini-2.0-flash", contents, config)
	if err != nil {
		return "", err
	}

	return resp.Text(), nil
}
