package api

type GenerationRequest struct {
	// Required
	Prompt string

	// Optional params
	ModelName    string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}
