package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"text/template"

	"paperag/internal/api"
	"paperag/internal/provider"
)

const promptRewrite = `You are an expert in query reformulation for information retrieval. Your task is to rewrite the following user question to improve its clarity, specificity, and semantic relevance for vector similarity search over a research paper. Consider potential user intent, related concepts, and synonyms, and keep explicit references such as figure or table numbers intact. Generate only one rewrite. Answer only with the rewritten question, no additional preamble or suffix.

User Question:
{{.Question}}

Rewritten Question:
`

// LMRestructurer rewrites the question with a single completion call.
// Any failure falls back to the original question; restructuring never
// blocks the pipeline and is never retried.
type LMRestructurer struct {
	lm            provider.LM
	promptRewrite *template.Template
}

func NewLMRestructurer(lm provider.LM) *LMRestructurer {
	return &LMRestructurer{
		lm:            lm,
		promptRewrite: template.Must(template.New("promptRewrite").Parse(promptRewrite)),
	}
}

func (r *LMRestructurer) Restructure(ctx context.Context, question string) string {
	type templatePayload struct {
		Question string
	}
	tp := templatePayload{Question: question}

	var buf bytes.Buffer
	if err := r.promptRewrite.Execute(&buf, tp); err != nil {
		slog.Warn("failed to parse rewrite prompt template, keeping original question", "err", err)
		return question
	}

	req := api.GenerationRequest{
		Prompt:      buf.String(),
		Temperature: 0.2,
	}
	resp, err := r.lm.Generate(ctx, req)
	if err != nil {
		slog.Warn("question rewrite failed, keeping original question", "err", err)
		return question
	}

	resp = strings.TrimSpace(resp)
	if resp == "" {
		slog.Warn("question rewrite returned empty response, keeping original question")
		return question
	}

	return resp
}
