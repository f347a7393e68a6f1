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

// Package pipeline sequences the query-time stages: question rewrite,
// nearest-neighbour retrieval and answer generation. Each stage is an
// interface so it can be substituted by a test double.
package pipeline

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyQuestion = errors.New("question must not be empty")

// Restructurer rewrites a raw user question into a retrieval-friendly
// form. Implementations must degrade to returning the question unchanged
// rather than failing.
type Restructurer interface {
	Restructure(ctx context.Context, question string) string
}

// Answerer retrieves context for a question and generates the answer.
type Answerer interface {
	Answer(ctx context.Context, question string, topK int) (string, []string, error)
}

type Result struct {
	Question     string
	Restructured string
	Answer       string
	Context      []string
}

type Pipeline struct {
	restructurer Restructurer
	answerer     Answerer
}

func New(restructurer Restructurer, answerer Answerer) *Pipeline {
	return &Pipeline{
		restructurer: restructurer,
		answerer:     answerer,
	}
}

func (p *Pipeline) Query(ctx context.Context, question string, topK int) (*Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	restructured := p.restructurer.Restructure(ctx, question)

	answer, docs, err := p.answerer.Answer(ctx, restructured, topK)
	if err != nil {
		return nil, err
	}

	return &Result{
		Question:     question,
		Restructured: restructured,
		Answer:       answer,
		Context:      docs,
	}, nil
}
