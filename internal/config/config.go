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

// Package config holds process-wide credential handling. Credentials are
// read from the environment exactly once at startup and passed to each
// component at construction; component logic never touches the environment.
package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingCredential = errors.New("missing required credential")

const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvCohereKey = "COHERE_API_KEY"
	EnvQdrantKey = "QDRANT_API_KEY"
	EnvParseKey  = "PARSE_API_KEY"
)

type Credentials struct {
	OpenAIKey string
	GeminiKey string
	CohereKey string
	QdrantKey string
	ParseKey  string
}

func LoadCredentials() Credentials {
	return Credentials{
		OpenAIKey: os.Getenv(EnvOpenAIKey),
		GeminiKey: os.Getenv(EnvGeminiKey),
		CohereKey: os.Getenv(EnvCohereKey),
		QdrantKey: os.Getenv(EnvQdrantKey),
		ParseKey:  os.Getenv(EnvParseKey),
	}
}

// Require fails when any of the named environment variables resolved to an
// empty value. Commands call this with the set of credentials they actually
// need, so absence surfaces at startup rather than at first request.
func (c Credentials) Require(names ...string) error {
	vals := map[string]string{
		EnvOpenAIKey: c.OpenAIKey,
		EnvGeminiKey: c.GeminiKey,
		EnvCohereKey: c.CohereKey,
		EnvQdrantKey: c.QdrantKey,
		EnvParseKey:  c.ParseKey,
	}

	for _, name := range names {
		v, ok := vals[name]
		if !ok {
			return fmt.Errorf("unknown credential '%s'", name)
		}
		if v == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredential, name)
		}
	}
	return nil
}
