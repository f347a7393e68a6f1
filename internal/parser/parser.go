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

// Package parser wraps external document processors. The processor's
// internal parsing and figure-detection algorithms are opaque; this
// package only reshapes their output into api.DocumentContent.
package parser

import (
	"context"
	"errors"
	"fmt"

	"paperag/internal/api"
	"paperag/internal/config"
	"paperag/internal/provider"
)

var (
	ErrInvalidParserType       = errors.New("no parser found for given type")
	ErrFailedParserInitialize  = errors.New("failed to initialise parser")
)

const (
	ParserTypeRemote = iota
	ParserTypeLocal
)

var parserTypeMap = map[string]ParserType{
	"remote": ParserTypeRemote,
	"local":  ParserTypeLocal,
}

type ParserType int

// PageRange selects the pages to process, 1-based and inclusive.
// The zero value selects the whole document.
type PageRange struct {
	First int
	Last  int
}

func (r PageRange) All() bool {
	return r.First == 0 && r.Last == 0
}

func (r PageRange) String() string {
	if r.All() {
		return "all"
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

type Parser interface {
	Parse(ctx context.Context, path string, pages PageRange) (*api.DocumentContent, error)
}

type ParserConfig struct {
	Endpoint string

	// DescribeConcurrency bounds parallel image description calls.
	DescribeConcurrency int
}

func NewParser(parserName string, conf ParserConfig, creds config.Credentials) (Parser, error) {
	parserType, ok := parserTypeMap[parserName]
	if !ok {
		return nil, ErrInvalidParserType
	}

	switch parserType {
	case ParserTypeRemote:
		describer, err := provider.NewDescriber(provider.DescriberTypeGemini, creds)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedParserInitialize, err)
		}
		return NewRemoteParser(conf, creds.ParseKey, describer), nil

	case ParserTypeLocal:
		return NewLocalParser(), nil

	default:
		return nil, ErrInvalidParserType
	}
}
