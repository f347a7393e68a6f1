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

package parser_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"paperag/internal/parser"
)

type fakeDescriber struct {
	err   error
	calls int
}

func (f *fakeDescriber) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("description of %d bytes", len(data)), nil
}

func parseServiceResponse() string {
	imgData := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	return `{
		"model": "parse-v1",
		"pages": [
			{
				"index": 0,
				"text_blocks": ["Abstract text.", "Introduction text."],
				"tables": [{"header": ["model", "bleu"], "rows": [["base", "27.3"]]}],
				"images": [
					{"path": "fig_img_1.png", "data": "` + imgData + `"},
					{"path": "page_0.png", "data": "` + imgData + `", "page_render": true}
				]
			},
			{
				"index": 1,
				"text_blocks": ["Method text."],
				"tables": [],
				"images": []
			}
		]
	}`
}

func newParseService(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/parse" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, parseServiceResponse())
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeTestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("write test document: %v", err)
	}
	return path
}

func TestRemoteParse(t *testing.T) {
	ts := newParseService(t)
	describer := &fakeDescriber{}
	p := parser.NewRemoteParser(parser.ParserConfig{Endpoint: ts.URL}, "test-key", describer)

	doc, err := p.Parse(context.Background(), writeTestDocument(t), parser.PageRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.TextBlocks) != 3 {
		t.Errorf("expected 3 text blocks, got %d", len(doc.TextBlocks))
	}
	if len(doc.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(doc.Tables))
	}
	if doc.Tables[0].Header[0] != "model" {
		t.Errorf("unexpected table header %v", doc.Tables[0].Header)
	}

	if len(doc.Images) != 1 {
		t.Fatalf("expected 1 image after dropping page renders, got %d", len(doc.Images))
	}
	if doc.Images[0].Path != "fig_img_1.png" {
		t.Errorf("expected image path 'fig_img_1.png', got '%s'", doc.Images[0].Path)
	}
	if doc.Images[0].Description == "" {
		t.Error("expected a non-empty image description")
	}
	if describer.calls != 1 {
		t.Errorf("expected 1 describe call, got %d", describer.calls)
	}
}

func TestRemoteParseDescribeFailure(t *testing.T) {
	ts := newParseService(t)
	describer := &fakeDescriber{err: errors.New("quota exceeded")}
	p := parser.NewRemoteParser(parser.ParserConfig{Endpoint: ts.URL}, "test-key", describer)

	doc, err := p.Parse(context.Background(), writeTestDocument(t), parser.PageRange{})
	if err != nil {
		t.Fatalf("expected describe failures to be non-fatal, got %v", err)
	}

	if len(doc.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(doc.Images))
	}
	if doc.Images[0].Description != "" {
		t.Errorf("expected empty description after describe failure, got '%s'", doc.Images[0].Description)
	}
}

func TestRemoteParseMissingDocument(t *testing.T) {
	ts := newParseService(t)
	p := parser.NewRemoteParser(parser.ParserConfig{Endpoint: ts.URL}, "test-key", &fakeDescriber{})

	_, err := p.Parse(context.Background(), "/does/not/exist.pdf", parser.PageRange{})
	if err == nil {
		t.Error("expected error for missing document")
	}
}

func TestPageRangeString(t *testing.T) {
	if got := (parser.PageRange{}).String(); got != "all" {
		t.Errorf("expected 'all', got '%s'", got)
	}
	if got := (parser.PageRange{First: 3, Last: 12}).String(); got != "3-12" {
		t.Errorf("expected '3-12', got '%s'", got)
	}
}
