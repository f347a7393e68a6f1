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

package chunk_test

import (
	"strings"
	"testing"

	"paperag/internal/api"
	"paperag/internal/chunk"
)

func TestBuildTextOnly(t *testing.T) {
	b := chunk.NewBuilder(0, 0)
	doc := &api.DocumentContent{
		TextBlocks: []string{
			"Paragraph one about the experiment.",
			"Paragraph two with   extra    whitespace.",
			"Paragraph three.",
		},
	}

	chunks := b.Build(doc)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	lastOrdinal := -1
	for i, c := range chunks {
		if c.SourceType != api.SourceTypeText {
			t.Errorf("chunk %d: expected source type '%s', got '%s'", i, api.SourceTypeText, c.SourceType)
		}
		if c.Ordinal <= lastOrdinal {
			t.Errorf("chunk %d: ordinal %d not strictly increasing (previous %d)", i, c.Ordinal, lastOrdinal)
		}
		lastOrdinal = c.Ordinal
	}

	if chunks[1].Content != "Paragraph two with extra whitespace." {
		t.Errorf("whitespace was not collapsed: '%s'", chunks[1].Content)
	}
}

func TestBuildUniqueIDs(t *testing.T) {
	b := chunk.NewBuilder(0, 0)
	doc := &api.DocumentContent{
		TextBlocks: []string{"First.", "Second."},
		Tables: []api.Table{
			{Header: []string{"model", "score"}, Rows: [][]string{{"a", "0.1"}}},
		},
		Images: []api.Image{
			{Path: "page_1_img_1.png", Description: "A bar chart comparing models."},
		},
	}

	chunks := b.Build(doc)
	seen := make(map[string]bool)
	for _, c := range chunks {
		if seen[c.ID] {
			t.Errorf("duplicate chunk id '%s'", c.ID)
		}
		seen[c.ID] = true
	}

	for _, want := range []string{"text_1", "text_2", "table_1", "image_1"} {
		if !seen[want] {
			t.Errorf("expected chunk id '%s' in %v", want, chunks)
		}
	}
}

func TestBuildDropsUndescribedImages(t *testing.T) {
	b := chunk.NewBuilder(0, 0)
	doc := &api.DocumentContent{
		Images: []api.Image{
			{Path: "page_1.png", Description: ""},
			{Path: "page_1_img_1.png", Description: "  "},
			{Path: "page_2_img_1.png", Description: "An architecture diagram."},
		},
	}

	chunks := b.Build(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].SourceType != api.SourceTypeImageDescription {
		t.Errorf("expected source type '%s', got '%s'", api.SourceTypeImageDescription, chunks[0].SourceType)
	}
	if chunks[0].Content != "An architecture diagram." {
		t.Errorf("unexpected content '%s'", chunks[0].Content)
	}
}

func TestBuildEmptyDocument(t *testing.T) {
	b := chunk.NewBuilder(0, 0)

	if got := b.Build(nil); len(got) != 0 {
		t.Errorf("expected no chunks for nil document, got %d", len(got))
	}
	if got := b.Build(&api.DocumentContent{}); len(got) != 0 {
		t.Errorf("expected no chunks for empty document, got %d", len(got))
	}
}

func TestBuildSplitsOversizedBlocks(t *testing.T) {
	b := chunk.NewBuilder(80, 0)
	doc := &api.DocumentContent{
		TextBlocks: []string{
			strings.Repeat("A sentence about results. ", 30),
		},
	}

	chunks := b.Build(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected the oversized block to be split, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if c.SourceType != api.SourceTypeText {
			t.Errorf("expected text chunk, got '%s'", c.SourceType)
		}
	}
}

func TestFlattenTable(t *testing.T) {
	table := api.Table{
		Header: []string{"model", "accuracy"},
		Rows: [][]string{
			{"baseline", "0.71"},
			{"ours", "0.89"},
		},
	}

	got := chunk.FlattenTable(table)
	for _, want := range []string{"model | accuracy", "baseline | 0.71", "ours | 0.89"} {
		if !strings.Contains(got, want) {
			t.Errorf("flattened table missing '%s':\n%s", want, got)
		}
	}

	if got := chunk.FlattenTable(api.Table{}); got != "" {
		t.Errorf("expected empty string for empty table, got '%s'", got)
	}
}

func TestCleanText(t *testing.T) {
	in := "results show “strong” gains – see Figure 1"
	got := chunk.CleanText(in)
	want := `results show "strong" gains - see Figure 1`
	if got != want {
		t.Errorf("expected '%s', got '%s'", want, got)
	}
}
