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

// Package chunk converts processor output into the flat ordered chunk
// sequence that gets embedded: one chunk per paragraph, table or image
// description, tagged with a source type and a stable identifier.
package chunk

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"paperag/internal/api"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

type Builder struct {
	splitter  textsplitter.RecursiveCharacter
	chunkSize int
}

func NewBuilder(chunkSize, chunkOverlap int) *Builder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}

	return &Builder{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		chunkSize: chunkSize,
	}
}

// Build produces the chunk sequence for a document. Ordinals strictly
// increase in document order: text blocks first, then tables, then image
// descriptions. Images without a usable description are dropped.
func (b *Builder) Build(doc *api.DocumentContent) []api.Chunk {
	chunks := make([]api.Chunk, 0)
	if doc == nil {
		return chunks
	}

	ordinal := 0
	textCount := 0
	for _, block := range doc.TextBlocks {
		cleaned := CleanText(block)
		if cleaned == "" {
			continue
		}

		for _, part := range b.split(cleaned) {
			textCount++
			chunks = append(chunks, api.Chunk{
				ID:         fmt.Sprintf("text_%d", textCount),
				SourceType: api.SourceTypeText,
				Ordinal:    ordinal,
				Content:    part,
			})
			ordinal++
		}
	}

	tableCount := 0
	for _, table := range doc.Tables {
		flattened := FlattenTable(table)
		if flattened == "" {
			continue
		}

		tableCount++
		chunks = append(chunks, api.Chunk{
			ID:         fmt.Sprintf("table_%d", tableCount),
			SourceType: api.SourceTypeTable,
			Ordinal:    ordinal,
			Content:    flattened,
		})
		ordinal++
	}

	imageCount := 0
	for _, img := range doc.Images {
		desc := strings.TrimSpace(img.Description)
		if desc == "" {
			continue
		}

		imageCount++
		chunks = append(chunks, api.Chunk{
			ID:         fmt.Sprintf("image_%d", imageCount),
			SourceType: api.SourceTypeImageDescription,
			Ordinal:    ordinal,
			Content:    desc,
		})
		ordinal++
	}

	return chunks
}

func (b *Builder) split(text string) []string {
	if len(text) <= b.chunkSize {
		return []string{text}
	}

	parts, err := b.splitter.SplitText(text)
	if err != nil {
		slog.Warn("failed to split oversized text block, keeping it whole", "err", err)
		return []string{text}
	}
	return parts
}

var cleanReplacer = strings.NewReplacer(
	"–", "-",
	"—", "--",
	"’", "'",
	"“", `"`,
	"”", `"`,
	" ", " ",
)

// CleanText normalizes parser output for embedding: collapses runs of
// whitespace and replaces typographic punctuation that tends to survive
// PDF extraction.
func CleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	return cleanReplacer.Replace(cleaned)
}

// FlattenTable serializes a table row by row into plain text, since the
// embedding model consumes text only.
func FlattenTable(table api.Table) string {
	if len(table.Header) == 0 && len(table.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Table:\n")

	if len(table.Header) > 0 {
		header := strings.Join(table.Header, " | ")
		sb.WriteString(header)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", len(header)))
		sb.WriteString("\n")
	}

	for _, row := range table.Rows {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
