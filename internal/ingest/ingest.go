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

// Package ingest turns parsed documents into embedded chunks inside the
// vector store. It runs either directly from a PDF through the parser,
// or from a previously written chunk manifest.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"paperag/internal/api"
	"paperag/internal/chunk"
	"paperag/internal/parser"
	"paperag/internal/provider"
	"paperag/internal/vector"
)

var ErrNoChunks = errors.New("document produced no chunks")

// Manifest is the on-disk chunk format produced by a parse run. It lets
// the embed and upsert stage be replayed without calling the parser again.
type Manifest struct {
	Document string      `json:"document"`
	Chunks   []api.Chunk `json:"chunks"`
}

type Ingestor struct {
	parser     parser.Parser
	builder    *chunk.Builder
	embedder   provider.Embedder
	store      vector.Store
	collection string
}

func New(p parser.Parser, b *chunk.Builder, embedder provider.Embedder, store vector.Store, collection string) *Ingestor {
	return &Ingestor{
		parser:     p,
		builder:    b,
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// Run parses the document at path, builds chunks and indexes them. When
// output is non-empty the chunk manifest is also written there, so the
// document can later be re-indexed with Load without another parse.
func (in *Ingestor) Run(ctx context.Context, path string, pages parser.PageRange, output string) (*Manifest, error) {
	document := documentName(path)

	slog.Info("parsing document", "document", document, "pages", pages.String())
	content, err := in.parser.Parse(ctx, path, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document '%s': %w", path, err)
	}
	if content.Empty() {
		return nil, fmt.Errorf("document '%s': %w", document, ErrNoChunks)
	}

	chunks := in.builder.Build(content)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document '%s': %w", document, ErrNoChunks)
	}

	manifest := &Manifest{Document: document, Chunks: chunks}
	if output != "" {
		if err := writeManifest(manifest, output); err != nil {
			return nil, err
		}
		slog.Info("wrote chunk manifest", "path", output, "chunks", len(chunks))
	}

	if err := in.index(ctx, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Load reads a chunk manifest and indexes it. A collection that already
// holds at least as many points as the manifest has chunks is assumed to
// contain this document and is left untouched.
func (in *Ingestor) Load(ctx context.Context, path string) (*Manifest, error) {
	manifest, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}

	exists, err := in.store.CollectionExists(ctx, in.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection '%s': %w", in.collection, err)
	}
	if exists {
		count, err := in.store.Count(ctx, in.collection)
		if err != nil {
			return nil, fmt.Errorf("failed to count collection '%s': %w", in.collection, err)
		}
		if count >= uint64(len(manifest.Chunks)) {
			slog.Info("collection already populated, skipping ingest",
				"collection", in.collection, "points", count)
			return manifest, nil
		}
	}

	if err := in.index(ctx, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (in *Ingestor) index(ctx context.Context, manifest *Manifest) error {
	contents := make([]string, 0, len(manifest.Chunks))
	for _, c := range manifest.Chunks {
		contents = append(contents, c.Content)
	}

	slog.Info("embedding chunks", "document", manifest.Document, "chunks", len(contents))
	embeddings, err := in.embedder.EmbedDocuments(ctx, []*api.EmbedDocumentRequest{
		{Title: manifest.Document, Chunks: contents},
	})
	if err != nil {
		return fmt.Errorf("failed to embed document '%s': %w", manifest.Document, err)
	}
	if len(embeddings) != 1 {
		return fmt.Errorf("expected a single document embedding, got %d", len(embeddings))
	}

	if err := in.ensureCollection(ctx); err != nil {
		return err
	}

	points, err := vector.CreatePoints(manifest.Document, manifest.Chunks, embeddings[0].Values)
	if err != nil {
		return fmt.Errorf("failed to create points for '%s': %w", manifest.Document, err)
	}

	if err := in.store.Upsert(ctx, in.collection, points); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	slog.Info("indexed document", "document", manifest.Document,
		"collection", in.collection, "points", len(points))
	return nil
}

func (in *Ingestor) ensureCollection(ctx context.Context) error {
	exists, err := in.store.CollectionExists(ctx, in.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection '%s': %w", in.collection, err)
	}
	if exists {
		return nil
	}

	coll := vector.Collection{
		Name:       in.collection,
		Dimensions: in.embedder.GetDimensions(),
	}
	if err := in.store.CreateCollection(ctx, coll); err != nil {
		return fmt.Errorf("failed to create collection '%s': %w", in.collection, err)
	}
	slog.Info("created collection", "collection", in.collection, "dimensions", coll.Dimensions)
	return nil
}

func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest '%s': %w", path, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest '%s': %w", path, err)
	}
	if manifest.Document == "" || len(manifest.Chunks) == 0 {
		return nil, fmt.Errorf("manifest '%s' is missing document or chunks", path)
	}
	return &manifest, nil
}

func writeManifest(manifest *Manifest, path string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest '%s': %w", path, err)
	}
	return nil
}

func documentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
