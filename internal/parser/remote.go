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

package parser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"paperag/internal/api"
	"paperag/internal/http"
	"paperag/internal/provider"
)

const defaultDescribeConcurrency = 4

type remotePage struct {
	Index      int           `json:"index"`
	TextBlocks []string      `json:"text_blocks"`
	Tables     []remoteTable `json:"tables"`
	Images     []remoteImage `json:"images"`
}

type remoteTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

type remoteImage struct {
	Path string `json:"path"`
	Data string `json:"data"`

	// PageRender marks full-page raster artifacts the service
	// distinguishes from genuine embedded figures.
	PageRender bool `json:"page_render"`
}

type parseResponse struct {
	Pages []remotePage `json:"pages"`
	Model string       `json:"model"`
}

// RemoteParser delegates parsing and table/figure extraction to a hosted
// document processing service and annotates every genuine figure with a
// model-generated description.
type RemoteParser struct {
	client    http.Client
	describer provider.Describer

	describeConcurrency int
}

func NewRemoteParser(conf ParserConfig, apiKey string, describer provider.Describer) *RemoteParser {
	c := http.NewClient(
		conf.Endpoint,
		http.WithMaxRetries(3),
		http.WithApiKey(apiKey),
	)

	concurrency := conf.DescribeConcurrency
	if concurrency <= 0 {
		concurrency = defaultDescribeConcurrency
	}

	return &RemoteParser{
		client:              c,
		describer:           describer,
		describeConcurrency: concurrency,
	}
}

func (p RemoteParser) Parse(ctx context.Context, path string, pages PageRange) (*api.DocumentContent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document '%s': %w", path, err)
	}

	requestData := map[string]any{
		"document": map[string]any{
			"type":         "document_url",
			"document_url": fmt.Sprintf("data:application/pdf;base64,%s", base64.StdEncoding.EncodeToString(raw)),
		},
		"pages": pages.String(),
	}

	resp, err := p.client.Post(ctx, "/v1/parse", requestData)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}

	var parsed parseResponse
	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		return nil, err
	}

	doc := &api.DocumentContent{}
	images := make([]remoteImage, 0)
	for _, page := range parsed.Pages {
		doc.TextBlocks = append(doc.TextBlocks, page.TextBlocks...)
		for _, t := range page.Tables {
			doc.Tables = append(doc.Tables, api.Table{
				Header: t.Header,
				Rows:   t.Rows,
			})
		}
		for _, img := range page.Images {
			if img.PageRender {
				continue
			}
			images = append(images, img)
		}
	}

	doc.Images, err = p.describeImages(ctx, images)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (p RemoteParser) describeImages(ctx context.Context, images []remoteImage) ([]api.Image, error) {
	described := make([]api.Image, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.describeConcurrency)

	for i, img := range images {
		described[i] = api.Image{Path: img.Path}

		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil || len(data) == 0 {
			slog.Warn("skipping image with unreadable payload", "path", img.Path)
			continue
		}

		g.Go(func() error {
			desc, err := p.describer.DescribeImage(gctx, "image/png", data)
			if err != nil {
				// an undescribed figure is dropped later, not fatal
				slog.Warn("failed to describe image", "path", img.Path, "err", err)
				return nil
			}
			described[i].Description = desc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return described, nil
}
