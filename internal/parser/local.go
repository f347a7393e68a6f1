package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dslipak/pdf"

	"paperag/internal/api"
)

// LocalParser extracts plain page text without any external service.
// It detects no tables or images, so documents parsed locally only ever
// produce text chunks.
type LocalParser struct{}

func NewLocalParser() *LocalParser {
	return &LocalParser{}
}

func (p LocalParser) Parse(ctx context.Context, path string, pages PageRange) (*api.DocumentContent, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf '%s': %w", path, err)
	}

	first, last := 1, f.NumPage()
	if !pages.All() {
		if pages.First > first {
			first = pages.First
		}
		if pages.Last < last {
			last = pages.Last
		}
	}

	doc := &api.DocumentContent{}
	for i := first; i <= last; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("failed to extract page text", "page", i, "err", err)
			continue
		}

		content = strings.TrimSpace(content)
		if content == "" {
			// a page with nothing extractable contributes no chunks
			continue
		}
		doc.TextBlocks = append(doc.TextBlocks, content)
	}

	return doc, nil
}
