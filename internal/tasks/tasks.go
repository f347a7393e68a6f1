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

package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"paperag/internal/ingest"
	"paperag/internal/transport"
)

const (
	TypeIngest = "paperag:ingest"
)

type ingestTaskPayload struct {
	Path string
}

func NewIngestTask(path string) (*asynq.Task, error) {
	if path == "" {
		return nil, fmt.Errorf("ingest task requires a manifest path")
	}

	payload, err := json.Marshal(ingestTaskPayload{Path: path})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeIngest, payload), nil
}

type IngestTaskHandler struct {
	ingestor  *ingest.Ingestor
	transport transport.Transport
}

func NewIngestTaskHandler(ingestor *ingest.Ingestor, tr transport.Transport) *IngestTaskHandler {
	return &IngestTaskHandler{
		ingestor:  ingestor,
		transport: tr,
	}
}

func (h *IngestTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ingestTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v (%w)", err, asynq.SkipRetry)
	}
	id := t.ResultWriter().TaskID()

	slog.Info("received ingest task", "id", id, "path", p.Path)

	trace := &transport.IngestTrace{
		ID:        id,
		Status:    transport.TraceStatusRunning,
		Path:      p.Path,
		StartedAt: time.Now().UnixNano(),
	}
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", id, "err", err)
	}

	manifest, err := h.ingestor.Load(ctx, p.Path)
	if err != nil {
		trace.Status = transport.TraceStatusFailed
		trace.CompletedAt = time.Now().UnixNano()
		trace.Error = err.Error()
		if terr := h.transport.SetTrace(ctx, trace); terr != nil {
			slog.Error("failed to set trace", "id", id, "err", terr)
		}
		return fmt.Errorf("ingest task failed: %w", err)
	}

	trace.Status = transport.TraceStatusCompleted
	trace.CompletedAt = time.Now().UnixNano()
	trace.Document = manifest.Document
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", id, "err", err)
	}

	slog.Info("ingest task finished", "id", id, "document", manifest.Document)
	return nil
}
