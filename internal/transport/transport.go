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

// Package transport tracks the state of queued ingest jobs so the API
// can report on uploads after the 202 response.
package transport

import (
	"context"
	"errors"
	"time"
)

var (
	TraceExpiry = time.Hour * 24

	ErrTraceNotFound = errors.New("trace not found")
)

type Transport interface {
	SetTrace(ctx context.Context, trace *IngestTrace) error
	GetTrace(ctx context.Context, traceId string) (*IngestTrace, error)
}

// IngestTrace records the lifecycle of a single queued ingest job.
type IngestTrace struct {
	ID          string `redis:"id"`
	Status      int    `redis:"status"`
	Path        string `redis:"path"`
	Document    string `redis:"document"`
	StartedAt   int64  `redis:"started_at"`
	CompletedAt int64  `redis:"completed_at"`
	Error       string `redis:"error"`
}

type TraceStatus int

const (
	TraceStatusUnspecified = iota
	TraceStatusPending
	TraceStatusRunning
	TraceStatusCompleted
	TraceStatusFailed
)

func (s TraceStatus) String() string {
	switch s {
	case TraceStatusPending:
		return "pending"
	case TraceStatusRunning:
		return "running"
	case TraceStatusCompleted:
		return "completed"
	case TraceStatusFailed:
		return "failed"
	default:
		return "unspecified"
	}
}
