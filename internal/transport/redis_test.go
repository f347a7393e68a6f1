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

package transport_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"paperag/internal/transport"
)

func newTestTransport(t *testing.T) *transport.RedisTransport {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return transport.NewRedisTransport(rdb)
}

func TestSetAndGetTrace(t *testing.T) {
	tr := newTestTransport(t)

	want := &transport.IngestTrace{
		ID:        "task-1",
		Status:    transport.TraceStatusRunning,
		Path:      "/chunks/transformer.json",
		StartedAt: time.Now().UnixNano(),
	}
	if err := tr.SetTrace(context.Background(), want); err != nil {
		t.Fatalf("set trace: %v", err)
	}

	got, err := tr.GetTrace(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("get trace: %v", err)
	}
	if got.ID != want.ID || got.Status != want.Status || got.Path != want.Path {
		t.Errorf("expected trace %+v, got %+v", want, got)
	}
	if got.StartedAt != want.StartedAt {
		t.Errorf("expected started_at %d, got %d", want.StartedAt, got.StartedAt)
	}
}

func TestSetTraceOverwrites(t *testing.T) {
	tr := newTestTransport(t)

	trace := &transport.IngestTrace{ID: "task-1", Status: transport.TraceStatusPending}
	if err := tr.SetTrace(context.Background(), trace); err != nil {
		t.Fatalf("set trace: %v", err)
	}

	trace.Status = transport.TraceStatusCompleted
	trace.Document = "transformer"
	if err := tr.SetTrace(context.Background(), trace); err != nil {
		t.Fatalf("update trace: %v", err)
	}

	got, err := tr.GetTrace(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("get trace: %v", err)
	}
	if got.Status != transport.TraceStatusCompleted {
		t.Errorf("expected status completed, got %d", got.Status)
	}
	if got.Document != "transformer" {
		t.Errorf("expected document 'transformer', got '%s'", got.Document)
	}
}

func TestGetTraceMissing(t *testing.T) {
	tr := newTestTransport(t)

	_, err := tr.GetTrace(context.Background(), "nope")
	if !errors.Is(err, transport.ErrTraceNotFound) {
		t.Errorf("expected ErrTraceNotFound, got %v", err)
	}
}

func TestSetTraceRequiresID(t *testing.T) {
	tr := newTestTransport(t)

	if err := tr.SetTrace(context.Background(), &transport.IngestTrace{}); err == nil {
		t.Error("expected error for trace without ID")
	}
}
