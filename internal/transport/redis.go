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

package transport

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisTransport struct {
	rdb *redis.Client
}

func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	return &RedisTransport{
		rdb: rdb,
	}
}

func (t *RedisTransport) SetTrace(ctx context.Context, trace *IngestTrace) error {
	if len(trace.ID) == 0 {
		return fmt.Errorf("invalid trace ID")
	}

	key := traceKey(trace.ID)
	if err := t.rdb.HSet(ctx, key, trace).Err(); err != nil {
		return fmt.Errorf("failed to write trace '%s': %w", trace.ID, err)
	}
	if err := t.rdb.Expire(ctx, key, TraceExpiry).Err(); err != nil {
		return fmt.Errorf("failed to expire trace '%s': %w", trace.ID, err)
	}
	return nil
}

func (t *RedisTransport) GetTrace(ctx context.Context, traceId string) (*IngestTrace, error) {
	cmd := t.rdb.HGetAll(ctx, traceKey(traceId))
	if cmd.Err() != nil {
		return nil, fmt.Errorf("failed to read trace '%s': %w", traceId, cmd.Err())
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrTraceNotFound
	}

	var trace IngestTrace
	if err := cmd.Scan(&trace); err != nil {
		return nil, fmt.Errorf("failed to deserialize trace '%s': %w", traceId, err)
	}
	return &trace, nil
}

func traceKey(id string) string {
	return "paperag:trace:" + id
}
