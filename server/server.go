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

// Package server exposes the question answering pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"paperag/internal/pipeline"
	"paperag/internal/transport"
	"paperag/internal/vector"
)

type ServerConfig struct {
	ListenHost string
	ListenPort int

	Collection string

	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int
}

func DefaultConfig() ServerConfig {
	return ServerConfig{
		ListenPort: 8080,
		Collection: "documents",
		RedisAddr:  "localhost:6379",
	}
}

// Enqueuer is the part of the asynq client the upload handler needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	config ServerConfig

	pipeline *pipeline.Pipeline
	store    vector.Store

	queue     Enqueuer
	transport transport.Transport
}

type ServerOption func(*Server)

// WithQueue sets the task queue used by the upload handler. Without a
// queue the upload endpoint answers 503.
func WithQueue(q Enqueuer) ServerOption {
	return func(s *Server) {
		s.queue = q
	}
}

func WithTransport(t transport.Transport) ServerOption {
	return func(s *Server) {
		s.transport = t
	}
}

func New(config ServerConfig, p *pipeline.Pipeline, store vector.Store, opts ...ServerOption) *Server {
	s := &Server{
		config:   config,
		pipeline: p,
		store:    store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully. When no queue was injected and a redis address is
// configured, the asynq client is created here.
func (s *Server) Serve(ctx context.Context) error {
	if s.queue == nil && s.config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.config.RedisAddr,
			Username: s.config.RedisUsername,
			Password: s.config.RedisPassword,
			DB:       s.config.RedisDB,
		})
		defer rdb.Close()

		client := asynq.NewClientFromRedisClient(rdb)
		defer client.Close()

		s.queue = client
		s.transport = transport.NewRedisTransport(rdb)
	}

	addr := fmt.Sprintf("%s:%d", s.config.ListenHost, s.config.ListenPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	slog.Info("server listening", "addr", addr)

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler builds the route table. Exposed separately from Serve so
// tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestMetrics)

	r.Get("/", s.handleWelcome)
	r.Get("/ui", s.handleUI)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/status/{id}", s.handleTrace)
	r.Post("/query", s.handleQuery)
	r.Post("/upload", s.handleUpload)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
