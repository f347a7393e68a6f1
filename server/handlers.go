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

package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"paperag/internal/pipeline"
	"paperag/internal/tasks"
	"paperag/internal/transport"
)

//go:embed static/index.html
var uiPage []byte

type queryRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k"`
}

type queryResponse struct {
	Question             string   `json:"question"`
	RestructuredQuestion string   `json:"restructured_question"`
	Answer               string   `json:"answer"`
	Context              []string `json:"context"`
}

type uploadRequest struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "paperag API is running"})
}

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(uiPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context(), s.config.Collection)
	if err != nil {
		slog.Error("failed to count collection", "collection", s.config.Collection, "err", err)
		writeError(w, http.StatusBadGateway, "vector store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"collection": s.config.Collection,
		"chunks":     count,
	})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	if s.transport == nil {
		writeError(w, http.StatusNotFound, "trace not found")
		return
	}

	id := chi.URLParam(r, "id")
	trace, err := s.transport.GetTrace(r.Context(), id)
	if errors.Is(err, transport.ErrTraceNotFound) {
		writeError(w, http.StatusNotFound, "trace not found")
		return
	}
	if err != nil {
		slog.Error("failed to get trace", "id", id, "err", err)
		writeError(w, http.StatusBadGateway, "trace store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       trace.ID,
		"status":   transport.TraceStatus(trace.Status).String(),
		"path":     trace.Path,
		"document": trace.Document,
		"error":    trace.Error,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}

	topK := pipeline.DefaultTopK
	if req.TopK != nil {
		if *req.TopK <= 0 {
			writeError(w, http.StatusBadRequest, "top_k must be positive")
			return
		}
		topK = *req.TopK
	}

	start := time.Now()
	result, err := s.pipeline.Query(r.Context(), req.Question, topK)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "question must not be empty")
			return
		}
		slog.Error("query failed", "err", err)
		writeError(w, http.StatusBadGateway, "failed to answer question")
		return
	}
	observeQueryDuration(time.Since(start))

	ctxDocs := result.Context
	if ctxDocs == nil {
		ctxDocs = []string{}
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Question:             result.Question,
		RestructuredQuestion: result.Restructured,
		Answer:               result.Answer,
		Context:              ctxDocs,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, http.StatusBadRequest, "path must not be empty")
		return
	}

	if s.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "ingest queue not configured")
		return
	}

	t, err := tasks.NewIngestTask(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.queue.Enqueue(t)
	if err != nil {
		slog.Error("failed to enqueue ingest task", "err", err)
		writeError(w, http.StatusServiceUnavailable, "ingest queue unavailable")
		return
	}
	slog.Info("enqueued ingest task", "id", info.ID, "path", req.Path)

	if s.transport != nil {
		trace := &transport.IngestTrace{
			ID:        info.ID,
			Status:    transport.TraceStatusPending,
			Path:      req.Path,
			StartedAt: time.Now().UnixNano(),
		}
		if err := s.transport.SetTrace(r.Context(), trace); err != nil {
			slog.Error("failed to set trace", "id", info.ID, "err", err)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID})
}
