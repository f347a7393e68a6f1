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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"paperag/internal/chunk"
	"paperag/internal/config"
	"paperag/internal/ingest"
	"paperag/internal/parser"
	"paperag/internal/pipeline"
	"paperag/internal/provider"
	"paperag/internal/tasks"
	"paperag/internal/transport"
	"paperag/internal/vector"
	"paperag/server"
)

const (
	ProgramName   = "paperag"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/alan-mat/paperag"
)

type serveCmd struct {
	Config string `arg:"--config,-c" default:"paperag.yaml" help:"path to config file"`
}

type ingestCmd struct {
	Path   string `arg:"positional,required" help:"path to the PDF document"`
	Pages  string `arg:"--pages" help:"page range to parse, e.g. 3 or 1-12 (default all)"`
	Output string `arg:"--output,-o" help:"also write the chunk manifest to this path"`
	Config string `arg:"--config,-c" default:"paperag.yaml" help:"path to config file"`
}

type workCmd struct {
	Config string `arg:"--config,-c" default:"paperag.yaml" help:"path to config file"`
}

type args struct {
	Serve  *serveCmd  `arg:"subcommand:serve" help:"start the paperag API server"`
	Ingest *ingestCmd `arg:"subcommand:ingest" help:"parse a document and index its chunks"`
	Work   *workCmd   `arg:"subcommand:work" help:"start the ingest worker"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: ProgramName}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	switch cmd := p.Subcommand().(type) {
	case *serveCmd:
		err = runServe(cmd)
	case *ingestCmd:
		err = runIngest(cmd)
	case *workCmd:
		err = runWork(cmd)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func runServe(c *serveCmd) error {
	conf, err := ReadConfig(c.Config)
	if err != nil {
		return err
	}

	creds := config.LoadCredentials()
	required := []string{config.EnvOpenAIKey}
	if conf.Retrieval.Rerank {
		required = append(required, config.EnvCohereKey)
	}
	if err := creds.Require(required...); err != nil {
		return err
	}

	store, err := newStore(conf, creds)
	if err != nil {
		return err
	}
	defer store.Close()

	lm, err := provider.NewLM(provider.LMTypeOpenAI, creds)
	if err != nil {
		return err
	}
	embedder, err := provider.NewEmbedder(provider.EmbedderTypeOpenAI, creds)
	if err != nil {
		return err
	}

	opts := []pipeline.AnswererOption{
		pipeline.WithMaxTopK(conf.Retrieval.TopKMax),
	}
	if conf.Retrieval.Rerank {
		reranker, err := provider.NewReranker(provider.RerankerTypeCohere, creds)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithReranker(reranker))
	}

	answerer := pipeline.NewRetrievalAnswerer(embedder, store, lm, conf.VectorStore.Collection, opts...)
	pipe := pipeline.New(pipeline.NewLMRestructurer(lm), answerer)

	srv := server.New(server.ServerConfig{
		ListenHost:    conf.Server.ListenHost,
		ListenPort:    conf.Server.ListenPort,
		Collection:    conf.VectorStore.Collection,
		RedisAddr:     conf.Transport.Addr,
		RedisUsername: conf.Transport.Username,
		RedisPassword: conf.Transport.Password,
		RedisDB:       conf.Transport.DB,
	}, pipe, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}

func runIngest(c *ingestCmd) error {
	conf, err := ReadConfig(c.Config)
	if err != nil {
		return err
	}

	pages, err := parsePageRange(c.Pages)
	if err != nil {
		return err
	}

	creds := config.LoadCredentials()
	required := []string{config.EnvOpenAIKey}
	if conf.Ingest.Parser == "remote" {
		required = append(required, config.EnvParseKey, config.EnvGeminiKey)
	}
	if err := creds.Require(required...); err != nil {
		return err
	}

	in, store, err := newIngestor(conf, creds)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest, err := in.Run(ctx, c.Path, pages, c.Output)
	if err != nil {
		return err
	}
	slog.Info("document indexed", "document", manifest.Document, "chunks", len(manifest.Chunks))
	return nil
}

func runWork(c *workCmd) error {
	conf, err := ReadConfig(c.Config)
	if err != nil {
		return err
	}

	creds := config.LoadCredentials()
	if err := creds.Require(config.EnvOpenAIKey); err != nil {
		return err
	}

	in, store, err := newIngestor(conf, creds)
	if err != nil {
		return err
	}
	defer store.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Transport.Addr,
		Username: conf.Transport.Username,
		Password: conf.Transport.Password,
		DB:       conf.Transport.DB,
	})
	defer rdb.Close()

	srv := asynq.NewServerFromRedisClient(
		rdb,
		asynq.Config{Concurrency: conf.Worker.Concurrency},
	)

	tr := transport.NewRedisTransport(rdb)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeIngest, tasks.NewIngestTaskHandler(in, tr))

	slog.Info("worker starting", "concurrency", conf.Worker.Concurrency)
	return srv.Run(mux)
}

func newStore(conf *appConfig, creds config.Credentials) (vector.Store, error) {
	return vector.NewStore(conf.VectorStore.Type, vector.StoreConfig{
		Host:   conf.VectorStore.Host,
		Port:   conf.VectorStore.Port,
		APIKey: creds.QdrantKey,
		UseTLS: conf.VectorStore.UseTLS,
		Path:   conf.VectorStore.Path,
	})
}

func newIngestor(conf *appConfig, creds config.Credentials) (*ingest.Ingestor, vector.Store, error) {
	store, err := newStore(conf, creds)
	if err != nil {
		return nil, nil, err
	}

	p, err := parser.NewParser(conf.Ingest.Parser, parser.ParserConfig{
		Endpoint: conf.Ingest.Endpoint,
	}, creds)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	embedder, err := provider.NewEmbedder(provider.EmbedderTypeOpenAI, creds)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	builder := chunk.NewBuilder(conf.Ingest.ChunkSize, conf.Ingest.ChunkOverlap)
	in := ingest.New(p, builder, embedder, store, conf.VectorStore.Collection)
	return in, store, nil
}

func parsePageRange(s string) (parser.PageRange, error) {
	if s == "" {
		return parser.PageRange{}, nil
	}

	first, last, found := strings.Cut(s, "-")
	if !found {
		last = first
	}

	f, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return parser.PageRange{}, fmt.Errorf("invalid page range '%s'", s)
	}
	l, err := strconv.Atoi(strings.TrimSpace(last))
	if err != nil {
		return parser.PageRange{}, fmt.Errorf("invalid page range '%s'", s)
	}
	if f < 1 || l < f {
		return parser.PageRange{}, fmt.Errorf("invalid page range '%s'", s)
	}

	return parser.PageRange{First: f, Last: l}, nil
}
