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
	"errors"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"

	"paperag/internal/chunk"
)

type serverConfig struct {
	ListenHost string `yaml:"listen_host"`
	ListenPort int    `yaml:"listen_port"`
}

type redisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type workerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type vectorStoreConfig struct {
	Type       string `yaml:"type"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
	Path       string `yaml:"path"`
}

type retrievalConfig struct {
	TopKMax int  `yaml:"top_k_max"`
	Rerank  bool `yaml:"rerank"`
}

type ingestConfig struct {
	Parser       string `yaml:"parser"`
	Endpoint     string `yaml:"endpoint"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

type appConfig struct {
	Server serverConfig `yaml:"server"`
	Worker workerConfig `yaml:"worker"`

	Transport   redisConfig       `yaml:"transport"`
	VectorStore vectorStoreConfig `yaml:"vector_store"`

	Retrieval retrievalConfig `yaml:"retrieval"`
	Ingest    ingestConfig    `yaml:"ingest"`
}

func defaultConfig() *appConfig {
	return &appConfig{
		Server: serverConfig{ListenPort: 8080},
		Worker: workerConfig{Concurrency: 4},
		Transport: redisConfig{
			Addr: "localhost:6379",
		},
		VectorStore: vectorStoreConfig{
			Type:       "qdrant",
			Host:       "localhost",
			Port:       6334,
			Collection: "documents",
		},
		Ingest: ingestConfig{
			Parser:       "remote",
			ChunkSize:    chunk.DefaultChunkSize,
			ChunkOverlap: chunk.DefaultChunkOverlap,
		},
	}
}

// ReadConfig loads the yaml config at path, falling back to defaults
// for anything left unset. A missing file yields the full defaults.
func ReadConfig(path string) (*appConfig, error) {
	conf := defaultConfig()

	file, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return conf, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, conf); err != nil {
		return nil, err
	}

	if conf.VectorStore.Collection == "" {
		conf.VectorStore.Collection = "documents"
	}
	if conf.Ingest.ChunkSize <= 0 {
		conf.Ingest.ChunkSize = chunk.DefaultChunkSize
	}
	if conf.Ingest.ChunkOverlap < 0 {
		conf.Ingest.ChunkOverlap = chunk.DefaultChunkOverlap
	}
	if conf.Worker.Concurrency <= 0 {
		conf.Worker.Concurrency = 4
	}

	return conf, nil
}
