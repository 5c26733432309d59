// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poiesic/corpora"
	"github.com/poiesic/corpora/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Upload files through the scraper and stream processing results",
		ArgsUsage: "FILE...",
		Action:    ingest,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "owner",
				Aliases:  []string{"o"},
				Usage:    "Owner of the uploaded documents",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "graph",
				Aliases: []string{"g"},
				Usage:   "Add to an existing graph instead of creating one",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Chunks processed concurrently (overrides ingestion.concurrency)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Embed chunks in batches of this size (overrides ingestion.batch_size)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address while ingesting",
			},
		},
	}
}

func ingest(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file is required")
	}

	cfg := appConfig(c)
	if c.IsSet("concurrency") {
		cfg.Ingestion.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("batch-size") {
		cfg.Ingestion.BatchSize = c.Int("batch-size")
	}

	files, err := upload.ReadFiles(c.Args().Slice()...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if addr := c.String("metrics-addr"); addr != "" {
		shutdown := serveMetrics(addr, reg)
		defer shutdown()
	}

	corpus, err := openCorpus(cfg, corpora.WithMetricsRegisterer(reg))
	if err != nil {
		return err
	}
	defer corpus.Close()

	orchestrator, err := corpus.NewOrchestrator(nil)
	if err != nil {
		return err
	}

	session, err := orchestrator.SetupSession(ctx, c.String("owner"), files, c.String("graph"))
	if err != nil {
		return fmt.Errorf("failed to set up upload: %w", err)
	}

	var out <-chan []byte
	if cfg.Ingestion.BatchSize > 0 {
		out, err = orchestrator.StreamBatchResults(ctx, session, cfg.Ingestion.BatchSize)
	} else {
		out, err = orchestrator.StreamResults(ctx, session, cfg.Ingestion.Concurrency)
	}
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	for line := range out {
		if _, err := c.App.Writer.Write(line); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
