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
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/corpora/reembed"
	"github.com/urfave/cli/v2"
)

func reembedCommand() *cli.Command {
	return &cli.Command{
		Name:   "reembed",
		Usage:  "Reembed all stored chunks with the configured embedding model",
		Action: reembedAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks to process in each batch",
				Value: reembed.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N chunks",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum attempts for each embedding call",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 1 * time.Second,
			},
		},
	}
}

func reembedAction(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return errors.New("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return errors.New("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return errors.New("max-retries must be greater than 0")
	}

	cfg := appConfig(c)
	corpus, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer corpus.Close()

	reembedder, err := corpus.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}
