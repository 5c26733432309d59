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
	"bufio"
	"context"
	"fmt"
	"iter"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/corpora"
	"github.com/poiesic/corpora/config"
	"github.com/poiesic/corpora/core"
	"github.com/poiesic/corpora/perf"
	"github.com/urfave/cli/v2"
)

var sentences = []string{
	"Paris is the capital of France and sits on the Seine.",
	"The Eiffel Tower was completed in 1889 for the World's Fair.",
	"Gustave Eiffel's company designed and built the tower.",
	"The Louvre is the most visited museum in the world.",
	"Leonardo da Vinci painted the Mona Lisa in the early sixteenth century.",
	"The Mona Lisa hangs in the Louvre behind protective glass.",
	"Tokyo is the capital of Japan and its largest city.",
	"Mount Fuji is visible from Tokyo on clear winter days.",
	"The Shinkansen connects Tokyo and Osaka in under three hours.",
	"Ada Lovelace wrote the first published algorithm for a machine.",
	"Charles Babbage designed the Analytical Engine.",
	"Ada Lovelace worked with Charles Babbage on the Analytical Engine.",
	"Alan Turing formalized computation with the Turing machine.",
	"Bletchley Park was the centre of British codebreaking in the war.",
	"Alan Turing worked at Bletchley Park on the Enigma cipher.",
	"Marie Curie won Nobel Prizes in both physics and chemistry.",
	"Marie Curie discovered polonium and radium with Pierre Curie.",
	"The Danube flows through Vienna, Bratislava, Budapest and Belgrade.",
	"Vienna was home to Mozart for the last decade of his life.",
	"The Amazon River carries more water than any other river.",
	"The Amazon rainforest spans nine countries in South America.",
	"Lake Baikal in Siberia is the deepest lake on Earth.",
	"The Great Barrier Reef lies off the coast of Queensland.",
	"Johannes Gutenberg introduced movable type printing in Mainz.",
	"The Gutenberg Bible was printed around 1455.",
}

func main() {
	app := &cli.App{
		Name:  "seeder",
		Usage: "Seed a corpus with sample chunks without going through the scraper",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "corpora.yaml",
			},
			&cli.StringFlag{
				Name:  "src",
				Usage: "File of seed data, one chunk per line (defaults to built-in sentences)",
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "Owner of the seeded document",
				Value: "seeder",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Chunks processed between progress reports",
				Value: 5,
			},
		},
		Action: seed,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// linesFromFile returns an iterator over the non-blank lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

func seed(c *cli.Context) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	source := linesFromSlice(sentences)
	name := "sentences.txt"
	if src := c.String("src"); src != "" {
		if source, err = linesFromFile(src); err != nil {
			return err
		}
		name = src
	}

	corpus, err := corpora.Open(cfg)
	if err != nil {
		return err
	}
	defer corpus.Close()

	var chunks []core.Chunk
	documentID := uuid.NewString()
	for line := range source {
		chunks = append(chunks, core.Chunk{
			Text:       line,
			DocumentID: documentID,
			ChunkIndex: len(chunks),
		})
	}

	graphID, err := createSeedGraph(c.Context, corpus, c.String("owner"), documentID, name, chunks)
	if err != nil {
		return err
	}

	processor, err := corpus.NewProcessor(c.String("owner"), graphID)
	if err != nil {
		return err
	}

	batchSize := max(c.Int("batch-size"), 1)
	progress := perf.NewProgress(os.Stderr, "chunks", len(chunks), batchSize)
	progress.Start()

	failed := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		for _, result := range processor.ProcessMany(c.Context, chunks[start:end], cfg.Ingestion.Concurrency) {
			if !result.Succeeded() {
				failed++
				slog.Warn("chunk failed", "index", result.ChunkIndex, "error", result.Error)
			}
		}
		progress.Increment(end - start)
	}
	progress.Finish()

	fmt.Fprintf(os.Stderr, "Seeded %d chunks (%d failed) into graph %s\n", len(chunks), failed, graphID)
	return nil
}

func createSeedGraph(ctx context.Context, corpus *corpora.Corpus, ownerID, documentID, name string, chunks []core.Chunk) (string, error) {
	var body strings.Builder
	for _, chunk := range chunks {
		body.WriteString(chunk.Text)
		body.WriteByte('\n')
	}
	size := int64(body.Len())

	graph, err := corpus.Graphs().CreateGraph(ctx, &core.Graph{
		Id:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}

	_, err = corpus.Documents().AddDocuments(ctx, &core.Document{
		Id:          documentID,
		GraphID:     graph.Id,
		OwnerID:     ownerID,
		Name:        name,
		ContentType: "text/plain",
		Size:        size,
		Checksum:    core.Checksum([]byte(body.String())),
	})
	if err != nil {
		return "", fmt.Errorf("failed to record document: %w", err)
	}
	return graph.Id, nil
}
