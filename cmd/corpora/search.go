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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/corpora/search"
	"github.com/urfave/cli/v2"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Rank stored chunks against a query and print them as JSON",
		ArgsUsage: "QUERY...",
		Action:    searchAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "owner",
				Aliases: []string{"o"},
				Usage:   "Only search chunks owned by this owner",
			},
			&cli.StringFlag{
				Name:    "graph",
				Aliases: []string{"g"},
				Usage:   "Search every document uploaded into this graph",
			},
			&cli.StringSliceFlag{
				Name:  "doc",
				Usage: "Search this document (repeatable)",
			},
			&cli.StringFlag{
				Name:  "keywords",
				Usage: "Keyword query for BM25 (defaults to the query text)",
			},
			&cli.Float64Flag{
				Name:  "alpha",
				Usage: "Vector weight in [0,1] (overrides search.alpha)",
			},
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Maximum results (overrides search.top_k)",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Minimum hybrid score (overrides search.threshold)",
			},
		},
	}
}

func searchAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a query is required")
	}
	if c.String("graph") == "" && len(c.StringSlice("doc")) == 0 {
		return errors.New("one of --graph or --doc is required")
	}

	cfg := appConfig(c)
	if c.IsSet("alpha") {
		cfg.Search.Alpha = c.Float64("alpha")
	}
	if c.IsSet("top-k") {
		cfg.Search.TopK = c.Int("top-k")
	}
	if c.IsSet("threshold") {
		cfg.Search.Threshold = c.Float64("threshold")
	}

	corpus, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer corpus.Close()

	ctx := c.Context
	documents := c.StringSlice("doc")
	if graphID := c.String("graph"); graphID != "" {
		docs, err := corpus.Documents().GetDocumentsByGraph(ctx, graphID)
		if err != nil {
			return fmt.Errorf("failed to list documents of graph %s: %w", graphID, err)
		}
		for _, doc := range docs {
			documents = append(documents, doc.Id)
		}
	}

	engine, err := corpus.NewSearchEngine()
	if err != nil {
		return err
	}

	alpha := cfg.Search.Alpha
	results, err := engine.SearchText(ctx, search.TextQuery{
		OwnerID:            c.String("owner"),
		QueryText:          query,
		KeywordQueryText:   c.String("keywords"),
		AvailableDocuments: documents,
		Alpha:              &alpha,
		Threshold:          cfg.Search.Threshold,
		TopK:               cfg.Search.TopK,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
