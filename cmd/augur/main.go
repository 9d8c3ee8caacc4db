// Copyright 2025 Augur Labs
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/augurlabs/augur"
	"github.com/augurlabs/augur/ai"
	"github.com/augurlabs/augur/core"
)

func main() {
	app := &cli.App{
		Name:  "augur",
		Usage: "Per-tenant retrieval-augmented question answering over private documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload documents for a tenant",
				ArgsUsage: "FILE [FILE...]",
				Action:    uploadCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "mime-type",
						Usage: "Declared MIME type (inferred from extension if empty)",
					},
				),
			},
			{
				Name:   "train",
				Usage:  "Rebuild the tenant's knowledge index from its documents",
				Action: trainCommand,
				Flags: append(commonFlags(), append(aiFlags(),
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Block until the training job finishes",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk size in characters",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Characters shared between adjacent chunks",
						Value: 50,
					},
				)...),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question against the tenant's trained index",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(commonFlags(), append(aiFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of chunks retrieved per question",
						Value: 3,
					},
				)...),
			},
			{
				Name:   "status",
				Usage:  "Show the tenant's training job and published index version",
				Action: statusCommand,
				Flags:  commonFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "tenant",
			Aliases:  []string{"t"},
			Usage:    "Tenant identifier",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Generation model name",
			Value: "qwen2.5:3b",
		},
		&cli.DurationFlag{
			Name:  "generation-timeout",
			Usage: "Deadline for a single generation call",
			Value: 60 * time.Second,
		},
	}
}

func openEngine(c *cli.Context, extra ...augur.EngineOption) (*augur.Engine, error) {
	var configOpts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		configOpts = append(configOpts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		configOpts = append(configOpts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("generator-model"); model != "" {
		configOpts = append(configOpts, ai.WithGeneratorModel(model))
	}
	if timeout := c.Duration("generation-timeout"); timeout > 0 {
		configOpts = append(configOpts, ai.WithGenerationTimeout(timeout))
	}

	aiConfig := ai.NewConfig(configOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := append([]augur.EngineOption{augur.WithAIConfig(aiConfig)}, extra...)
	engine, err := augur.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	tenant := core.TenantID(c.String("tenant"))
	rejected := 0

	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("rejected  %s: %v\n", path, err)
			rejected++
			continue
		}

		doc, err := engine.UploadDocument(ctx, tenant, filepath.Base(path), c.String("mime-type"), data)
		if err != nil {
			fmt.Printf("rejected  %s: %v\n", path, err)
			rejected++
			continue
		}
		fmt.Printf("accepted  %s (document %d, %d bytes)\n", path, doc.Id, doc.ByteSize)
	}

	if rejected == c.NArg() {
		return fmt.Errorf("all %d files were rejected", rejected)
	}
	return nil
}

func trainCommand(c *cli.Context) error {
	engine, err := openEngine(c,
		augur.WithChunkParameters(c.Int("chunk-size"), c.Int("chunk-overlap")))
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	tenant := core.TenantID(c.String("tenant"))

	job, err := engine.StartTraining(ctx, tenant)
	if err != nil {
		return err
	}
	fmt.Printf("job %d %s\n", job.Id, job.Status)

	if !c.Bool("wait") {
		// The deferred Close still waits for the running job, so the
		// rebuild completes before the process exits.
		return nil
	}

	for {
		time.Sleep(500 * time.Millisecond)

		status, err := engine.Status(ctx, tenant)
		if err != nil {
			return err
		}
		if status.Job == nil || status.Job.Status.Active() {
			continue
		}

		fmt.Printf("job %d %s\n", status.Job.Id, status.Job.Status)
		if status.Job.Status == core.JobStatusFailed {
			return fmt.Errorf("training failed: %s", status.Job.Error)
		}
		if status.Published != nil {
			fmt.Printf("published version %d (%d chunks)\n",
				status.Published.Version, status.Published.ChunkCount)
		}
		return nil
	}
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	engine, err := openEngine(c, augur.WithTopK(c.Int("top-k")))
	if err != nil {
		return err
	}
	defer engine.Close()

	answer, err := engine.Answer(context.Background(), core.TenantID(c.String("tenant")), question)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func statusCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	status, err := engine.Status(context.Background(), core.TenantID(c.String("tenant")))
	if err != nil {
		return err
	}

	if status.Job != nil {
		fmt.Printf("job %d: %s", status.Job.Id, status.Job.Status)
		if status.Job.Error != "" {
			fmt.Printf(" (%s)", status.Job.Error)
		}
		fmt.Println()
	} else {
		fmt.Println("no training job in this process")
	}

	if status.Published != nil {
		fmt.Printf("published version %d: %d chunks, model %s, built %s\n",
			status.Published.Version,
			status.Published.ChunkCount,
			status.Published.EmbeddingModel,
			status.Published.BuiltAt.Format(time.RFC3339))
	} else {
		fmt.Println("no published index")
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
