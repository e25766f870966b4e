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
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/vesselflow"
	"github.com/poiesic/vesselflow/filter"
	"github.com/poiesic/vesselflow/ingest"
)

func main() {
	app := &cli.App{
		Name:  "vesselflow",
		Usage: "Parallel AIS vessel-tracking ingestion and filtering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also append logs to this file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Load an AIS CSV export into the raw collection",
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "csv",
						Usage:    "Path to the AIS CSV export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "collection",
						Value: "raw_data",
						Usage: "Target collection for raw records",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Value: 5000,
						Usage: "Rows per worker chunk",
					},
					&cli.IntFlag{
						Name:  "super-batch",
						Value: 10,
						Usage: "Chunks held in flight at once",
					},
					&cli.IntFlag{
						Name:  "row-limit",
						Value: 5000000,
						Usage: "Stop after this many data rows (0 for no limit)",
					},
				),
				Action: ingestCommand,
			},
			{
				Name:  "filter",
				Usage: "Rebuild the filtered collection from raw records",
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "source",
						Value: "raw_data",
						Usage: "Collection holding raw records",
					},
					&cli.StringFlag{
						Name:  "target",
						Value: "filtered_data",
						Usage: "Collection to drop and rebuild",
					},
					&cli.IntFlag{
						Name:  "min-observations",
						Value: 100,
						Usage: "Drop vessels with fewer records than this",
					},
				),
				Action: filterCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// storeFlags are shared by every command that touches the store.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "store",
			Value: "mongodb://mongos:27017",
			Usage: "Store target: a mongodb:// URI or a local BadgerDB directory",
		},
		&cli.StringFlag{
			Name:  "database",
			Value: "vesselDB",
			Usage: "Database name (MongoDB targets only)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "Parallel worker count",
		},
		&cli.IntFlag{
			Name:  "insert-batch",
			Value: 500,
			Usage: "Records per bulk insert",
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Value: 3,
			Usage: "Bulk insert attempts before per-record fallback",
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Value: 5 * time.Second,
			Usage: "Base delay between retry attempts",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Value: 100000,
			Usage: "Report progress every N rows",
		},
		&cli.DurationFlag{
			Name:  "connect-timeout",
			Value: 15 * time.Second,
			Usage: "Store connection timeout",
		},
	}
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	csvPath := c.String("csv")

	// Count rows up front so the run banner shows the real workload. The
	// source is opened before the store is dialed: an unreadable CSV should
	// fail fast without a connection attempt.
	total, err := ingest.CountRows(csvPath)
	if err != nil {
		return err
	}
	fmt.Printf("Ingesting %d rows from %s\n", total, csvPath)

	chunker, err := ingest.Open(csvPath, c.Int("chunk-size"), c.Int("row-limit"))
	if err != nil {
		return err
	}
	defer chunker.Close()

	target, err := vesselflow.OpenTarget(c.String("store"), c.String("database"), c.Duration("connect-timeout"))
	if err != nil {
		return err
	}
	defer target.Close()

	config := &ingest.Config{
		Collection:      c.String("collection"),
		Workers:         c.Int("workers"),
		SuperBatchSize:  c.Int("super-batch"),
		InsertBatchSize: c.Int("insert-batch"),
		MaxRetries:      c.Int("max-retries"),
		RetryDelay:      c.Duration("retry-delay"),
		ReportInterval:  c.Int("report-interval"),
	}

	ingestor := ingest.NewIngestor(target.Opener(), config, os.Stdout)
	totals, err := ingestor.Run(ctx, chunker)
	if err != nil {
		return err
	}
	if totals.FailedChunks > 0 {
		return fmt.Errorf("ingestion completed with %d failed chunks", totals.FailedChunks)
	}
	return nil
}

func filterCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, err := vesselflow.OpenTarget(c.String("store"), c.String("database"), c.Duration("connect-timeout"))
	if err != nil {
		return err
	}
	defer target.Close()

	config := &filter.Config{
		SourceCollection: c.String("source"),
		TargetCollection: c.String("target"),
		MinObservations:  c.Int("min-observations"),
		Workers:          c.Int("workers"),
		InsertBatchSize:  c.Int("insert-batch"),
		MaxRetries:       c.Int("max-retries"),
		RetryDelay:       c.Duration("retry-delay"),
		ReportInterval:   c.Int("report-interval"),
	}

	f := filter.NewFilter(target.Opener(), config, os.Stdout)
	totals, err := f.Run(ctx)
	if err != nil {
		return err
	}
	if totals.FailedChunks > 0 {
		return fmt.Errorf("filtering completed with %d failed vessel batches", totals.FailedChunks)
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

	var out io.Writer = os.Stderr
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
