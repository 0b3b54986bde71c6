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
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/ragchat"
	"github.com/poiesic/ragchat/bulk"
	"github.com/poiesic/ragchat/config"
	"github.com/poiesic/ragchat/history"
	"github.com/poiesic/ragchat/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User id that owns the documents and conversations",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ragchat",
		Usage: "Document-grounded chat backend with a realtime voice relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				EnvVars: []string{"RAGCHAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding conversation and vector data",
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Keep all data in memory",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
					},
					&cli.StringFlag{
						Name:  "agent",
						Usage: "Agent provider (openai, anthropic)",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest PDF files for a user",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per document on embedding failures",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "history",
				Usage:  "Print a user's recent conversation history",
				Action: historyCommand,
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "exclude-session",
						Usage: "Session id to leave out",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of turns",
						Value: history.DefaultRecentLimit,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search a user's documents",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of matches",
						Value: search.DefaultTopK,
					},
				},
			},
		},
	}
}

// openService loads the configuration and applies global flag overrides.
func openService(c *cli.Context, extra ...config.Option) (*ragchat.Service, error) {
	var opts []config.Option
	if dir := c.String("data-dir"); dir != "" {
		opts = append(opts, config.WithDataDir(dir))
	}
	if c.IsSet("in-memory") {
		opts = append(opts, config.WithInMemory(c.Bool("in-memory")))
	}
	opts = append(opts, extra...)

	cfg, err := config.Load(c.String("config"), opts...)
	if err != nil {
		return nil, err
	}
	svc, err := ragchat.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return svc, nil
}

func serveCommand(c *cli.Context) error {
	var opts []config.Option
	if addr := c.String("addr"); addr != "" {
		opts = append(opts, config.WithAddr(addr))
	}
	if agent := c.String("agent"); agent != "" {
		opts = append(opts, config.WithAgentProvider(agent))
	}

	svc, err := openService(c, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv, err := svc.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	slog.Info("starting server", "addr", svc.Config().Addr, "agent", svc.Config().AgentProvider)
	return srv.Run(ctx)
}

func ingestCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	loader, err := svc.NewLoader(
		bulk.WithProgress(c.App.ErrWriter),
		bulk.WithRetryPolicy(bulk.RetryPolicy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
			Retryable:   bulk.IsTransient,
		}),
	)
	if err != nil {
		return err
	}

	summary, err := loader.Load(c.Context, c.String("user"), paths)
	if summary != nil {
		fmt.Fprintf(c.App.Writer, "stored %d, skipped %d, failed %d\n", summary.Stored, summary.Skipped, summary.Failed)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func historyCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintln(c.App.Writer, svc.History().Recent(c.Context, c.String("user"), c.String("exclude-session"), c.Int("limit")))
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	matches, err := svc.Searcher().Search(c.Context, c.String("user"), query, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, search.Format(matches))
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
