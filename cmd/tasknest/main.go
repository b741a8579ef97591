package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/kirstym/tasknest/internal/config"
	"github.com/kirstym/tasknest/internal/db"
	"github.com/kirstym/tasknest/internal/logging"
	"github.com/kirstym/tasknest/internal/mcp"
	"github.com/kirstym/tasknest/internal/notify"
	"github.com/kirstym/tasknest/internal/parse"
	"github.com/kirstym/tasknest/internal/server"
	"github.com/kirstym/tasknest/internal/tasklist"
	"github.com/kirstym/tasknest/pkg/models"
)

// defaultUser owns everything created from the CLI. The HTTP API accepts a
// per-request user header; the CLI and MCP server act as this one.
const defaultUser = "local"

func main() {
	var cfg *config.Config

	app := &cli.Command{
		Name:  "tasknest",
		Usage: "Task management with AI quick-add and reminders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("TASKNEST_CONFIG"),
				Value:   "tasknest.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("TASKNEST_LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("parse log level: %w", err)
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().
				Timestamp().
				Logger()

			cfg, err = config.Load(c.String("config"))
			if err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize the database and seed the default workspace",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runInit(ctx, cfg)
				},
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP API server",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runServe(ctx, cfg)
				},
			},
			{
				Name:  "mcp",
				Usage: "Run the MCP server on stdio",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runMCP(ctx, cfg)
				},
			},
			{
				Name:      "export",
				Usage:     "Export the database to a JSONL snapshot",
				ArgsUsage: "<path>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runExport(ctx, cfg, c.Args().First())
				},
			},
			{
				Name:      "import",
				Usage:     "Import a JSONL snapshot into the database",
				ArgsUsage: "<path>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runImport(ctx, cfg, c.Args().First())
				},
			},
			{
				Name:  "list-tasks",
				Usage: "List tasks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "window",
						Usage: "due-date window (today, week, overdue, upcoming, completed, all)",
					},
					&cli.StringFlag{
						Name:  "search",
						Usage: "case-insensitive title substring",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runListTasks(ctx, cfg, c.String("window"), c.String("search"))
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := database.Init(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return database, nil
}

func runInit(ctx context.Context, cfg *config.Config) error {
	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Printf("✓ Initialized database at %s\n", cfg.DBPath)

	if cfg.SnapshotPath != "" {
		if _, err := os.Stat(cfg.SnapshotPath); err == nil {
			if err := database.ImportSnapshot(ctx, cfg.SnapshotPath); err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			fmt.Printf("✓ Imported snapshot from %s\n", cfg.SnapshotPath)
		}
	}

	existing, err := database.GetWorkspaceByName(ctx, defaultUser, "Personal")
	if err != nil {
		return err
	}
	if existing == nil {
		workspace := &models.Workspace{
			UserID: defaultUser,
			Name:   "Personal",
			Color:  "#588157",
		}
		if err := database.CreateWorkspace(ctx, workspace); err != nil {
			return fmt.Errorf("seed default workspace: %w", err)
		}
		fmt.Println("✓ Created 'Personal' workspace")
	}

	fmt.Println("✓ TaskNest initialized successfully")
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.Component("main")

	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.SnapshotPath != "" {
		stop := database.EnableAutoSnapshot(cfg.SnapshotPath)
		defer stop()
	}

	parser := parse.NewService(parse.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))

	var mailer notify.Mailer
	if cfg.Resend.APIKey != "" {
		mailer = notify.NewResendClient(cfg.Resend.APIKey, cfg.Resend.From, "", cfg.Clock())
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set; reminder email disabled")
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set; task parsing requests will be rejected")
	}

	srv := server.NewServer(database, parser, mailer, cfg.Clock())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context, cfg *config.Config) error {
	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.SnapshotPath != "" {
		stop := database.EnableAutoSnapshot(cfg.SnapshotPath)
		defer stop()
	}

	parser := parse.NewService(parse.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))

	s := mcp.NewServer(database, parser, defaultUser)
	return mcp.Serve(s)
}

func runExport(ctx context.Context, cfg *config.Config, path string) error {
	if path == "" {
		path = cfg.SnapshotPath
	}
	if path == "" {
		return fmt.Errorf("no snapshot path given and none configured")
	}

	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.ExportSnapshot(ctx, path); err != nil {
		return err
	}
	fmt.Printf("✓ Exported snapshot to %s\n", path)
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, path string) error {
	if path == "" {
		path = cfg.SnapshotPath
	}
	if path == "" {
		return fmt.Errorf("no snapshot path given and none configured")
	}

	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.ImportSnapshot(ctx, path); err != nil {
		return err
	}
	fmt.Printf("✓ Imported snapshot from %s\n", path)
	return nil
}

func runListTasks(ctx context.Context, cfg *config.Config, windowArg, search string) error {
	window, err := tasklist.ParseWindow(windowArg)
	if err != nil {
		return err
	}

	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	tasks, err := database.ListTasks(ctx, db.TaskFilter{UserID: defaultUser})
	if err != nil {
		return err
	}

	clock := cfg.Clock()
	now := time.Now()

	fmt.Printf("%-40s %-10s %-10s %-20s\n", "TITLE", "PRIORITY", "STATUS", "DUE")
	fmt.Println("----------------------------------------------------------------------------------")
	for _, t := range tasks {
		if !tasklist.MatchesWindow(t, window, now) || !tasklist.MatchesSearch(t, search) {
			continue
		}
		due := "-"
		if t.DueDate != nil {
			due = clock.DateTime(t.DueDate.Local())
		}
		fmt.Printf("%-40s %-10s %-10s %-20s\n", t.Title, t.Priority, t.Status, due)
	}
	return nil
}
