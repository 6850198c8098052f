package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	localrag "github.com/chelorope/local-llm-rag"
	"github.com/chelorope/local-llm-rag/config"
	"github.com/chelorope/local-llm-rag/server"
)

func main() {
	app := &cli.App{
		Name:  "local-llm-rag",
		Usage: "Session-scoped PDF question answering over local models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address, overrides the configured one",
					},
				},
			},
			{
				Name:      "upload",
				Usage:     "Ingest a PDF document into a session",
				ArgsUsage: "<file.pdf>",
				Action:    uploadCommand,
				Flags:     []cli.Flag{sessionFlag()},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question against a session's documents",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags:     []cli.Flag{sessionFlag()},
			},
			{
				Name:   "documents",
				Usage:  "List a session's uploaded documents",
				Action: documentsCommand,
				Flags:  []cli.Flag{sessionFlag()},
			},
			{
				Name:   "purge",
				Usage:  "Delete a session's documents and conversation history",
				Action: purgeCommand,
				Flags:  []cli.Flag{sessionFlag()},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func sessionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "session",
		Aliases: []string{"s"},
		Usage:   "Session id (empty for the global scope)",
	}
}

// setup loads .env if present and configures the default logger.
func setup(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

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

func buildApp(c *cli.Context) (*localrag.App, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	app, err := localrag.NewApp(cfg)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	app, err := localrag.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv, err := server.New(app.Pipeline(), app.Assistant(), slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Server.Addr)
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one PDF file argument")
	}
	path := c.Args().First()

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	app, err := buildApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Pipeline().Upload(context.Background(), c.String("session"), filepath.Base(path), content)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %s: document %s, %d pages, %d chunks\n",
		result.Filename, result.DocumentID, result.PageCount, result.ChunkCount)
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a question argument")
	}
	question := strings.Join(c.Args().Slice(), " ")

	app, err := buildApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	turn, err := app.Assistant().Ask(context.Background(), c.String("session"), question)
	if err != nil {
		return err
	}
	fmt.Println(turn.Content)
	return nil
}

func documentsCommand(c *cli.Context) error {
	app, err := buildApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	names, err := app.Pipeline().DocumentNames(context.Background(), c.String("session"))
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No documents in this session.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func purgeCommand(c *cli.Context) error {
	app, err := buildApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	session := c.String("session")
	count, err := app.Pipeline().DeleteSession(context.Background(), session)
	if err != nil {
		return err
	}
	if err := app.Assistant().ClearMessages(context.Background(), session); err != nil {
		return err
	}
	fmt.Printf("Deleted %d documents and the conversation history\n", count)
	return nil
}
