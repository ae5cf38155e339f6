package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hpungsan/murmur/internal/auth"
	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/insight"
	"github.com/hpungsan/murmur/internal/jobs"
	"github.com/hpungsan/murmur/internal/mcp"
	"github.com/hpungsan/murmur/internal/ops"
	"github.com/hpungsan/murmur/internal/web"
)

// storeDialTimeout bounds the startup ping of an external session store.
const storeDialTimeout = 5 * time.Second

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "murmur",
		Usage:   "Feedback store with insights",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Human-readable debug logging on stderr"},
		},
		Commands: []*cli.Command{
			serveCmd(db, cfg),
			mcpCmd(db, cfg),
			submitCmd(db, cfg),
			listCmd(db),
			getCmd(db),
			statusCmd(db),
			insightsCmd(db, cfg),
			exportCmd(db),
			hashPasswordCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and background jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (overrides config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = logger.Sync() }()

			store, closeStore, err := newSessionStore(c.Context, db, cfg)
			if err != nil {
				return outputError(err)
			}
			defer closeStore()

			authn := auth.NewFromConfig(store, cfg)
			if !cfg.AdminConfigured() {
				logger.Warn("admin password not configured; admin login is disabled")
			}

			engine, err := insight.NewEngineFromConfig(c.Context, cfg, logger)
			if err != nil {
				return outputError(err)
			}
			logger.Info("insight providers", zap.Strings("chain", engine.Providers()))

			sched, err := jobs.New(jobs.Options{
				DB:        db,
				Config:    cfg,
				Sessions:  authn,
				Generator: engine,
				Logger:    logger,
			})
			if err != nil {
				return outputError(err)
			}

			bind := cfg.Bind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := cfg.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv := web.NewServer(web.Options{
				DB:        db,
				Config:    cfg,
				Auth:      authn,
				Generator: engine,
				Logger:    logger,
			}, bind, port)

			sched.Start()
			stopJobs := func() {
				ctx, cancel := context.WithTimeout(context.Background(), storeDialTimeout)
				defer cancel()
				sched.Stop(ctx)
			}

			err = web.Run(srv, logger, stopJobs)
			if err != nil {
				// Listen failed before any signal arrived
				stopJobs()
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the feedback tools over MCP (stdio)",
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = logger.Sync() }()

			if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
				logger.Warn("ignoring unknown disabled_tools", zap.Strings("tools", unknown))
			}

			engine, err := insight.NewEngineFromConfig(c.Context, cfg, logger)
			if err != nil {
				return outputError(err)
			}

			return mcp.Run(db, cfg, engine, Version)
		},
	}
}

// submitCmd creates the submit command.
func submitCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Submit feedback (--text or piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Feedback text"},
		},
		Action: func(c *cli.Context) error {
			text := c.String("text")
			if !c.IsSet("text") {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("text must be given with --text or piped via stdin"))
				}
				var err error
				text, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			output, err := ops.Submit(c.Context, db, cfg, ops.SubmitInput{Text: text})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all feedback, newest first",
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one feedback record",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := ops.ParseID(c.Args().First())
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Fetch(c.Context, db, ops.FetchInput{ID: id})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statusCmd creates the status command.
func statusCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Set the status of a feedback record",
		ArgsUsage: "<id> <new|resolved>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("usage: murmur status <id> <new|resolved>"))
			}
			id, err := ops.ParseID(c.Args().Get(0))
			if err != nil {
				return outputError(err)
			}

			output, err := ops.SetStatus(c.Context, db, ops.SetStatusInput{
				ID:     id,
				Status: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// insightsCmd creates the insights command.
func insightsCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "insights",
		Usage: "Summarize all feedback into topic clusters",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "local", Usage: "Skip remote providers and use keyword clustering"},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = logger.Sync() }()

			engine := insight.NewEngine(nil, insight.WithLogger(logger))
			if !c.Bool("local") {
				engine, err = insight.NewEngineFromConfig(c.Context, cfg, logger)
				if err != nil {
					return outputError(err)
				}
			}

			output, err := ops.Insights(c.Context, db, engine)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write all feedback to a JSONL file in <base dir>/exports",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Export file (must be directly in the exports directory)"},
		},
		Action: func(c *cli.Context) error {
			baseDir, err := resolveBaseDir()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.Export(c.Context, db, ops.ExportInput{
				Dir:  filepath.Join(baseDir, "exports"),
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// hashPasswordCmd creates the hash-password command.
func hashPasswordCmd() *cli.Command {
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Print a bcrypt hash for admin_password_hash (reads the password from stdin)",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("password must be piped via stdin"))
			}
			password, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if password == "" {
				return outputError(errors.NewInvalidRequest("Password is required"))
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			return outputJSON(map[string]string{"admin_password_hash": string(hash)})
		},
	}
}

// Helper functions

// newSessionStore picks Redis when redis_addr is configured, else SQLite.
// A configured but unreachable Redis is an error; there is no silent fallback.
// The returned close func is always non-nil.
func newSessionStore(ctx context.Context, db *sql.DB, cfg *config.Config) (auth.SessionStore, func(), error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return auth.NewSQLStore(db), func() {}, nil
	}

	client, err := auth.NewRedisClient(cfg)
	if err != nil {
		return nil, func() {}, err
	}
	store := auth.NewRedisStore(client)
	pingCtx, cancel := context.WithTimeout(ctx, storeDialTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, func() {}, fmt.Errorf("redis session store at %s: %w", cfg.RedisAddr, err)
	}
	return store, func() { _ = store.Close() }, nil
}

// newLogger builds a JSON production logger, or a console logger with verbose.
// Both write to stderr so stdout stays machine-readable.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if mErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", mErr.Code, mErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
