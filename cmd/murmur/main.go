package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/db"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "mcp": true,
	"submit": true, "list": true, "get": true, "status": true, "insights": true,
	"export": true, "hash-password": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false // No args → MCP server
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	// Global flags (--verbose, --help, --version) → CLI
	return strings.HasPrefix(arg, "-")
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  m u r m u r

  Feedback store with insights

  Usage: murmur <command> [options]
         murmur --help

  MCP server mode requires piped input.`)
}

// resolveBaseDir returns MURMUR_HOME, or ~/.murmur.
func resolveBaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("MURMUR_HOME")); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".murmur"), nil
}

// loadDotEnv loads .env from the working directory, then from baseDir.
// Variables already set in the environment are never overwritten, so the
// working directory file wins over the base directory one.
func loadDotEnv(baseDir string) error {
	for _, path := range []string{".env", filepath.Join(baseDir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil, nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	baseDir, err := resolveBaseDir()
	if err != nil {
		fatal("%v", err)
	}

	if err := loadDotEnv(baseDir); err != nil {
		fatal("%v", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config: %v", err)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	// CLI mode: known subcommand
	if isCLIMode(os.Args) {
		app := newCLIApp(database, cfg)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			database.Close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'murmur --help' for usage.\n")
		database.Close()
		os.Exit(1)
	}

	// MCP server mode (default)
	app := newCLIApp(database, cfg)
	if err := app.Run([]string{os.Args[0], "mcp"}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}
