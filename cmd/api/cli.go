package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/corvusHold/rentmail/internal/config"
	"github.com/corvusHold/rentmail/internal/version"
)

const (
	exitOK      = 0
	exitUsage   = 2
	exitConfig  = 3
	exitMigrate = 4
)

var (
	migrateRunner  = realMigrateRunner
	migrationMaker = realMigrationMaker
	loadConfig     = config.Load
	osExit         = os.Exit

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// migrationName keeps generated goose files predictable: lowercase words joined by underscores.
var migrationName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// handleCLICommand runs an operator subcommand and exits. It reports false when
// args do not name one, in which case the server starts.
func handleCLICommand(args []string) bool {
	if len(args) == 0 {
		return false
	}
	var code int
	switch args[0] {
	case "migrate":
		code = runMigrate(args[1:])
	case "config":
		code = runConfigCheck()
	case "version", "--version":
		fmt.Fprintf(stdout, "rentmail %s\n", version.String())
	case "help", "-h", "--help":
		printHelp(stdout)
	default:
		return false
	}
	osExit(code)
	return true
}

func runMigrate(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "missing migrate subcommand (up|down|status|version|create)")
		return exitUsage
	}
	subcmd := args[0]
	switch subcmd {
	case "create":
		return runCreateMigration(args[1:])
	case "up", "down", "status", "version":
	default:
		fmt.Fprintf(stderr, "unknown migrate subcommand: %s\n", subcmd)
		return exitUsage
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return exitConfig
	}
	if err := migrateRunner(subcmd, cfg.DatabaseURL); err != nil {
		fmt.Fprintf(stderr, "migrate %s failed: %v\n", subcmd, err)
		return exitMigrate
	}
	return exitOK
}

// runCreateMigration scaffolds an empty SQL migration; it needs no database.
func runCreateMigration(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: rentmail migrate create <name>")
		return exitUsage
	}
	if !migrationName.MatchString(args[0]) {
		fmt.Fprintf(stderr, "invalid migration name %q: use lowercase letters, digits and underscores\n", args[0])
		return exitUsage
	}
	if err := migrationMaker(migrationsDir(), args[0]); err != nil {
		fmt.Fprintf(stderr, "migrate create failed: %v\n", err)
		return exitMigrate
	}
	return exitOK
}

// runConfigCheck loads the environment the server would start with and prints
// a secret-free summary.
func runConfigCheck() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return exitConfig
	}
	fmt.Fprintln(stdout, cfg.String())
	return exitOK
}

func migrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "./migrations"
}

func realMigrationMaker(dir, name string) error {
	goose.SetSequential(true)
	return goose.Create(nil, dir, name, "sql")
}

func realMigrateRunner(subcmd, databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	dir := migrationsDir()

	switch subcmd {
	case "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	default:
		return fmt.Errorf("unsupported migrate subcommand %q", subcmd)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `rentmail API

Usage:
  rentmail                        Start API server
  rentmail migrate up             Apply all pending migrations
  rentmail migrate down           Roll back one migration
  rentmail migrate status         Show migration status
  rentmail migrate version        Print the current schema version
  rentmail migrate create <name>  Scaffold a new SQL migration
  rentmail config                 Validate the environment and print a summary
  rentmail version                Print the build version

Migrations are read from MIGRATIONS_DIR (default ./migrations).
`)
}
