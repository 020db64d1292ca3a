package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deng0529/GUItest-building-heating/internal/config"
	"github.com/deng0529/GUItest-building-heating/internal/db"
	"github.com/deng0529/GUItest-building-heating/internal/ingest"
	"github.com/deng0529/GUItest-building-heating/internal/logging"
	"github.com/deng0529/GUItest-building-heating/internal/migrate"
	"github.com/deng0529/GUItest-building-heating/internal/source/upload"
)

const appName = "zonetool"

var version = "dev"

const usage = `usage: %s <command>
  migrate                 apply pending schema migrations
  import <file> [table]   load a CSV or XLSX file of readings into the warehouse
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg, version, appName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.Error("db close", "err", closeErr)
		}
	}()

	switch os.Args[1] {
	case "migrate":
		applied, err := migrate.Run(ctx, conn, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("migrations applied: %d\n", len(applied))
	case "import":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, usage, os.Args[0])
			os.Exit(1)
		}
		table := cfg.WarehouseTable
		if len(os.Args) > 3 {
			table = os.Args[3]
		}
		if err := importFile(ctx, conn, logger, os.Stdout, os.Args[2], table); err != nil {
			fmt.Fprintf(os.Stderr, "import: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

// importFile applies the migrations, then inserts every valid row of path in
// one transaction. Invalid rows are logged and skipped.
func importFile(ctx context.Context, conn *sql.DB, logger *slog.Logger, out io.Writer, path, table string) error {
	if _, err := migrate.Run(ctx, conn, logger); err != nil {
		return err
	}
	repo, err := ingest.NewRepository(conn, table)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := upload.Parse(path, f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	readings, skipped, err := ingest.FromDataset(raw)
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}

	for _, e := range skipped {
		logger.Warn("import: row skipped", "file", path, "error", e)
	}

	n, err := repo.InsertReadings(ctx, readings)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d readings into %s (%d skipped)\n", n, table, len(skipped))
	return nil
}
