package cmd

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/regwatch/regwatch/internal/config"
	"github.com/regwatch/regwatch/internal/store"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "regwatch",
	Short: "Track federal regulatory comment periods",
	Long: `regwatch tracks federal regulatory comment periods from Regulations.gov,
enriches them with Federal Register metadata, and posts milestone
notifications (new, 7-day, 3-day, last-day) to Bluesky.

It also builds a static site listing open comment periods.`,
}

// Execute runs the root command. Cobra prints the error itself.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default REGWATCH_DB or data/regwatch.db)")
}

type storeDB struct {
	*sql.DB
	periods *store.PeriodStore
}

// openDB resolves the database path from the --db flag or environment and
// opens it, creating the parent directory if needed.
func openDB(cfg *config.Config) (*storeDB, error) {
	path := cfg.DBPath
	if dbPath != "" {
		path = dbPath
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := store.NewDB(path)
	if err != nil {
		return nil, err
	}
	return &storeDB{DB: db, periods: store.NewPeriodStore(db)}, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	return ctx, cancel
}
