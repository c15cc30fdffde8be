// Package cli implements the codesteward command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vakalapa/codesteward/internal/adapter/driven/sqlite"
	"github.com/vakalapa/codesteward/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "codesteward",
	Short:         "Simulate multi-reviewer code reviews for GitHub PRs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config YAML")
	rootCmd.PersistentFlags().String("db", "", "path to SQLite database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(reviewCmd)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// loadConfig resolves configuration from the persistent flags plus the
// environment: the --db flag overrides any configured database path.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
	}
	return cfg, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openDatabase opens the SQLite database and applies any pending
// migrations.
func openDatabase(cfg *config.Config) (*sqlite.DB, error) {
	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// parseSince converts a lookback string like "180d", "6m", or "1y" into
// days. A bare number is taken as days.
func parseSince(since string) (int, error) {
	since = strings.ToLower(strings.TrimSpace(since))
	if since == "" {
		return 0, fmt.Errorf("empty lookback window")
	}

	mult := 1
	switch since[len(since)-1] {
	case 'd':
		since = since[:len(since)-1]
	case 'm':
		mult = 30
		since = since[:len(since)-1]
	case 'y':
		mult = 365
		since = since[:len(since)-1]
	}

	n, err := strconv.Atoi(since)
	if err != nil {
		return 0, fmt.Errorf("invalid lookback window %q: %w", since, err)
	}
	return n * mult, nil
}
