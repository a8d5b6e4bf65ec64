// Package cmd implements compassctl, the maintenance CLI for a Cardboard
// Compass database.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/config"
	"github.com/codyseavey/cardboard-compass/backend/internal/database"
	"github.com/codyseavey/cardboard-compass/backend/internal/errtrack"
	"github.com/codyseavey/cardboard-compass/backend/internal/services"
	"github.com/codyseavey/cardboard-compass/backend/internal/store"
)

var (
	dbPath     string
	jsonOutput bool

	db         *gorm.DB
	collection *services.CollectionService
	snapshots  *services.SnapshotService
)

var rootCmd = &cobra.Command{
	Use:   "compassctl",
	Short: "Maintenance commands for a Cardboard Compass database",
	Long: `compassctl works directly against the server's SQLite database.

It reads the same configuration as the server (.env, CC_CONFIG_PATH and
environment variables); --db overrides the database path.`,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: closeDatabase,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails
	if cerr := closeDatabase(nil, nil); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func setupServices(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}

	db, err = database.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	docs := store.NewGormStore(db)
	owners := auth.ContextResolver{}
	reporter := errtrack.NewLogReporter(nil)

	collection = services.NewCollectionService(docs, owners, reporter)
	snapshots = services.NewSnapshotService(docs, owners, reporter, cfg.Snapshot.Hour, cfg.Snapshot.CheckInterval)
	return nil
}

func closeDatabase(_ *cobra.Command, _ []string) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}

// targetOwners resolves --owner, falling back to every tracked owner
func targetOwners(cmd *cobra.Command, owner string) ([]string, error) {
	if owner != "" {
		return []string{owner}, nil
	}
	return snapshots.TrackedOwners(cmd.Context())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(ownersCmd, snapshotCmd, statsCmd)
}
