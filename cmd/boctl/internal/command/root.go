// Package command holds the boctl subcommands: database maintenance, module listing and bulk
// CSV/XLSX transfer against the records store.
package command

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/backoffice/internal/config"
	"github.com/MrJamesThe3rd/backoffice/internal/database"
	"github.com/MrJamesThe3rd/backoffice/internal/logging"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	recordStore "github.com/MrJamesThe3rd/backoffice/internal/record/store"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

var (
	envFile  string
	cfg      *config.Config
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:           "boctl",
	Short:         "Administer the backoffice records store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}

		var err error

		cfg, err = config.Load()
		if err != nil {
			return err
		}

		closeLog, err = logging.Setup(cfg.Logging())

		return err
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if closeLog != nil {
			return closeLog()
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(
		migrateCmd,
		seedCmd,
		modulesCmd,
		importCmd,
		exportCmd,
		hashPasswordCmd,
	)
}

// Execute runs the command line and logs the error that stopped it, if any.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		return err
	}

	return nil
}

func registry() (*schema.Registry, error) {
	return schema.Load(cfg.Modules.Path)
}

func openDB(ctx context.Context) (*sql.DB, error) {
	return database.New(ctx, cfg.Database())
}

// openService connects to the database and returns a records service over it. The caller closes
// the returned database.
func openService(ctx context.Context) (*record.Service, *sql.DB, error) {
	reg, err := registry()
	if err != nil {
		return nil, nil, err
	}

	db, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}

	return record.NewService(recordStore.New(db), reg), db, nil
}
