package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/backoffice/internal/database"
	"github.com/MrJamesThe3rd/backoffice/internal/record/memstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		return database.Migrate(cmd.Context(), db)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [module...]",
	Short: "Insert the sample rows defined for each module",
	Long:  "Insert the sample rows of the given modules, or of every module when none is named.",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, db, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 0 {
			for _, m := range svc.Modules() {
				args = append(args, m.Name)
			}
		}

		for _, name := range args {
			m, err := svc.Module(name)
			if err != nil {
				return err
			}

			recs, err := svc.CreateBatch(cmd.Context(), m.Name, memstore.FromSchema(m).List())
			if err != nil {
				return fmt.Errorf("seeding %s: %w", m.Name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", m.Name, len(recs))
		}

		return nil
	},
}
