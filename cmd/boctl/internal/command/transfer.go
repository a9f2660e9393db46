package command

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/backoffice/internal/export"
	"github.com/MrJamesThe3rd/backoffice/internal/grid"
	"github.com/MrJamesThe3rd/backoffice/internal/importer"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
)

var dryRun bool

var importCmd = &cobra.Command{
	Use:   "import <module> <file>",
	Short: "Create records from a CSV file or XLSX workbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry()
		if err != nil {
			return err
		}

		m, ok := reg.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", record.ErrUnknownModule, args[0])
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		recs, err := importer.NewService().Import(importer.FormatFor(args[1]), m, f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		if dryRun {
			for _, r := range recs {
				fmt.Fprintln(out, strings.Join(grid.Row(m, r)[1:], " | "))
			}

			fmt.Fprintf(out, "%d rows parsed, nothing stored\n", len(recs))

			return nil
		}

		svc, db, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := svc.CreateBatch(cmd.Context(), m.Name, recs)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "imported %d %s records\n", len(created), m.Name)

		return nil
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <module>",
	Short: "Write a module's records to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, db, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := svc.Module(args[0])
		if err != nil {
			return err
		}

		recs, err := svc.List(cmd.Context(), m.Name)
		if err != nil {
			return err
		}

		rows := make([]record.Record, len(recs))
		for i, r := range recs {
			rows[i] = *r
		}

		path := exportOut
		if path == "" {
			path = export.FileName(m, time.Now())
		}

		f, err := os.Create(path)
		if err != nil {
			return err
		}

		if err := export.Write(f, m, rows); err != nil {
			f.Close()
			return err
		}

		if err := f.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(rows), path)

		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and print the rows without storing them")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default <module>_<date>.xlsx)")
}
