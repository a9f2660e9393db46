package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the configured modules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry()
		if err != nil {
			return err
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Name", "Title", "Group", "Required", "Statuses", "Items")

		for _, m := range reg.Modules() {
			items := "no"
			if m.Items {
				items = "yes"
			}

			t.Row(m.Name, m.Title, m.Group, strings.Join(m.Required(), ", "), strings.Join(m.Statuses, "/"), items)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())

		return err
	},
}
