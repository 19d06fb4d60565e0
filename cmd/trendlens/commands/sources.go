package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Lists the marketplaces competition can be counted on.",
	Run: func(cmd *cobra.Command, args []string) {
		env := setupEnv(cmd.Context(), nil)
		defer env.Close()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Transport", "Example", "Locators", "Description"})
		for _, def := range env.app.Registry.Definitions() {
			locators := ""
			for i, l := range def.Locators {
				if i > 0 {
					locators += ", "
				}
				locators += l.Name()
			}
			t.AppendRow(table.Row{def.ID, def.Transport, def.SearchUrl("cyber security"), locators, def.Description})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
