package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Crawl the booking site's timetable into the schedule cache.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnv()
		if err != nil {
			fail(err)
		}

		summary, err := env.Timetable().Sync(cmd.Context())
		if err != nil {
			fail(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Date", "Slots"})
		for _, day := range summary {
			t.AppendRow(table.Row{day.Date, day.Count})
		}
		t.Render()
	},
}
