package cmd

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(subscribersCmd)
}

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "List everyone subscribed to slot notifications.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnv()
		if err != nil {
			fail(err)
		}

		subscribers, err := env.Subscription().List(cmd.Context())
		if err != nil {
			fail(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Email", "Subscribed"})
		for _, s := range subscribers {
			t.AppendRow(table.Row{
				s.ID,
				s.Email,
				time.Unix(s.CreatedAt, 0).Format("2006-01-02 15:04"),
			})
		}
		t.Render()
	},
}
