package cmd

import (
	"fmt"

	"jptraining-backend/services/notifier"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Mail the open-slot digest to every subscriber now.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnv()
		if err != nil {
			fail(err)
		}

		svc := notifier.NewService(env.Timetable(), env.Subscription(), env.Config.Notify)
		err = svc.NotifySubscribers(cmd.Context())
		if err != nil {
			fail(err)
		}
		fmt.Println("notification run finished")
	},
}
