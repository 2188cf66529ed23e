package cmd

import (
	"fmt"

	"jptraining-backend/services/booking"

	"github.com/spf13/cobra"
)

var bookFlags struct {
	Year  int
	Month int
	Day   int
	Start string
	End   string
	Room  string
}

func init() {
	bookCmd.Flags().IntVar(&bookFlags.Year, "year", 0, "target year (defaults to the current year)")
	bookCmd.Flags().IntVar(&bookFlags.Month, "month", 0, "target month")
	bookCmd.Flags().IntVar(&bookFlags.Day, "day", 0, "target day")
	bookCmd.Flags().StringVar(&bookFlags.Start, "start", "", `earliest acceptable start time, "HH:MM"`)
	bookCmd.Flags().StringVar(&bookFlags.End, "end", "", `latest acceptable end time, "HH:MM"`)
	bookCmd.Flags().StringVar(&bookFlags.Room, "room", "", "room name as shown on the timetable")
	bookCmd.MarkFlagRequired("month")
	bookCmd.MarkFlagRequired("day")
	bookCmd.MarkFlagRequired("start")
	bookCmd.MarkFlagRequired("end")
	bookCmd.MarkFlagRequired("room")
	rootCmd.AddCommand(bookCmd)
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Attempt a reservation with the configured site credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnv()
		if err != nil {
			fail(err)
		}

		svc := booking.NewService(env.Config.Site.BaseUrl)
		result, err := svc.AttemptBooking(cmd.Context(), booking.Request{
			LoginID:  env.Config.Site.Credentials.LoginID,
			Password: env.Config.Site.Credentials.Password,
			Year:     bookFlags.Year,
			Month:    bookFlags.Month,
			Day:      bookFlags.Day,
			Start:    bookFlags.Start,
			End:      bookFlags.End,
			Room:     bookFlags.Room,
		})
		if err != nil {
			fail(fmt.Errorf("%s: %w", result.Message, err))
		}
		fmt.Println(result.Message)
	},
}
