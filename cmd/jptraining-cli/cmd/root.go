package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"jptraining-backend/lib/configuration"
	"jptraining-backend/services/notifier"
	"jptraining-backend/services/subscription"
	"jptraining-backend/services/timetable"
	subscriptiondb "jptraining-backend/services/subscription/db"
	timetabledb "jptraining-backend/services/timetable/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jptraining-cli",
	Short: "Operator tooling for the JP Training backend.",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

type Config struct {
	Site     timetable.SiteConfig   `json:"site"`
	Notify   notifier.Options       `json:"notify"`
	Database configuration.Database `json:"database"`
}

type Env struct {
	Config Config
	DB     *sql.DB
}

// loadEnv reads config.json5 from the nearest ancestor directory and
// opens the database with both schemas applied.
func loadEnv() (Env, error) {
	config, err := configuration.ReadRecursively[Config]("config.json5")
	if err != nil {
		return Env{}, fmt.Errorf("failed to read config.json5: %w", err)
	}
	database, err := config.Database.OpenDB()
	if err != nil {
		return Env{}, fmt.Errorf("failed to open database: %w", err)
	}
	_, err = database.Exec(timetabledb.Schema)
	if err != nil {
		return Env{}, err
	}
	_, err = database.Exec(subscriptiondb.Schema)
	if err != nil {
		return Env{}, err
	}
	return Env{Config: config, DB: database}, nil
}

func (e Env) Timetable() timetable.Service {
	return timetable.NewService(e.DB, e.Config.Site)
}

func (e Env) Subscription() subscription.Service {
	return subscription.NewService(
		e.DB,
		notifier.NewMailer(e.Config.Notify.Smtp),
		e.Config.Notify.SiteBaseURL,
	)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}
