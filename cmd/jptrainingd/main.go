package main

import (
	"context"
	"log/slog"
	"os"

	"jptraining-backend/lib/configuration"
	"jptraining-backend/lib/telemetry"
	"jptraining-backend/services/booking"
	"jptraining-backend/services/notifier"
	"jptraining-backend/services/subscription"
	"jptraining-backend/services/timetable"
	subscriptiondb "jptraining-backend/services/subscription/db"
	timetabledb "jptraining-backend/services/timetable/db"
)

func fatalerr(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func main() {
	ctx := context.Background()

	config, err := configuration.Read[Config]("config.json5")
	if err != nil {
		fatalerr("failed to read config", err)
	}
	if config.Listen == "" {
		config.Listen = "127.0.0.1:8080"
	}

	_, err = telemetry.SetupFromEnv(ctx, "jptrainingd")
	if os.IsNotExist(err) {
		slog.Warn("no telemetry.json5 found, traces will not be exported")
	} else if err != nil {
		fatalerr("failed to set up telemetry", err)
	}

	slog.Info("opening database...")
	database, err := config.Database.OpenDB()
	if err != nil {
		fatalerr("failed to open database", err)
	}
	_, err = database.Exec(timetabledb.Schema)
	if err != nil {
		fatalerr("failed to apply schedule schema", err)
	}
	_, err = database.Exec(subscriptiondb.Schema)
	if err != nil {
		fatalerr("failed to apply subscriber schema", err)
	}

	timetableSvc := timetable.NewService(database, config.Site)
	subscriptionSvc := subscription.NewService(
		database,
		notifier.NewMailer(config.Notify.Smtp),
		config.Notify.SiteBaseURL,
	)
	notifierSvc := notifier.NewService(timetableSvc, subscriptionSvc, config.Notify)
	bookingSvc := booking.NewService(config.Site.BaseUrl)

	router := NewRouter(Services{
		Booking:      bookingSvc,
		Timetable:    timetableSvc,
		Subscription: subscriptionSvc,
		Notifier:     notifierSvc,
	})

	slog.Info("listening...", "addr", config.Listen)
	err = router.Run(config.Listen)
	if err != nil {
		fatalerr("failed to serve", err)
	}
}
