package main

import (
	"jptraining-backend/lib/configuration"
	"jptraining-backend/services/notifier"
	"jptraining-backend/services/timetable"
)

type Config struct {
	// address for the API to listen on, e.g. "127.0.0.1:8080"
	Listen   string                 `json:"listen"`
	Site     timetable.SiteConfig   `json:"site"`
	Notify   notifier.Options       `json:"notify"`
	Database configuration.Database `json:"database"`
}
