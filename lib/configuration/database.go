package configuration

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Database struct {
	// path to a local sqlite file, used when Url is empty
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Database) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		if config.File == "" {
			return sql.Open("sqlite", ":memory:")
		}
		return sql.Open("sqlite", config.File)
	}

	dsn := config.Url
	if config.AuthToken != "" {
		u, err := url.Parse(config.Url)
		if err != nil {
			return nil, fmt.Errorf("invalid database url: %w", err)
		}
		query := u.Query()
		query.Set("authToken", config.AuthToken)
		u.RawQuery = query.Encode()
		dsn = u.String()
	}
	return sql.Open("libsql", dsn)
}
