package database

import (
	"net/url"
	"strings"
)

// ConstructDatabaseURL combines a base server URL with a database name.
// sslmode=disable is added when the URL does not set an sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return baseURL
	}

	parsed.Path = "/" + databaseName
	query := parsed.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
