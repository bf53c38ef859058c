package database

import (
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name.
// sslmode=disable is added when the URL does not set it, and an
// application_name is attached so sessions show up in pg_stat_activity.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return baseURL
	}
	u.Path = "/" + databaseName

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	if q.Get("application_name") == "" {
		q.Set("application_name", "pcbank")
	}
	u.RawQuery = q.Encode()

	return u.String()
}
