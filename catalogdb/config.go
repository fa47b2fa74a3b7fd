package catalogdb

import "makro.app/internal/appconf"

// Config holds configuration options for the Client
type Config struct {
	DBPath      string              // Path to SQLite database file
	Env         appconf.Environment // Test requires an in-memory database
	DefaultFare int                 // Flat price given to imported GTFS routes
	verbose     bool
}

func NewConfig(dbPath string, env appconf.Environment, defaultFare int, verbose bool) Config {
	return Config{
		DBPath:      dbPath,
		Env:         env,
		DefaultFare: defaultFare,
		verbose:     verbose,
	}
}
