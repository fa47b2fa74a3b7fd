package appconf

import (
	"strings"
	"time"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment converts the -env flag value into an Environment.
// Unknown values map to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds all the configuration settings for the Application.
type Config struct {
	Port      int             `yaml:"port" validate:"gt=0,lte=65535"`
	EnvName   string          `yaml:"env" validate:"omitempty,oneof=development test production prod"`
	Env       Environment     `yaml:"-"`
	ApiKeys   []string        `yaml:"api_keys"`
	RateLimit int             `yaml:"rate_limit" validate:"gte=0"`
	LogLevel  string          `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	Search    SearchConfig    `yaml:"search"`
	Traffic   TrafficConfig   `yaml:"traffic"`
	Cache     CacheConfig     `yaml:"cache"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	SearchLog SearchLogConfig `yaml:"search_log"`
}

type SearchConfig struct {
	TopK        int           `yaml:"top_k" validate:"gt=0"`
	CacheTTL    time.Duration `yaml:"cache_ttl" validate:"gt=0"`
	Concurrency int           `yaml:"concurrency" validate:"gt=0"`
}

// TrafficConfig selects and tunes the traffic delay provider.
type TrafficConfig struct {
	Provider          string        `yaml:"provider" validate:"omitempty,oneof=google mock simulated"`
	GoogleAPIKey      string        `yaml:"google_api_key"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxSimulatedDelay int           `yaml:"max_simulated_delay" validate:"gte=0"`
	MemoTTL           time.Duration `yaml:"memo_ttl" validate:"gte=0"`
	MemoSize          int           `yaml:"memo_size" validate:"gte=0"`
}

type CacheConfig struct {
	Backend         string        `yaml:"backend" validate:"oneof=memory redis none"`
	RedisURL        string        `yaml:"redis_url"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gte=0"`
}

type CatalogConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=postgres sqlite"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Backend postgres"`
	SQLitePath  string `yaml:"sqlite_path"`
	GTFSPath    string `yaml:"gtfs_path"`
	DefaultFare int    `yaml:"default_fare" validate:"gte=0"`
}

// SearchLogConfig controls where search events are recorded. An empty
// AMQPURL disables publishing; the repository follows the catalog backend.
type SearchLogConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AMQPURL    string `yaml:"amqp_url"`
	Exchange   string `yaml:"exchange" validate:"required_with=AMQPURL"`
	RoutingKey string `yaml:"routing_key" validate:"required_with=AMQPURL"`
}

// Default returns the configuration used when no file or override sets a value.
func Default() Config {
	return Config{
		Port:      4000,
		EnvName:   "development",
		Env:       Development,
		RateLimit: 100,
		LogLevel:  "info",
		Search: SearchConfig{
			TopK:        3,
			CacheTTL:    120 * time.Second,
			Concurrency: 8,
		},
		Traffic: TrafficConfig{
			Provider:          "google",
			Timeout:           5 * time.Second,
			MaxSimulatedDelay: 600,
			MemoTTL:           time.Minute,
			MemoSize:          10000,
		},
		Cache: CacheConfig{
			Backend:         "memory",
			RedisURL:        "redis://localhost:6379/0",
			CleanupInterval: 5 * time.Minute,
		},
		Catalog: CatalogConfig{
			Backend:    "sqlite",
			SQLitePath: "makro.db",
		},
		SearchLog: SearchLogConfig{
			Enabled:    true,
			Exchange:   "search_events",
			RoutingKey: "search.performed",
		},
	}
}
