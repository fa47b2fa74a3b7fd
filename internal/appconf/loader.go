package appconf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path on top of Default, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags on the whole configuration tree.
func Validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ParseAPIKeys splits a comma separated list, dropping blanks.
func ParseAPIKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v, ok := lookup("APP_ENV"); ok && v != "" {
		cfg.EnvName = v
	}
	if v, ok := lookup("API_KEYS"); ok && v != "" {
		cfg.ApiKeys = ParseAPIKeys(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		cfg.Catalog.DatabaseURL = v
		cfg.Catalog.Backend = "postgres"
	}
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		cfg.Cache.RedisURL = v
		cfg.Cache.Backend = "redis"
	}
	if v, ok := lookup("TRAFFIC_PROVIDER"); ok && v != "" {
		cfg.Traffic.Provider = strings.ToLower(v)
	}
	if v, ok := lookup("GOOGLE_TRAFFIC_API_KEY"); ok && v != "" {
		cfg.Traffic.GoogleAPIKey = v
	}
	if v, ok := lookup("AMQP_URL"); ok && v != "" {
		cfg.SearchLog.AMQPURL = v
	}
	return nil
}
