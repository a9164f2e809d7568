package config

import (
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GOPHAUTH_"

// loadDotEnv copies variables from a .env file into the process environment.
// A missing file is not an error; variables already set are left untouched.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// parseEnv overlays cfg with GOPHAUTH_* variables. Empty values are ignored.
// Panics on a malformed GOPHAUTH_REQUEST_TIMEOUT.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"API_BASE_URL": &cfg.APIBaseURL,
		"STORE_DRIVER": &cfg.StoreDriver,
		"STORE_PATH":   &cfg.StorePath,
		"REDIS_URL":    &cfg.RedisURL,
		"API_KEY":      &cfg.APIKey,
		"SECRET_KEY":   &cfg.SecretKey,
		"LOG_LEVEL":    &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	if v, ok := get("REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.RequestTimeout = d
	}
}
