package config

import (
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
)

// Config holds runtime settings for the GophAuth CLI.
//
// Fields:
//   - APIBaseURL: scheme://host[:port] of the backend; the /api prefix is part of every path.
//   - RequestTimeout: upper bound for a single HTTP round-trip.
//   - StoreDriver: where persisted credentials live ("sqlite" or "redis").
//   - StorePath: SQLite database file (StoreDriver == "sqlite").
//   - RedisURL: redis:// URL (StoreDriver == "redis").
//   - APIKey / SecretKey: optional gateway headers sent with every request.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	StoreDriver    string
	StorePath      string
	RedisURL       string
	APIKey         string
	SecretKey      string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8081"
	c.RequestTimeout = 15 * time.Second
	c.StoreDriver = StoreDriverSQLite
	c.StorePath = "gophauth.db"
	c.RedisURL = "redis://127.0.0.1:6379/0"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from os.Args and the process environment.
func LoadConfig() *Config {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then the optional config file, then the
// environment (including a .env file in the working directory), then flags.
// Later sources take precedence over earlier ones.
func Load(args []string, lookup func(string) (string, bool)) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path := flagx.ConfigFileFlag(args); path != "" {
		parseFile(cfg, path)
	}
	loadDotEnv(".env")
	parseEnv(cfg, lookup)
	parseFlags(cfg, args)
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return cfg
}
