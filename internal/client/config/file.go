package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the DTO for config files. Pointer fields distinguish
// "absent" from "empty" so a partial file only overrides what it names.
type FileConfig struct {
	APIBaseURL     *string         `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	StoreDriver    *string         `json:"store_driver" yaml:"store_driver"`
	StorePath      *string         `json:"store_path" yaml:"store_path"`
	RedisURL       *string         `json:"redis_url" yaml:"redis_url"`
	APIKey         *string         `json:"api_key" yaml:"api_key"`
	SecretKey      *string         `json:"secret_key" yaml:"secret_key"`
	LogLevel       *string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the values found in path.
// Panics on read or decode errors, like the flag parser does.
func parseFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.StoreDriver, fc.StoreDriver)
	setString(&cfg.StorePath, fc.StorePath)
	setString(&cfg.RedisURL, fc.RedisURL)
	setString(&cfg.APIKey, fc.APIKey)
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
