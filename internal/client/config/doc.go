// Package config loads runtime configuration for the GophAuth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are decoded as YAML, everything else as JSON.
//  3. Environment variables, after a .env file in the working directory has
//     been loaded into the process environment (existing variables win).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   backend base URL, e.g. http://127.0.0.1:8081
//	-t int      request timeout (seconds)
//	-s string   credential store driver: sqlite | redis
//	-p string   SQLite database path
//	-r string   Redis URL
//	-l string   log level
//
// Environment
//
//	GOPHAUTH_API_BASE_URL, GOPHAUTH_REQUEST_TIMEOUT ("15s"),
//	GOPHAUTH_STORE_DRIVER, GOPHAUTH_STORE_PATH, GOPHAUTH_REDIS_URL,
//	GOPHAUTH_API_KEY, GOPHAUTH_SECRET_KEY, GOPHAUTH_LOG_LEVEL
//
// File schema
//
//	{
//	  "api_base_url": "http://127.0.0.1:8081",
//	  "request_timeout": "15s",
//	  "store_driver": "sqlite",
//	  "store_path": "gophauth.db",
//	  "redis_url": "redis://127.0.0.1:6379/0",
//	  "api_key": "",
//	  "secret_key": "",
//	  "log_level": "info"
//	}
//
// Keys absent from the file keep their previous values.
package config
