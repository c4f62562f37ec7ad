// Package config handles configuration loading for the keepsake binaries.
//
// # Overview
//
// Two files exist. keepsake-authority reads YAML. keepsake-admin and
// keepsake-shop share a TOML client file. Both expand ${VAR_NAME}
// references from the environment before parsing and validate the result.
//
// # Authority Configuration
//
// Locations (in order):
//
//  1. Path from KEEPSAKE_AUTHORITY_CONFIG
//  2. ./authority.yaml
//  3. $XDG_CONFIG_HOME/keepsake/authority.yaml
//
// Example:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  allowed_origins: ["https://example.org"]
//
//	database:
//	  driver: "sqlite"          # sqlite, sqlite3 (cgo) or pgx
//	  dsn: "/var/lib/keepsake/keepsake.db"
//
//	auth:
//	  jwt_secret: "${KEEPSAKE_JWT_SECRET}"   # at least 32 bytes
//
//	verification:
//	  secret_key: "${TURNSTILE_SECRET}"
//	  timeout: "10s"
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Console Configuration
//
// Locations: KEEPSAKE_CONSOLE_CONFIG, then
// $XDG_CONFIG_HOME/keepsake/console.toml.
//
//	[authority]
//	url = "https://project.example.co"
//	anon_key = "${KEEPSAKE_ANON_KEY}"
//
//	[verification]
//	site_key = "0x4AAAA..."
//	token_lifetime = "300s"
//
//	[console]
//	language = "zh-CN"
//	notification_duration = "3s"
//
// Flags registered through ConsoleOverrides (--url, --anon-key, --lang,
// --log-level) replace file values, and the file may be absent when they
// supply the authority settings.
//
// Durations use time.ParseDuration syntax and must be positive.
package config
