// Package config loads trawl's configuration.
//
// # Resolution Order
//
//  1. Built-in defaults (Default)
//  2. The TOML file at the given path, or ~/.config/trawl/config.toml
//  3. TRAWL_* environment variables (a .env file is loaded into the
//     environment by the command before Load runs)
//  4. Command-line flags, applied by the caller after Load
//
// A missing config file is not an error. Fields left empty in the file keep
// their defaults.
//
// # TOML Format
//
//	hub_url = "127.0.0.1:8898"
//	filter = "http and response.status >= 500"
//	page_size = 100
//	fetch_timeout_ms = 3000
//	buffer_capacity = 10000
//	log_file = "~/.local/state/trawl/trawl.log"
//	log_level = "info"
//	metrics_addr = ""
//
// Tilde expansion is applied to the config path and log_file.
//
// # Environment
//
//   - TRAWL_HUB_URL: hub address; blank values are ignored
//   - TRAWL_FILTER: initial filter; an empty value clears the file's filter
//   - TRAWL_LOG_LEVEL: debug, info, warn or error
//   - TRAWL_METRICS_ADDR: listen address for /metrics; empty disables it
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, TOML
// parse errors, and values rejected by Validate (non-positive sizes or
// timeout, unknown log level, empty hub URL).
package config
