// Package config loads the trailedit TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/trailedit/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// The TRAILEDIT_TOKEN environment variable, when set, replaces the token from
// the file so credentials can stay out of it.
//
// # TOML Format
//
//	server_url = "wss://trails.example.org/socket"
//	routing_url = "https://routing.example.org"
//	routing_profile = "foot"
//	token = "..."
//	snap_tolerance_px = 10
//	reconnect_attempts = 5
//	list_retries = 2
//	log_path = "~/.local/share/trailedit/trailedit.log"
//	log_mode = "production"   # or "development"
//	zoom = 16
//
// Every field is optional. Tilde expansion is performed on log_path.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than a
// missing file, TOML parse errors and an unknown log_mode. Out-of-range
// numbers fall back to their defaults.
package config
