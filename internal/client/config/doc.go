// Package config loads runtime configuration for the drivesync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the drive API
//	-d string   path of the local metadata database
//	-i int      retry interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_url": "https://drive.example.com",
//	  "database_path": "/var/lib/drivesync/meta.db",
//	  "retry_max_attempts": 6,
//	  "retry_interval": "5s",
//	  "refresh_concurrency": 4
//	}
//
// Primary API
//
//   - type Config: runtime settings of the client
//   - func LoadConfig() *Config: builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults(): sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
