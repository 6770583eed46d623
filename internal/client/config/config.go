package config

import "time"

// Config holds runtime settings for the drivesync client.
//
// Fields:
//   - ServerEndpointURL: base URL of the drive API.
//   - DatabasePath: path of the local SQLite metadata store.
//   - ResponseCacheLimit: max operations tracked by the response cache.
//   - RetryMaxAttempts / RetryInterval: bounded-retry policy for flaky
//     provider and remote calls.
//   - RefreshConcurrency: parallel node fetches during a refresh pass.
//   - RefreshRetryAttempts: per-node retry budget during a refresh pass.
type Config struct {
	ServerEndpointURL    string
	DatabasePath         string
	ResponseCacheLimit   int
	RetryMaxAttempts     int
	RetryInterval        time.Duration
	RefreshConcurrency   int
	RefreshRetryAttempts int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabasePath = "drivesync.db"
	c.ResponseCacheLimit = 1024
	c.RetryMaxAttempts = 6
	c.RetryInterval = 5 * time.Second
	c.RefreshConcurrency = 4
	c.RefreshRetryAttempts = 3
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
