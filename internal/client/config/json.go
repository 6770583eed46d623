package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/drivesync/internal/flagx"
	"github.com/dmitrijs2005/drivesync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "5s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointURL    string         `json:"server_endpoint_url"`
	DatabasePath         string         `json:"database_path"`
	ResponseCacheLimit   *int           `json:"response_cache_limit"`
	RetryMaxAttempts     *int           `json:"retry_max_attempts"`
	RetryInterval        timex.Duration `json:"retry_interval"`
	RefreshConcurrency   *int           `json:"refresh_concurrency"`
	RefreshRetryAttempts *int           `json:"refresh_retry_attempts"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies set fields into the provided Config; absent fields keep their
//     previous (default) values.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointURL != "" {
		cfg.ServerEndpointURL = jc.ServerEndpointURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.ResponseCacheLimit != nil {
		cfg.ResponseCacheLimit = *jc.ResponseCacheLimit
	}
	if jc.RetryMaxAttempts != nil {
		cfg.RetryMaxAttempts = *jc.RetryMaxAttempts
	}
	if jc.RetryInterval.Duration != 0 {
		cfg.RetryInterval = time.Duration(jc.RetryInterval.Duration)
	}
	if jc.RefreshConcurrency != nil {
		cfg.RefreshConcurrency = *jc.RefreshConcurrency
	}
	if jc.RefreshRetryAttempts != nil {
		cfg.RefreshRetryAttempts = *jc.RefreshRetryAttempts
	}
}
