package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/drivesync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the drive API (default from Config)
//	-d string   path of the local metadata database
//	-i int      retry interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointURL, "a", cfg.ServerEndpointURL, "base URL of the drive API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local metadata database")
	retryInterval := fs.Int("i", int(cfg.RetryInterval.Seconds()), "retry interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RetryInterval = time.Duration(*retryInterval) * time.Second
}
