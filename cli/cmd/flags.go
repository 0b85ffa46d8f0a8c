// Package cmd provides CLI commands for the lookahead binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/lookahead/pipeline"
)

// TokenEnvVar supplies the API token when --token is not given.
const TokenEnvVar = "LOOKAHEAD_TOKEN"

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// ConfigFlag points at a lookahead.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML config file (flags override file values)",
	}

	// TokenFlag is the bearer token for the movie search API.
	TokenFlag = &cli.StringFlag{
		Name:    "token",
		Usage:   "Movie search API bearer token",
		EnvVars: []string{TokenEnvVar},
	}

	// BaseURLFlag overrides the movie search API root.
	BaseURLFlag = &cli.StringFlag{
		Name:  "base-url",
		Usage: "Movie search API root URL",
	}

	// LogLevelFlag sets the minimum log level.
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
	}
)

// FetcherFlags returns the flags every command that talks to the API needs.
func FetcherFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		TokenFlag,
		BaseURLFlag,
		LogLevelFlag,
	}
}

// PipelineFlags returns the debounce flags for interactive commands.
func PipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  "quiet-period",
			Usage: "Quiet period after the last keystroke before a search is sent",
			Value: pipeline.DefaultQuietPeriod,
		},
		&cli.DurationFlag{
			Name:  "fetch-timeout",
			Usage: "Upper bound on a single search request (0 = fetcher default)",
		},
	}
}

// AdapterFlags returns flags for the results-ready relay.
func AdapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Relay results to an adapter: webhook, redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Adapter endpoint URL (webhook URL or redis://...)",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.BoolFlag{
			Name:  "adapter-per-session",
			Usage: "Publish redis events on <channel>:<session id>",
		},
		&cli.StringSliceFlag{
			Name:  "adapter-header",
			Usage: "Webhook header as key=value (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-publish timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Retries per publish",
		},
	}
}

func joinFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
