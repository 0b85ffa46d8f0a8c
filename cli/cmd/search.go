package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/lookahead/cli/render"
	"github.com/pithecene-io/lookahead/cli/tui"
	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/metrics"
	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// failureBuffer bounds queued failures for the search screen.
const failureBuffer = 16

// SearchCommand returns the interactive search command.
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search movies interactively as you type",
		Flags: joinFlags(
			FetcherFlags(),
			PipelineFlags(),
			AdapterFlags(),
			[]cli.Flag{
				FormatFlag,
				&cli.StringFlag{
					Name:  "log-file",
					Usage: "Write logs to this file (logs are discarded otherwise)",
				},
				&cli.BoolFlag{
					Name:  "stats",
					Usage: "Print session statistics to stderr on exit",
				},
			},
		),
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return configExit(err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	sessionID := newSessionID()
	logger, closeLog, err := openLogger(s, sessionID, "search", io.Discard)
	if err != nil {
		return configExit(err)
	}
	defer closeLog()

	client, err := fetcher.New(s.fetcher)
	if err != nil {
		return configExit(err)
	}

	collector := metrics.NewCollector(sessionID, client.Endpoint())
	failures := make(chan pipeline.Failure, failureBuffer)

	p, a, err := newPipeline(s, client, pipeline.Config{
		OnError: func(f pipeline.Failure) {
			select {
			case failures <- f:
			default:
			}
		},
		Logger:  logger.Named("pipeline"),
		Metrics: collector,
	})
	if err != nil {
		return configExit(err)
	}
	defer p.Dispose()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			p.Dispose()
		case <-ctx.Done():
		}
	}()

	waitRelay := startRelay(ctx, a, p, sessionID, logger, collector)

	logger.Info("search session started", map[string]any{
		"endpoint":     client.Endpoint(),
		"quiet_period": s.quietPeriod.String(),
		"adapter":      s.adapter.Type,
	})

	chosen, runErr := tui.Run(p, failures)

	p.Dispose()
	cancel()
	waitRelay()

	snap := collector.Snapshot()
	logger.Info("search session ended", map[string]any{
		"submissions": snap.Submissions,
		"dispatches":  snap.Dispatches,
		"coalesced":   snap.Coalesced(),
		"failures":    snap.FetchFailures,
	})

	if c.Bool("stats") {
		fmt.Fprintln(os.Stderr, tui.RenderSessionStats(snap))
	}

	if runErr != nil {
		return cli.Exit(runErr.Error(), exitFailure)
	}
	if chosen == nil {
		return nil
	}
	if err := r.RenderMovies([]types.Movie{*chosen}); err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	return nil
}
