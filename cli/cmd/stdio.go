package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/ipc"
	"github.com/pithecene-io/lookahead/metrics"
	"github.com/pithecene-io/lookahead/pipeline"
)

// StdioCommand returns the frame-based stdio command.
//
// Frames are read from stdin and state frames are written to stdout, so a
// host process can drive a search session without a terminal. Logs go to
// stderr or --log-file.
//
// Closing stdin ends the session once the last submitted text has settled,
// so its ready state or failure frame is still written. A close frame ends
// the session immediately.
func StdioCommand() *cli.Command {
	return &cli.Command{
		Name:  "stdio",
		Usage: "Serve a search session over length-prefixed msgpack frames on stdin/stdout",
		Flags: joinFlags(
			FetcherFlags(),
			PipelineFlags(),
			AdapterFlags(),
			[]cli.Flag{
				&cli.StringFlag{
					Name:  "log-file",
					Usage: "Write logs to this file instead of stderr",
				},
			},
		),
		Action: stdioAction,
	}
}

func stdioAction(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return configExit(err)
	}

	sessionID := newSessionID()
	logger, closeLog, err := openLogger(s, sessionID, "stdio", os.Stderr)
	if err != nil {
		return configExit(err)
	}
	defer closeLog()

	client, err := fetcher.New(s.fetcher)
	if err != nil {
		return configExit(err)
	}

	collector := metrics.NewCollector(sessionID, client.Endpoint())
	port := ipc.NewPort(os.Stdin, os.Stdout, logger.Named("port"), collector)

	p, a, err := newPipeline(s, client, pipeline.Config{
		OnError: port.ReportFailure,
		Logger:  logger.Named("pipeline"),
		Metrics: collector,
	})
	if err != nil {
		return configExit(err)
	}
	defer p.Dispose()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	waitRelay := startRelay(ctx, a, p, sessionID, logger, collector)

	err = port.Serve(ctx, p)
	p.Dispose()
	waitRelay()

	snap := collector.Snapshot()
	logger.Info("stdio session ended", map[string]any{
		"submissions":         snap.Submissions,
		"dispatches":          snap.Dispatches,
		"failures":            snap.FetchFailures,
		"frame_decode_errors": snap.FrameDecodeErrors,
	})

	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	return nil
}
