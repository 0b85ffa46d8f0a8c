package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/lookahead/cli/render"
	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/types"
)

var errInterrupted = errors.New("interrupted")

// QueryCommand returns the one-shot query command.
// It sends exactly one request with no debounce and renders the results.
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run a single search and print the results",
		ArgsUsage: "<text>",
		Flags: joinFlags(
			FetcherFlags(),
			[]cli.Flag{FormatFlag},
		),
		Action: queryAction,
	}
}

func queryAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("query text is required", exitFailure)
	}
	text := strings.Join(c.Args().Slice(), " ")

	s, err := loadSettings(c)
	if err != nil {
		return configExit(err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	logger, closeLog, err := openLogger(s, newSessionID(), "query", os.Stderr)
	if err != nil {
		return configExit(err)
	}
	defer closeLog()

	client, err := fetcher.New(s.fetcher)
	if err != nil {
		return configExit(err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	movies, err := runQuery(ctx, client, text)
	if err != nil {
		logger.Error("query failed", map[string]any{
			"kind":  fetcher.KindName(err),
			"error": err.Error(),
		})
		return cli.Exit(err.Error(), exitFailure)
	}

	return r.RenderMovies(movies)
}

// runQuery fetches text once. Blank text yields no results without a request,
// matching the interactive pipeline.
func runQuery(ctx context.Context, f fetcher.Fetcher[types.Movie], text string) ([]types.Movie, error) {
	if strings.TrimSpace(text) == "" {
		return []types.Movie{}, nil
	}

	movies, err := f.Fetch(ctx, text)
	if err != nil {
		if fetcher.IsCanceled(err) {
			return nil, errInterrupted
		}
		return nil, err
	}
	return movies, nil
}
