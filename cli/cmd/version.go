package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/lookahead/cli/render"
	"github.com/pithecene-io/lookahead/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version      string `json:"version"`
	Commit       string `json:"commit"`
	FrameVersion string `json:"frame_version"`
}

// VersionCommand returns the version command.
// It must not contact the search API.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  []cli.Flag{FormatFlag},
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitFailure)
		}

		return r.Render(VersionResponse{
			Version:      types.Version,
			Commit:       commit,
			FrameVersion: types.FrameVersion,
		})
	}
}
