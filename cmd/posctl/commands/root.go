package commands

import (
	"github.com/urfave/cli/v3"

	"posguard/version"
)

// NewApp creates the root CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "posctl",
		Usage:   "posguard CLI - inspect the local network health agent",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "agent",
				Usage: "Agent URL",
			},
		},
		Commands: []*cli.Command{
			StatusCommand(),
			DevicesCommand(),
			DiagnoseCommand(),
		},
	}
}
