package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"posguard/cmd/posctl/client"
)

// DiagnoseCommand returns the diagnose command
func DiagnoseCommand() *cli.Command {
	return &cli.Command{
		Name:      "diagnose",
		Usage:     "Run a ping burst against a target through the agent",
		ArgsUsage: "<ip-or-hostname>",
		Action:    diagnoseAction,
	}
}

func diagnoseAction(ctx context.Context, c *cli.Command) error {
	target := c.Args().First()
	if target == "" {
		return fmt.Errorf("diagnostics target is required")
	}

	httpClient := client.NewHTTPClient(resolveAgentURL(c))

	result, err := httpClient.Diagnose(target)
	if err != nil {
		return fmt.Errorf("diagnostics failed: %w", err)
	}

	return printJSON(result)
}
