package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"posguard/cmd/posctl/client"
	"posguard/cmd/posctl/config"
	"posguard/cmd/posctl/output"
)

// StatusCommand returns the status command
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the latest network status and host vitals",
		Action: statusAction,
	}
}

func statusAction(ctx context.Context, c *cli.Command) error {
	httpClient := client.NewHTTPClient(resolveAgentURL(c))

	status, err := httpClient.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	return printJSON(status)
}

// resolveAgentURL applies the flag > env > config file > default priority
func resolveAgentURL(c *cli.Command) string {
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}

	agentURL := cfg.GetAgentURL()
	if c.IsSet("agent") {
		agentURL = c.String("agent")
	}
	return agentURL
}

func printJSON(data any) error {
	formatter := output.NewJSONFormatter()
	jsonOutput, err := formatter.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Println(jsonOutput)
	return nil
}
