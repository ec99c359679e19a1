package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"posguard/cmd/posctl/client"
)

// DevicesCommand returns the devices command with subcommands
func DevicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "Inspect and manage the device inventory",
		Commands: []*cli.Command{
			listDevicesCommand(),
			monitorDeviceCommand(),
		},
	}
}

func listDevicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List discovered devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "monitored",
				Usage: "Only show monitored devices",
			},
		},
		Action: listDevicesAction,
	}
}

func listDevicesAction(ctx context.Context, c *cli.Command) error {
	httpClient := client.NewHTTPClient(resolveAgentURL(c))

	devices, err := httpClient.ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if c.Bool("monitored") {
		filtered := devices[:0]
		for _, d := range devices {
			if d.IsMonitored {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}

	return printJSON(devices)
}

func monitorDeviceCommand() *cli.Command {
	return &cli.Command{
		Name:      "monitor",
		Usage:     "Enable or disable monitoring for a device by MAC",
		ArgsUsage: "<mac>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "off",
				Usage: "Disable monitoring instead of enabling it",
			},
		},
		Action: monitorDeviceAction,
	}
}

func monitorDeviceAction(ctx context.Context, c *cli.Command) error {
	mac := c.Args().First()
	if mac == "" {
		return fmt.Errorf("device MAC is required")
	}

	httpClient := client.NewHTTPClient(resolveAgentURL(c))

	updated, err := httpClient.SetMonitored(mac, !c.Bool("off"))
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	return printJSON(updated)
}
