package main

import (
	"fmt"

	"github.com/jonathan/jobmarket/internal/client"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the auth gateway is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		gw, err := client.New(settings.GatewayURL, client.WithLogger(logger.Named("client")))
		if err != nil {
			return err
		}
		status, err := gw.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("gateway %s unreachable: %w", settings.GatewayURL, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", status.Service, status.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
