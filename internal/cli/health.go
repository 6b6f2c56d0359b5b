package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the room server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult
			if err := client.Get("/api/v1/health", &result); err != nil {
				return fmt.Errorf("server at %s is unreachable: %w", cfg.ServerURL, err)
			}
			if result.Status != "ok" {
				return fmt.Errorf("server at %s reported status %q", cfg.ServerURL, result.Status)
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
