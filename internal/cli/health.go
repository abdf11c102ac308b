package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server is up and count its live rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if result.Status != "ok" {
				return fmt.Errorf("server unhealthy: %s", result.Status)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
