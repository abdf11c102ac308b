package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/connectaword/internal/dependencies/clock"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/auth"
)

func newTokenCmd() *cobra.Command {
	var secret string
	var ttl time.Duration
	var save bool

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a token locally with the server's secret",
		Long: `Sign a token for any user id with the server's AUTH_SECRET.

Ids that are not registered accounts join games as guests.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or AUTH_SECRET is required")
			}

			svc := auth.New(nil, clock.New(), auth.Config{Secret: secret, TokenTTL: ttl})
			token, err := svc.Issue(model.UserID(args[0]))
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			if save {
				if err := cfg.SaveToken(token); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(TokenResult{Token: token})
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("AUTH_SECRET"), "Signing secret (env: AUTH_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "Save the token to the token file")

	return cmd
}
