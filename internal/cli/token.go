package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dtroode/sportify-server/internal/config"
	"github.com/dtroode/sportify-server/internal/token"
)

// NewTokenCommand mints an access token for a user, for local testing of the gRPC API.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWT.TTL
			}
			tok, err := token.NewJWT(cfg.JWT.Secret, ttl).GenerateAccessToken(args[0])
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			out := struct {
				UserID string `json:"userId"`
				Token  string `json:"token"`
			}{UserID: args[0], Token: tok}
			return rootOpts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, tok)
			})
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to JWT_TTL")

	return cmd
}
