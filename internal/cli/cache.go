package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewCacheCommand groups local cache maintenance.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the local event and profile cache",
	}

	cmd.AddCommand(newCachePruneCommand(rootOpts))
	cmd.AddCommand(newCacheClearProfileCommand(rootOpts))

	return cmd
}

func newCachePruneCommand(rootOpts *RootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Evict rows not synced within --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cfg, err := rootOpts.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if olderThan <= 0 {
				olderThan = cfg.Cache.TTL
			}
			if olderThan <= 0 {
				return errors.New("--older-than is required when CACHE_TTL is not set")
			}

			n, err := a.Cached.Prune(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			out := struct {
				Removed int64 `json:"removed"`
			}{Removed: n}
			return rootOpts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "removed %d rows\n", n)
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "evict rows last synced before now minus this duration, defaults to CACHE_TTL")

	return cmd
}

func newCacheClearProfileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-profile <user-id>",
		Short: "Remove the cached profile of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := rootOpts.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Profiles.ClearProfile(ctx, args[0]); err != nil {
				return err
			}
			out := struct {
				Cleared string `json:"cleared"`
			}{Cleared: args[0]}
			return rootOpts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "cleared profile %s\n", args[0])
			})
		},
	}
}
