// Package cli implements eventctl, the administrative command line of the sportify server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dtroode/sportify-server/internal/app"
	"github.com/dtroode/sportify-server/internal/config"
	"github.com/dtroode/sportify-server/internal/logger"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string
	LogLevel int
}

// NewRootCommand creates the eventctl root command. Configuration is read
// from the same environment as the server.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "eventctl",
		Short: "Administer the sportify event store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.LogLevel, "log-level", 4, "slog level, 4 logs warnings and errors only")

	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

// open loads configuration and wires the application without a blob backend.
func (o *RootOptions) open(ctx context.Context, cmd *cobra.Command) (*app.App, *config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, o.logger(cmd), app.WithoutBlobs())
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

func (o *RootOptions) logger(cmd *cobra.Command) *logger.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), o.LogLevel)
}

// print writes v as indented JSON or, in text mode, as produced by text.
func (o *RootOptions) print(w io.Writer, v any, text func(w io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
