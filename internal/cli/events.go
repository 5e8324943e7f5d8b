package cli

import (
	"crypto/tls"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/sportify-server/internal/api/grpc/handler"
	"github.com/dtroode/sportify-server/internal/config"
	"github.com/dtroode/sportify-server/internal/token"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Addr   string
	UserID string
	TLS    bool
	Scope  string
}

var listMethods = map[string]string{
	"all":        "ListEvents",
	"registered": "ListRegisteredEvents",
	"created":    "ListCreatedEvents",
}

// NewEventsCommand queries a running server through its gRPC API.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query events through a running server",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List events as seen by --as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsList(opts, cmd)
		},
	}
	list.Flags().StringVar(&opts.Scope, "scope", "all", "all|registered|created")

	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "localhost:50051", "server address")
	cmd.PersistentFlags().StringVar(&opts.UserID, "as", "", "user id the call is made as (required)")
	cmd.PersistentFlags().BoolVar(&opts.TLS, "tls", false, "dial with TLS")
	_ = cmd.MarkPersistentFlagRequired("as")

	cmd.AddCommand(list)

	return cmd
}

func runEventsList(opts *EventsOptions, cmd *cobra.Command) error {
	method, ok := listMethods[opts.Scope]
	if !ok {
		return fmt.Errorf("invalid scope %q", opts.Scope)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	tok, err := token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL).GenerateAccessToken(opts.UserID)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	creds := insecure.NewCredentials()
	if opts.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	conn, err := grpc.NewClient(opts.Addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", opts.Addr, err)
	}
	defer conn.Close()

	ctx := metadata.AppendToOutgoingContext(cmd.Context(), "authorization", "Bearer "+tok)
	resp, err := handler.NewClient(conn).Call(ctx, method, nil)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}

	listing := resp.AsMap()
	return opts.print(cmd.OutOrStdout(), listing, func(w io.Writer) {
		writeListing(w, listing)
	})
}

func writeListing(w io.Writer, listing map[string]any) {
	events, _ := listing["events"].([]any)
	for _, item := range events {
		e, _ := item.(map[string]any)
		registered, _ := e["registeredUsers"].([]any)
		fmt.Fprintf(w, "%v\t%v\t%v %v\t%v\t%d/%v\n",
			e["id"], e["eventName"], e["date"], e["time"], e["sportType"], len(registered), e["participants"])
	}
	if fromCache, _ := listing["fromCache"].(bool); fromCache {
		fmt.Fprintln(w, "(served from cache)")
	}
}
