package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewReconcileCommand runs one reconciliation sweep over all users and events.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair one-sided registration and ownership links",
		Long: `Scan every user and event document and repair links that only one side
records. The event side is authoritative for registrations, the ownerId field
for created events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := rootOpts.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Membership.Reconcile(ctx)
			if err != nil {
				return fmt.Errorf("reconcile failed: %w", err)
			}

			return rootOpts.print(cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprintf(w, "users repaired:  %d\n", report.UsersRepaired)
				fmt.Fprintf(w, "events repaired: %d\n", report.EventsRepaired)
				fmt.Fprintf(w, "links added:     %d\n", report.LinksAdded)
				fmt.Fprintf(w, "links removed:   %d\n", report.LinksRemoved)
				fmt.Fprintf(w, "errors:          %d\n", report.Errors)
			})
		},
	}
}
