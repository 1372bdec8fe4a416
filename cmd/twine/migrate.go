// Migration command: move a ticket's link set onto a position.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/twine/pkg/types"
)

var (
	migrateTarget string
	migrateAtomic bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <ticket-id>",
	Short: "Migrate a ticket's links onto a position",
	Long: `Migrate copies every active link of the ticket onto the target position
as import-tagged rows (requested links become related) and soft-deletes the
originals. With --atomic the whole set moves or nothing does; without it
each link is tried independently and failures are reported alongside.

Example:
  twine migrate t1 --to p1 --atomic`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := engine.Migrator.Migrate(cmd.Context(), args[0], migrateTarget, flagActorID, migrateAtomic)
		if err != nil {
			var v *types.Violation
			if result != nil && errors.As(err, &v) && v.Code == types.CodeMigrationFailed {
				for _, f := range result.Failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s %s/%s: %s\n", f.LinkID, f.Entity.Type, f.Entity.ID, f.Message)
				}
			}
			return err
		}
		return printResult(result, func() {
			fmt.Printf("Migrated %d links, %d failed\n", result.MigratedCount, result.FailedCount)
			for _, m := range result.Mappings {
				fmt.Printf("  %s -> %s (%s -> %s)\n", m.SourceLinkID, m.TargetLinkID, m.OldLinkType, m.NewLinkType)
			}
			for _, f := range result.Failures {
				fmt.Printf("  failed %s %s/%s: %s\n", f.LinkID, f.Entity.Type, f.Entity.ID, f.Message)
			}
		})
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTarget, "to", "", "target position ID (required)")
	migrateCmd.Flags().BoolVar(&migrateAtomic, "atomic", false, "all-or-nothing migration")
	_ = migrateCmd.MarkFlagRequired("to")
}
