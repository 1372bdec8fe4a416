// Audit trail command.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit <ticket-id>",
	Short: "Show a ticket's audit trail, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trail, err := engine.Manager.AuditTrail(cmd.Context(), args[0], auditLimit)
		if err != nil {
			return err
		}
		return printResult(trail, func() {
			for _, rec := range trail {
				target := rec.LinkID
				if target == "" {
					target = rec.ContainerID
				}
				fmt.Printf("%s %-10s %s by %s\n",
					rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Action, target, rec.ActorID)
			}
		})
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum records to show")
}
