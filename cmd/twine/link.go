// Link lifecycle commands: add, list, update, delete, restore, reorder,
// and reverse lookup.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/twine/internal/lifecycle"
	"github.com/mesh-intelligence/twine/pkg/types"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage entity links on an intake ticket",
}

var (
	linkTicketID   string
	linkEntityType string
	linkEntityID   string
	linkType       string
	linkNotes      string
	linkOrder      int
	linkVersion    int
	linkIncludeDel bool
	lookupType     string
	lookupPage     int
)

func init() {
	linkCmd.PersistentFlags().StringVar(&linkTicketID, "ticket", "", "intake ticket ID")

	linkAddCmd.Flags().StringVar(&linkEntityType, "entity-type", "", "target entity type (required)")
	linkAddCmd.Flags().StringVar(&linkEntityID, "entity-id", "", "target entity ID (required)")
	linkAddCmd.Flags().StringVar(&linkType, "type", types.LinkRelated, "link type")
	linkAddCmd.Flags().StringVar(&linkNotes, "notes", "", "link notes")
	_ = linkAddCmd.MarkFlagRequired("entity-type")
	_ = linkAddCmd.MarkFlagRequired("entity-id")

	linkListCmd.Flags().BoolVar(&linkIncludeDel, "include-deleted", false, "include soft-deleted links")

	linkUpdateCmd.Flags().StringVar(&linkType, "type", "", "new link type")
	linkUpdateCmd.Flags().StringVar(&linkNotes, "notes", "", "new notes")
	linkUpdateCmd.Flags().IntVar(&linkOrder, "order", 0, "new display ordinal")
	linkUpdateCmd.Flags().IntVar(&linkVersion, "link-version", 0, "version read before editing (required)")
	_ = linkUpdateCmd.MarkFlagRequired("link-version")

	linkLookupCmd.Flags().StringVar(&lookupType, "type", "", "filter by link type")
	linkLookupCmd.Flags().IntVar(&lookupPage, "page", 1, "result page")

	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkUpdateCmd)
	linkCmd.AddCommand(linkDeleteCmd)
	linkCmd.AddCommand(linkRestoreCmd)
	linkCmd.AddCommand(linkReorderCmd)
	linkCmd.AddCommand(linkLookupCmd)
}

var linkAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Link an entity to a ticket",
	Long: `Add creates one link after running the full validation policy.

Example:
  twine link add --ticket t1 --entity-type dossier --entity-id d1 --type related`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if linkTicketID == "" {
			return fmt.Errorf("--ticket is required")
		}
		link, err := engine.Manager.Create(cmd.Context(), linkTicketID, cliActor(), lifecycle.CreateRequest{
			Entity:   types.EntityRef{Type: linkEntityType, ID: linkEntityID},
			LinkType: linkType,
			Notes:    linkNotes,
		})
		if err != nil {
			return err
		}
		return printResult(link, func() {
			fmt.Println("Created link:", link.LinkID)
		})
	},
}

var linkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a ticket's links in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if linkTicketID == "" {
			return fmt.Errorf("--ticket is required")
		}
		links, err := engine.Manager.List(cmd.Context(), linkTicketID, linkIncludeDel)
		if err != nil {
			return err
		}
		return printResult(links, func() {
			for _, l := range links {
				fmt.Println(linkLine(l))
			}
		})
	},
}

var linkUpdateCmd = &cobra.Command{
	Use:   "update <link-id>",
	Short: "Update a link's type, notes, or ordinal",
	Long: `Update edits one link under optimistic concurrency: --link-version must
echo the version you read, and a concurrent edit fails with a conflict.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := lifecycle.UpdateRequest{Version: linkVersion}
		if cmd.Flags().Changed("type") {
			req.LinkType = &linkType
		}
		if cmd.Flags().Changed("notes") {
			req.Notes = &linkNotes
		}
		if cmd.Flags().Changed("order") {
			req.LinkOrder = &linkOrder
		}
		link, err := engine.Manager.Update(cmd.Context(), args[0], cliActor(), req)
		if err != nil {
			return err
		}
		return printResult(link, func() {
			fmt.Printf("Updated link %s to version %d\n", link.LinkID, link.Version)
		})
	},
}

var linkDeleteCmd = &cobra.Command{
	Use:   "delete <link-id>",
	Short: "Soft-delete a link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := engine.Manager.SoftDelete(cmd.Context(), args[0], cliActor())
		if err != nil {
			return err
		}
		return printResult(link, func() {
			fmt.Println("Deleted link:", link.LinkID)
		})
	},
}

var linkRestoreCmd = &cobra.Command{
	Use:   "restore <link-id>",
	Short: "Restore a soft-deleted link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := engine.Manager.Restore(cmd.Context(), args[0], cliActor())
		if err != nil {
			return err
		}
		return printResult(link, func() {
			fmt.Println("Restored link:", link.LinkID)
		})
	},
}

var linkReorderCmd = &cobra.Command{
	Use:   "reorder <link-id>...",
	Short: "Reorder a ticket's links",
	Long: `Reorder assigns ordinals 1..N to the given link IDs in argument order,
or explicit ordinals with <link-id>=<order> arguments. Every ID must belong
to the ticket or nothing is written.

Example:
  twine link reorder --ticket t1 l-3 l-1 l-2
  twine link reorder --ticket t1 l-1=2 l-3=1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if linkTicketID == "" {
			return fmt.Errorf("--ticket is required")
		}
		items := make([]lifecycle.ReorderItem, len(args))
		for i, arg := range args {
			if strings.Contains(arg, "=") {
				id, ord, err := parseOrder(arg)
				if err != nil {
					return err
				}
				items[i] = lifecycle.ReorderItem{LinkID: id, Order: ord}
				continue
			}
			items[i] = lifecycle.ReorderItem{LinkID: arg, Order: i + 1}
		}
		links, err := engine.Manager.Reorder(cmd.Context(), linkTicketID, cliActor(), items)
		if err != nil {
			return err
		}
		return printResult(links, func() {
			for _, l := range links {
				fmt.Println(linkLine(l))
			}
		})
	},
}

var linkLookupCmd = &cobra.Command{
	Use:   "lookup <entity-type> <entity-id>",
	Short: "List tickets linked to an entity",
	Long:  "Lookup is the reverse index: every ticket holding an active link to the entity, newest first.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := engine.Manager.Containers(cmd.Context(), types.EntityRef{Type: args[0], ID: args[1]}, types.ContainerQuery{
			Page:              lookupPage,
			LinkType:          lookupType,
			MaxClassification: cliActor().Clearance,
		})
		if err != nil {
			return err
		}
		return printResult(page, func() {
			for _, l := range page.Items {
				fmt.Printf("%s %s\n", l.ContainerID, linkLine(l))
			}
			fmt.Printf("page %d of %d (%d total)\n", page.Page, page.TotalPages, page.TotalCount)
		})
	},
}

// parseOrder splits a <link-id>=<order> reorder argument.
func parseOrder(arg string) (string, int, error) {
	id, ord, ok := strings.Cut(arg, "=")
	if !ok {
		return "", 0, fmt.Errorf("expected <link-id>=<order>, got %q", arg)
	}
	n, err := strconv.Atoi(ord)
	if err != nil {
		return "", 0, fmt.Errorf("invalid order in %q: %w", arg, err)
	}
	return id, n, nil
}
