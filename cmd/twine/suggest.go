// Suggestion commands: generate ranked suggestions and accept one as a link.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/twine/internal/suggest"
	"github.com/mesh-intelligence/twine/pkg/types"
)

var (
	acceptLinkType   string
	acceptConfidence float64
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <ticket-id>",
	Short: "Generate ranked link suggestions for a ticket",
	Long: `Suggest asks the AI service for candidate entities and ranks them by a
blend of similarity, recency, and alphabetical order. Requires the
OPENAI_API_KEY environment variable; repeat calls within the cache window
are served locally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := engine.Suggest.Generate(cmd.Context(), args[0], cliActor())
		if err != nil {
			return err
		}
		return printResult(set, func() {
			for _, s := range set.Suggestions {
				fmt.Printf("%2d. %s/%s %q score %.3f -> %s\n",
					s.Rank, s.Entity.Type, s.Entity.ID, s.Name, s.CombinedScore, s.SuggestedLinkType)
			}
			if set.CacheHit {
				fmt.Println("(cached)")
			}
		})
	},
}

var suggestAcceptCmd = &cobra.Command{
	Use:   "accept <ticket-id> <entity-type> <entity-id>",
	Short: "Accept a suggestion as an AI-sourced link",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := suggest.AcceptRequest{
			Entity:   types.EntityRef{Type: args[1], ID: args[2]},
			LinkType: acceptLinkType,
		}
		if cmd.Flags().Changed("confidence") {
			req.Confidence = &acceptConfidence
		}
		link, err := engine.Suggest.Accept(cmd.Context(), args[0], cliActor(), req)
		if err != nil {
			return err
		}
		return printResult(link, func() {
			fmt.Println("Created link:", link.LinkID)
		})
	},
}

func init() {
	suggestAcceptCmd.Flags().StringVar(&acceptLinkType, "type", types.LinkRelated, "link type to create")
	suggestAcceptCmd.Flags().Float64Var(&acceptConfidence, "confidence", 0, "similarity score carried onto the link")

	suggestCmd.AddCommand(suggestAcceptCmd)
}
