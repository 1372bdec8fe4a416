// Shared helpers for twine CLI commands.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// cliActor builds the acting user from the global flags.
func cliActor() types.Actor {
	return types.Actor{
		ID:             flagActorID,
		Clearance:      flagClearance,
		OrganizationID: flagOrgID,
	}
}

// printResult renders v as indented JSON in --json mode, or hands it to
// human for plain output.
func printResult(v any, human func()) error {
	if flagJSON {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	human()
	return nil
}

// linkLine is the one-line human rendering of a link.
func linkLine(l *types.EntityLink) string {
	state := "active"
	if !l.Active() {
		state = "deleted"
	}
	return fmt.Sprintf("%2d. [%s] %s %s/%s (v%d, %s, %s)",
		l.LinkOrder, l.LinkType, l.LinkID, l.Entity.Type, l.Entity.ID,
		l.Version, l.Source, state)
}
