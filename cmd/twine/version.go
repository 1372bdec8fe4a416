// Version command for the twine CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/twine/pkg/twine"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the twine version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("twine", twine.Version)
	},
}
