// Root command for the twine CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/twine/internal/paths"
	"github.com/mesh-intelligence/twine/pkg/twine"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool

	flagActorID   string
	flagClearance int
	flagOrgID     string
)

// configDataDir holds the data_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDataDir string

// engine is the opened service stack, initialized on startup and closed by
// PersistentPostRunE.
var engine *twine.Engine

// loadedConfig is the normalized config from config.yaml, kept for
// subcommands that read more than the data directory.
var loadedConfig types.Config

var rootCmd = &cobra.Command{
	Use:     "twine",
	Short:   "Twine links intake tickets to case-management records",
	Version: twine.Version,
	Long: `Twine manages entity links for a diplomatic case-management system:
creating, updating, reordering, and migrating the links that tie intake
tickets to dossiers, positions, and other records, with an audit trail
and AI-assisted link suggestions.`,
	SilenceUsage:       true,
	PersistentPreRunE:  openEngine,
	PersistentPostRunE: closeEngine,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.twine)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.twine-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.PersistentFlags().StringVar(&flagActorID, "actor", "cli", "acting user ID recorded on mutations")
	rootCmd.PersistentFlags().IntVar(&flagClearance, "clearance", 0, "acting user's clearance level")
	rootCmd.PersistentFlags().StringVar(&flagOrgID, "org", "", "acting user's organization ID")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(auditCmd)
}

// openEngine loads config and opens the service stack. Skipped for commands
// that do not touch the store.
func openEngine(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	configDataDir = cfg.DataDir

	dataDir, err := paths.ResolveDataDir(flagDataDir, configDataDir)
	if err != nil {
		return err
	}
	cfg.DataDir = dataDir
	loadedConfig = cfg

	engine, err = twine.Open(cfg)
	return err
}

// closeEngine drains audit writes and releases the store.
func closeEngine(cmd *cobra.Command, args []string) error {
	if engine == nil {
		return nil
	}
	return engine.Close()
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the twine store",
	Long:  "Init creates the data directory, applies the schema, and seeds sample records.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.Store.Seed(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("twine store initialized")
		return nil
	},
}
