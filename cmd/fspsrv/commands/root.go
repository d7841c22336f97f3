// Package commands implements the fspsrv CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fspsrv",
	Short: "fspsrv - filesystem service command engine",
	Long: `fspsrv implements the numbered-command filesystem service surface:
storage, file, directory, filesystem, and root proxy sessions with their
dispatch tables, backed by host directories or in-memory filesystems.

Use "fspsrv [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/fspsrv/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(replayCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
