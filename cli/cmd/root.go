package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/Huddle/cli/internal/ui"
	"github.com/BioHazard786/Huddle/cli/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "huddle",
	Short:   "Join and inspect Huddle video meetings from the terminal",
	Long: `Huddle is the terminal companion to the Huddle meeting coordinator. It joins
meetings alongside browser participants, lets the host admit or reject people
from the waiting room, chats, checks peer-to-peer connectivity with every
member, and shows what the coordinator is currently serving.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
