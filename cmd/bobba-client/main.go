package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omochice/bobba-client/pkg/protocol"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bobba-client",
		Short: "Headless client for the bobba virtual world",
		Long: `bobba-client connects to a game server, logs in, enters the home room
and logs every event it receives. Lines typed on stdin are sent as chat;
commands start with a colon:

  :wave        wave
  :walk X Y    walk to a tile
  :use ID      interact with a floor item
  :buy ID      purchase a catalogue item
  :quit        disconnect and exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bobba-client %s (%s), protocol v%d\n", version, commit, protocol.Version)
		},
	}
}
