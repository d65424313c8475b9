package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
}

// APIFlags holds the daemon connection flags for client subcommands.
type APIFlags struct {
	URL     string
	Timeout string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	serveFlags := &ServeFlags{}

	root := &cobra.Command{
		Use:   "wardkeep",
		Short: "Supervisor for the core server stack",
		Long: `Wardkeep starts, stops, and watches the fixed set of services a core
server deployment needs: the database, the auth server, the world server,
the game client, and the web server.

Examples:
  wardkeep serve --yes                 # Start the daemon, sweep strays
  wardkeep start --service=world       # Launch the world server
  wardkeep status                      # Show all five services
  wardkeep autorestart --enabled=true  # Arm the auth restart hook`,
	}

	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "config.json", "path to the settings file")

	root.AddCommand(
		createServeCommand(globalFlags, serveFlags),
		createStartCommand(),
		createStopCommand(),
		createStatusCommand(),
		createAutorestartCommand(),
		createSweepCommand(),
		createPathCommand(globalFlags),
	)
	return root
}
