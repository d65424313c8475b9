package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardkeep/wardkeep/internal/config"
	"github.com/wardkeep/wardkeep/internal/service"
)

func addAPIFlags(cmd *cobra.Command, flags *APIFlags) {
	cmd.Flags().StringVar(&flags.URL, "api-url", "", "daemon URL (default http://127.0.0.1:8321)")
	cmd.Flags().StringVar(&flags.Timeout, "api-timeout", "10s", "request timeout")
}

func clientFrom(flags *APIFlags) (*APIClient, error) {
	timeout, err := time.ParseDuration(flags.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid api-timeout: %w", err)
	}
	return NewAPIClient(flags.URL, timeout), nil
}

func createStartCommand() *cobra.Command {
	apiFlags := &APIFlags{}
	var svc string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start one service",
		Long: `Start one of the supervised services via the daemon.

Examples:
  wardkeep start --service=database
  wardkeep start --service=world`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := service.ParseKind(svc); err != nil {
				return err
			}
			c, err := clientFrom(apiFlags)
			if err != nil {
				return err
			}
			return c.Start(svc)
		},
	}
	cmd.Flags().StringVar(&svc, "service", "", "service to start (required)")
	addAPIFlags(cmd, apiFlags)
	if err := cmd.MarkFlagRequired("service"); err != nil {
		panic(err)
	}
	return cmd
}

func createStopCommand() *cobra.Command {
	apiFlags := &APIFlags{}
	var svc string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop one service",
		Long: `Stop one of the supervised services. The daemon runs the staged
shutdown for the service and sweeps any stray processes left behind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := service.ParseKind(svc); err != nil {
				return err
			}
			c, err := clientFrom(apiFlags)
			if err != nil {
				return err
			}
			return c.Stop(svc)
		},
	}
	cmd.Flags().StringVar(&svc, "service", "", "service to stop (required)")
	addAPIFlags(cmd, apiFlags)
	if err := cmd.MarkFlagRequired("service"); err != nil {
		panic(err)
	}
	return cmd
}

func createStatusCommand() *cobra.Command {
	apiFlags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of all services",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(apiFlags)
			if err != nil {
				return err
			}
			sts, err := c.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, st := range sts {
				line := fmt.Sprintf("%-12s %-9s countdown=%ds", st.DisplayName, st.State, st.Countdown)
				if st.PID > 0 {
					line += fmt.Sprintf(" pid=%d", st.PID)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	addAPIFlags(cmd, apiFlags)
	return cmd
}

func createAutorestartCommand() *cobra.Command {
	apiFlags := &APIFlags{}
	var enabled string
	cmd := &cobra.Command{
		Use:   "autorestart",
		Short: "Toggle the auth server restart hook",
		Long: `Toggle the restart hook: when enabled, an auth server exit that was
not requested launches the Start-AutoRestart script found next to the
auth server executable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseBool(enabled)
			if err != nil {
				return fmt.Errorf("invalid --enabled value %q", enabled)
			}
			c, err := clientFrom(apiFlags)
			if err != nil {
				return err
			}
			return c.SetAutorestart(v)
		},
	}
	cmd.Flags().StringVar(&enabled, "enabled", "", "true or false (required)")
	addAPIFlags(cmd, apiFlags)
	if err := cmd.MarkFlagRequired("enabled"); err != nil {
		panic(err)
	}
	return cmd
}

func createSweepCommand() *cobra.Command {
	apiFlags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep stray service processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(apiFlags)
			if err != nil {
				return err
			}
			return c.Sweep()
		},
	}
	addAPIFlags(cmd, apiFlags)
	return cmd
}

func createPathCommand(globalFlags *GlobalFlags) *cobra.Command {
	var svc, set string
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show or set a service executable path",
		Long: `Show or set the executable path stored for a service in the settings
file. Paths are edited directly in the settings file, not via the daemon.

Examples:
  wardkeep path --service=auth
  wardkeep path --service=auth --set=/opt/core/authserver`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := service.ParseKind(svc)
			if err != nil {
				return err
			}
			cfg, err := config.Load(globalFlags.ConfigPath)
			if err != nil {
				return err
			}
			if set != "" {
				return cfg.SetPath(k, set)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.PathFor(k))
			return nil
		},
	}
	cmd.Flags().StringVar(&svc, "service", "", "service name (required)")
	cmd.Flags().StringVar(&set, "set", "", "new executable path")
	if err := cmd.MarkFlagRequired("service"); err != nil {
		panic(err)
	}
	return cmd
}
