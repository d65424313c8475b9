package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wardkeep/wardkeep/internal/config"
	"github.com/wardkeep/wardkeep/internal/history"
	"github.com/wardkeep/wardkeep/internal/history/factory"
	"github.com/wardkeep/wardkeep/internal/logger"
	"github.com/wardkeep/wardkeep/internal/metrics"
	"github.com/wardkeep/wardkeep/internal/server"
	"github.com/wardkeep/wardkeep/internal/supervisor"
)

// ServeFlags holds the daemon flags.
type ServeFlags struct {
	Listen   string
	LogLevel string
	Yes      bool
}

func createServeCommand(globalFlags *GlobalFlags, flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor daemon",
		Long: `Run the supervisor daemon: sweep stray service processes (after
confirmation), expose the HTTP control API, and keep the countdown and
state tickers running until interrupted.

Declining the startup sweep exits without starting anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(globalFlags, flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address (overrides the settings file)")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&flags.Yes, "yes", false, "skip the startup sweep confirmation")
	return cmd
}

func runServe(globalFlags *GlobalFlags, flags *ServeFlags, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Dir: cfg.LogDir(), Level: flags.LogLevel})
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	sup := supervisor.New(cfg, log)

	if dsn := cfg.HistoryDSN(); dsn != "" {
		sink, err := factory.NewSinkFromDSN(dsn)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		defer closeSink(sink)
		sup.SetHistorySinks(sink)
	}

	if !flags.Yes {
		ok, err := confirm(in, out, "Clean up stray service processes before starting? [y/N]: ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Startup cancelled.")
			return nil
		}
	}
	if err := sup.StartupSweep(context.Background()); err != nil {
		return err
	}

	listen := flags.Listen
	if listen == "" {
		listen = cfg.Listen()
	}
	srv := server.NewServer(listen, "", sup)
	sup.RunTickers()
	log.Info("daemon up", "listen", listen)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	log.Info("shutting down")
	sup.StopAll()
	sup.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	r := bufio.NewReader(in)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func closeSink(sink history.Sink) {
	if c, ok := sink.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
