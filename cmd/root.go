// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package cmd implements the netcheck CLI.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netcheck/netcheck/cache"
	"github.com/netcheck/netcheck/config"
	"github.com/netcheck/netcheck/logging"
)

type args struct {
	configPath string
	interval   time.Duration
	verbose    bool
}

var Args args

// ErrUnreachable is returned when one or more targets failed every
// enabled test; it maps to exit code 1.
var ErrUnreachable = errors.New("one or more targets unreachable")

var rootCmd = &cobra.Command{
	Use:           "netcheck",
	Short:         "Scheduled multi-protocol network reachability prober",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(Args.configPath)
		if err != nil {
			return err
		}

		logger, err := logging.New(Args.verbose, cfg.LogDir)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer logger.Sync() //nolint:errcheck

		if Args.interval <= 0 {
			return runOnce(cmd.Context(), cfg, logger)
		}

		// Interval mode: re-run the full sweep on a timer until signalled.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ticker := time.NewTicker(Args.interval)
		defer ticker.Stop()
		for {
			if err := runOnce(ctx, cfg, logger); err != nil && !errors.Is(err, ErrUnreachable) {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				cache.Flush()
			}
		}
	},
}

// Execute runs the CLI and exits non-zero on any failure, including
// unreachable targets.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&Args.configPath, "config", "c", "netcheck.yaml", "Path to the configuration file")
	rootCmd.Flags().DurationVarP(&Args.interval, "interval", "i", 0, "Re-run the sweep on this interval (0 runs once)")
	rootCmd.Flags().BoolVarP(&Args.verbose, "verbose", "v", false, "verbose")
}
