// ABOUTME: Watch command running sync on a cron schedule until interrupted
// ABOUTME: Skips overlapping runs and finishes the in-flight sync on shutdown

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync continuously on a schedule",
	Long: `Run sync on a cron schedule until interrupted.

Performs one sync immediately, then repeats per the schedule (default
every 15 minutes). A tick that fires while the previous run is still
going is skipped rather than stacked. Stop with Ctrl-C or SIGTERM; an
in-flight sync finishes first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlagOverrides(cmd)

		schedule, _ := cmd.Flags().GetString("schedule")
		if schedule == "" {
			schedule = cfg.GetWatchSchedule()
		}
		if _, err := cron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}

		syncer, err := newSyncer(nil)
		if err != nil {
			return err
		}

		// Watch is a daemon: log lines are its only output, so raise
		// the level unless --verbose already went further.
		if !verbose {
			logLevel.Set(slog.LevelInfo)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			slog.Info("Signal received, shutting down", "signal", sig.String())
			cancel()
		}()

		runOnce := func() {
			// Runs never overlap, so swapping the logger is safe
			logger := slog.Default().With("run_id", uuid.NewString()[:8])
			syncer.Logger = logger

			report, err := syncer.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("Sync run failed", "error", err)
				return
			}
			if report.HasFailures() {
				logger.Warn("Sync finished with failures", "failed", report.Failed)
			}
		}

		slog.Info("Watch started", "schedule", schedule, "feed", cfg.GetFeedURL())
		runOnce()

		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := c.AddFunc(schedule, runOnce); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		c.Start()

		<-ctx.Done()
		slog.Info("Watch stopped, waiting for any running sync")
		<-c.Stop().Done()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("schedule", "", "cron expression for sync runs (default: every 15 minutes)")
	addForumFlags(watchCmd)
}
