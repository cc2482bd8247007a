// ABOUTME: Root Cobra command, global flags, and shared command helpers
// ABOUTME: Loads configuration and wires the logger before any subcommand runs

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/ics2disc/internal/config"
	"github.com/harper/ics2disc/internal/discourse"
	"github.com/harper/ics2disc/internal/models"
	"github.com/harper/ics2disc/internal/reconcile"
	"github.com/harper/ics2disc/internal/sync"
)

var (
	feedFlag string
	verbose  bool
	cfg      *config.Config
	logLevel = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:   "ics2disc",
	Short: "Sync ICS calendar events into Discourse topics",
	Long: `
██╗ ██████╗███████╗██████╗ ██████╗ ██╗███████╗ ██████╗
██║██╔════╝██╔════╝╚════██╗██╔══██╗██║██╔════╝██╔════╝
██║██║     ███████╗ █████╔╝██║  ██║██║███████╗██║
██║██║     ╚════██║██╔═══╝ ██║  ██║██║╚════██║██║
██║╚██████╗███████║███████╗██████╔╝██║███████║╚██████╗
╚═╝ ╚═════╝╚══════╝╚══════╝╚═════╝ ╚═╝╚══════╝ ╚═════╝

Calendar-to-forum sync for humans and AI agents.

Mirror an ICS feed as Discourse topics, one per event, and keep them
current on every run without clobbering what moderators changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel.Set(slog.LevelWarn)
		if verbose {
			logLevel.Set(slog.LevelDebug)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})))

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if feedFlag != "" {
			cfg.FeedURL = feedFlag
		}

		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&feedFlag, "feed", "", "ICS feed URL or file path (default: feed_url from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// addForumFlags registers the override flags shared by commands that
// plan or write forum topics
func addForumFlags(cmd *cobra.Command) {
	cmd.Flags().Int("category-id", 0, "Discourse category for new topics (overrides config)")
	cmd.Flags().String("static-tags", "", "comma-separated tags applied to every topic (overrides config)")
	cmd.Flags().String("site-tz", "", "IANA timezone event times are rendered in (overrides config)")
}

// applyFlagOverrides layers explicitly-set command-line values over the
// loaded config
func applyFlagOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("category-id") {
		cfg.CategoryID, _ = cmd.Flags().GetInt("category-id")
	}
	if cmd.Flags().Changed("static-tags") {
		v, _ := cmd.Flags().GetString("static-tags")
		cfg.StaticTags = config.SplitTags(v)
	}
	if cmd.Flags().Changed("site-tz") {
		cfg.SiteTimezone, _ = cmd.Flags().GetString("site-tz")
	}
}

// planParams maps the loaded config onto reconciliation parameters
func planParams(loc *time.Location) reconcile.Params {
	return reconcile.Params{
		CategoryID:  cfg.CategoryID,
		StaticTags:  cfg.StaticTags,
		DefaultTags: cfg.DefaultTags,
		UIDTag:      cfg.UIDTagEnabled(),
		Timezone:    loc,
	}
}

// newSyncer builds a sync engine from the loaded config, validating
// everything a write to the forum needs
func newSyncer(logger *slog.Logger) (*sync.Syncer, error) {
	if err := cfg.ValidateFeed(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateForum(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	client := discourse.New(cfg.BaseURL, cfg.APIKey, cfg.GetAPIUsername())
	client.HTTPClient.Timeout = cfg.GetTimeout()
	client.MaxRetries = cfg.GetMaxRetries()

	syncer := sync.New(sync.FeedSource{Source: cfg.GetFeedURL()}, client, planParams(loc))
	syncer.Logger = logger
	return syncer, nil
}

// loadFeedEvents fetches and parses the configured calendar for
// read-only commands that never touch the forum
func loadFeedEvents(ctx context.Context) ([]models.Event, int, error) {
	if err := cfg.ValidateFeed(); err != nil {
		return nil, 0, err
	}
	return sync.FeedSource{Source: cfg.GetFeedURL()}.Load(ctx)
}
