package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/regwatch/regwatch/internal/bluesky"
	"github.com/regwatch/regwatch/internal/config"
	"github.com/regwatch/regwatch/internal/model"
	"github.com/regwatch/regwatch/internal/post"
	"github.com/regwatch/regwatch/internal/service"
)

var notifyMilestone string
var notifyLookback int
var notifyDryRun bool

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Post milestone notifications to Bluesky",
	Long: `Notify selects comment periods eligible for one milestone and posts a
notification for each. A period is posted at most once per milestone,
enforced by one-shot flags in the database; failed posts are retried on
the next run.

Milestones: new, 7 (7-day reminder), 3 (3-day reminder), 1 (last day).

Examples:
  # Announce newly ingested periods
  ./regwatch notify --milestone new

  # Last-day reminders, without posting
  ./regwatch notify --milestone 1 --dry-run`,
	Run: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringVarP(&notifyMilestone, "milestone", "m", "new", "Milestone to post: new, 7, 3 or 1")
	notifyCmd.Flags().IntVarP(&notifyLookback, "lookback", "l", 3, "Posted-date window in days for the new milestone")
	notifyCmd.Flags().BoolVar(&notifyDryRun, "dry-run", false, "Select and render but do not post or mark anything")
}

func parseMilestone(s string) (model.Milestone, error) {
	switch s {
	case "new":
		return model.MilestoneNew, nil
	case "7", "7d":
		return model.MilestoneReminder7, nil
	case "3", "3d":
		return model.MilestoneReminder3, nil
	case "1", "last", "last-day":
		return model.MilestoneLastDay, nil
	}
	if m := model.Milestone(s); m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("unknown milestone %q (want new, 7, 3 or 1)", s)
}

func runNotify(cmd *cobra.Command, args []string) {
	cfg := config.Load()

	milestone, err := parseMilestone(notifyMilestone)
	if err != nil {
		log.Fatal(err)
	}

	// Dry runs never reach the publisher, so credentials are optional.
	var publisher service.Publisher
	if !notifyDryRun {
		if err := cfg.RequireBluesky(); err != nil {
			log.Fatal(err)
		}
		publisher = bluesky.NewClient(cfg.BlueskyHost, cfg.BlueskyHandle, cfg.BlueskyPassword)
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	notifier := service.NewNotifier(db.periods, publisher, post.Format)

	stats, err := notifier.Run(ctx, milestone, notifyLookback, notifyDryRun)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Notify cancelled")
			if stats != nil {
				notifier.PrintSummary(stats)
			}
			os.Exit(1)
		}
		log.Fatalf("Notify failed: %v", err)
	}
	notifier.PrintSummary(stats)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
