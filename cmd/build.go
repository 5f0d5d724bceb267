package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/regwatch/regwatch/internal/config"
	"github.com/regwatch/regwatch/internal/render"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site from stored comment periods",
	Long: `Build renders index.html, feed.xml and data.json for every open comment
period into the output directory, ready to publish as a static site.`,
	Run: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "docs", "Output directory")
}

func runBuild(cmd *cobra.Command, args []string) {
	cfg := config.Load()

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	now := time.Now()

	periods, err := db.periods.SelectAllOpen(ctx, now)
	if err != nil {
		log.Fatalf("Failed to load open periods: %v", err)
	}
	stats, err := db.periods.GetStats(ctx, now)
	if err != nil {
		log.Fatalf("Failed to load stats: %v", err)
	}

	if err := render.NewBuilder(buildOut).Build(periods, stats, now); err != nil {
		log.Fatalf("Build failed: %v", err)
	}
}
