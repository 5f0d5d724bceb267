package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/regwatch/regwatch/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print database statistics",
	Run:   runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := config.Load()

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	stats, err := db.periods.GetStats(ctx, time.Now())
	if err != nil {
		log.Fatalf("Failed to load stats: %v", err)
	}

	log.Println("=== Database Stats ===")
	log.Printf("Total periods:     %d", stats.TotalPeriods)
	log.Printf("Open periods:      %d", stats.OpenPeriods)
	log.Printf("Posted periods:    %d", stats.PostedPeriods)
	log.Printf("Total dispatches:  %d", stats.TotalDispatches)
}
