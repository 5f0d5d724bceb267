package cmd

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	"github.com/regwatch/regwatch/internal/config"
	"github.com/regwatch/regwatch/internal/handlers"
)

var servePort string
var serveStatic string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the comment period API server",
	Long: `Start a JSON API over the comment period database. When a static site
directory exists (see the build command) it is served at the root.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to run the server on (default PORT or 8080)")
	serveCmd.Flags().StringVar(&serveStatic, "static", "docs", "Static site directory to serve at /")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := config.Load()

	port := cfg.Port
	if servePort != "" {
		port = servePort
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	app := fiber.New(fiber.Config{
		AppName: "regwatch",
	})

	app.Use(logger.New())

	app.Get("/health", handlers.HealthHandler())
	app.Get("/api/periods", handlers.PeriodsHandler(db.periods, time.Now))
	app.Get("/api/stats", handlers.StatsHandler(db.periods, time.Now))

	if serveStatic != "" {
		app.Static("/", serveStatic)
	}

	log.Printf("Starting server on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
