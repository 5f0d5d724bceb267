package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/regwatch/regwatch/internal/store"
)

// NowFunc supplies the current time so handlers stay testable against
// fixed dates.
type NowFunc func() time.Time

// StatsHandler serves database counts as JSON.
func StatsHandler(periods *store.PeriodStore, now NowFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := periods.GetStats(c.Context(), now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load stats",
			})
		}

		return c.JSON(fiber.Map{
			"total_periods":    stats.TotalPeriods,
			"open_periods":     stats.OpenPeriods,
			"posted_periods":   stats.PostedPeriods,
			"total_dispatches": stats.TotalDispatches,
		})
	}
}

// HealthHandler reports service liveness.
func HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
