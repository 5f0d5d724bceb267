package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/model"
	"github.com/regwatch/regwatch/internal/store"
)

var handlerNow = func() time.Time {
	return time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC)
}

func newTestApp(t *testing.T) (*fiber.App, *store.PeriodStore) {
	t.Helper()

	db, err := store.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	periods := store.NewPeriodStore(db)

	app := fiber.New()
	app.Get("/health", HealthHandler())
	app.Get("/api/periods", PeriodsHandler(periods, handlerNow))
	app.Get("/api/stats", StatsHandler(periods, handlerNow))
	return app, periods
}

func seed(t *testing.T, periods *store.PeriodStore, documentID, agencyID, title, end string) {
	t.Helper()
	_, _, err := periods.Upsert(context.Background(), &model.PeriodDraft{
		DocumentID:     documentID,
		Title:          title,
		AgencyID:       agencyID,
		AgencyName:     agencyID,
		PostedDate:     "2026-01-15",
		CommentEndDate: end,
		RegulationsURL: "https://www.regulations.gov/commenton/" + documentID,
	})
	require.NoError(t, err)
}

func getJSON(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
	return resp.StatusCode
}

func TestHealthHandler(t *testing.T) {
	app, _ := newTestApp(t)

	var out map[string]string
	code := getJSON(t, app, "/health", &out)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
}

type periodsPayload struct {
	Count   int `json:"count"`
	Periods []struct {
		DocumentID string   `json:"document_id"`
		AgencyID   string   `json:"agency_id"`
		Topics     []string `json:"topics"`
	} `json:"periods"`
}

func TestPeriodsHandlerListsOpenPeriods(t *testing.T) {
	app, periods := newTestApp(t)
	seed(t, periods, "EPA-1", "EPA", "Emissions rule", "2026-03-01")
	seed(t, periods, "FDA-1", "FDA", "Drug labeling rule", "2026-03-01")
	seed(t, periods, "EPA-OLD", "EPA", "Expired rule", "2026-01-10")

	var out periodsPayload
	code := getJSON(t, app, "/api/periods", &out)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 2, out.Count, "closed periods must not be listed")
}

func TestPeriodsHandlerFiltersByAgency(t *testing.T) {
	app, periods := newTestApp(t)
	seed(t, periods, "EPA-1", "EPA", "Emissions rule", "2026-03-01")
	seed(t, periods, "FDA-1", "FDA", "Drug labeling rule", "2026-03-01")

	var out periodsPayload
	code := getJSON(t, app, "/api/periods?agency=FDA", &out)

	assert.Equal(t, fiber.StatusOK, code)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "FDA-1", out.Periods[0].DocumentID)
}

func TestPeriodsHandlerFiltersByTopic(t *testing.T) {
	app, periods := newTestApp(t)
	seed(t, periods, "EPA-1", "EPA", "Emissions rule", "2026-03-01")
	seed(t, periods, "DOT-1", "DOT", "Highway safety rule", "2026-03-01")

	var out periodsPayload
	code := getJSON(t, app, "/api/periods?topic=transportation", &out)

	assert.Equal(t, fiber.StatusOK, code)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "DOT-1", out.Periods[0].DocumentID)
	assert.Contains(t, out.Periods[0].Topics, "transportation")
}

func TestStatsHandler(t *testing.T) {
	app, periods := newTestApp(t)
	seed(t, periods, "EPA-1", "EPA", "Emissions rule", "2026-03-01")
	seed(t, periods, "EPA-OLD", "EPA", "Expired rule", "2026-01-10")

	var out map[string]int
	code := getJSON(t, app, "/api/stats", &out)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 2, out["total_periods"])
	assert.Equal(t, 1, out["open_periods"])
	assert.Equal(t, 0, out["total_dispatches"])
}
