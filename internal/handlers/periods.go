package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/regwatch/regwatch/internal/model"
	"github.com/regwatch/regwatch/internal/store"
	"github.com/regwatch/regwatch/internal/topics"
)

type periodResponse struct {
	ID             int64    `json:"id"`
	DocumentID     string   `json:"document_id"`
	DocketID       string   `json:"docket_id,omitempty"`
	Title          string   `json:"title"`
	AgencyID       string   `json:"agency_id"`
	AgencyName     string   `json:"agency_name"`
	PostedDate     string   `json:"posted_date"`
	CommentEndDate string   `json:"comment_end_date"`
	Abstract       string   `json:"abstract,omitempty"`
	Topics         []string `json:"topics"`
	RegulationsURL string   `json:"regulations_url"`
}

// PeriodsHandler serves the open comment periods as JSON, optionally
// filtered by agency or topic via query parameters.
func PeriodsHandler(periods *store.PeriodStore, now NowFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		agency := c.Query("agency")
		topic := c.Query("topic")

		open, err := periods.SelectAllOpen(c.Context(), now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load comment periods",
			})
		}

		out := make([]periodResponse, 0, len(open))
		for _, p := range open {
			if agency != "" && p.AgencyID != agency {
				continue
			}
			ids := topics.Categorize(p.Title, p.Abstract.String, p.AgencyID)
			if topic != "" && !contains(ids, topic) {
				continue
			}
			out = append(out, toPeriodResponse(p, ids))
		}

		return c.JSON(fiber.Map{
			"count":   len(out),
			"periods": out,
		})
	}
}

func toPeriodResponse(p model.CommentPeriod, topicIDs []string) periodResponse {
	if topicIDs == nil {
		topicIDs = []string{}
	}
	return periodResponse{
		ID:             p.ID,
		DocumentID:     p.DocumentID,
		DocketID:       p.DocketID.String,
		Title:          p.Title,
		AgencyID:       p.AgencyID,
		AgencyName:     p.AgencyName,
		PostedDate:     p.PostedDate,
		CommentEndDate: p.CommentEndDate,
		Abstract:       p.Abstract.String,
		Topics:         topicIDs,
		RegulationsURL: p.RegulationsURL,
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
