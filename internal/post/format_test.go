package post

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/model"
)

func samplePeriod() model.CommentPeriod {
	return model.CommentPeriod{
		DocumentID:     "EPA-HQ-OAR-2026-0001-0001",
		Title:          "National Emission Standards for Hazardous Air Pollutants",
		AgencyID:       "EPA",
		AgencyName:     "Environmental Protection Agency",
		PostedDate:     "2026-01-15",
		CommentEndDate: "2026-03-16",
		Abstract:       model.NullString("Proposed standards limiting emissions."),
		RegulationsURL: "https://www.regulations.gov/commenton/EPA-HQ-OAR-2026-0001-0001",
	}
}

func TestFormatNewMilestone(t *testing.T) {
	text := Format(samplePeriod(), model.MilestoneNew)

	assert.True(t, strings.HasPrefix(text, "🚨 New comment period"))
	assert.Contains(t, text, "National Emission Standards")
	assert.Contains(t, text, "Environmental Protection Agency")
	assert.Contains(t, text, "Comments due March 16, 2026")
	assert.Contains(t, text, "https://www.regulations.gov/commenton/EPA-HQ-OAR-2026-0001-0001")
	assert.Contains(t, text, "#Environment")
}

func TestFormatMilestoneHeadlines(t *testing.T) {
	p := samplePeriod()

	assert.Contains(t, Format(p, model.MilestoneReminder7), "7 days left to comment")
	assert.Contains(t, Format(p, model.MilestoneReminder3), "3 days left to comment")
	assert.Contains(t, Format(p, model.MilestoneLastDay), "Last day to comment!")
}

func TestFormatStaysWithinBudget(t *testing.T) {
	p := samplePeriod()
	p.Title = strings.Repeat("Very Long Regulatory Title ", 30)

	text := Format(p, model.MilestoneNew)

	require.LessOrEqual(t, len([]rune(text)), maxLength)
	assert.Contains(t, text, "…")
	assert.Contains(t, text, p.RegulationsURL, "the link must survive truncation")
	assert.Contains(t, text, "Comments due March 16, 2026")
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "March 16, 2026", FormatDate("2026-03-16"))
	assert.Equal(t, "not-a-date", FormatDate("not-a-date"))
}
