package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() PeriodDraft {
	return PeriodDraft{
		DocumentID:     "EPA-2026-0001",
		Title:          "A proposed rule",
		AgencyID:       "EPA",
		AgencyName:     "Environmental Protection Agency",
		PostedDate:     "2026-01-15",
		CommentEndDate: "2026-03-16",
		RegulationsURL: "https://www.regulations.gov/commenton/EPA-2026-0001",
	}
}

func TestValidateDraftAcceptsValid(t *testing.T) {
	d := validDraft()
	assert.NoError(t, ValidateDraft(&d))
}

func TestValidateDraftRequiresFields(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*PeriodDraft)
	}{
		{"missing document id", func(d *PeriodDraft) { d.DocumentID = "" }},
		{"missing title", func(d *PeriodDraft) { d.Title = "" }},
		{"missing agency", func(d *PeriodDraft) { d.AgencyID = "" }},
		{"missing posted date", func(d *PeriodDraft) { d.PostedDate = "" }},
		{"missing end date", func(d *PeriodDraft) { d.CommentEndDate = "" }},
		{"missing url", func(d *PeriodDraft) { d.RegulationsURL = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			assert.Error(t, ValidateDraft(&d))
		})
	}
}

func TestValidateDraftRejectsMalformedDates(t *testing.T) {
	d := validDraft()
	d.PostedDate = "01/15/2026"
	assert.Error(t, ValidateDraft(&d))

	d = validDraft()
	d.CommentEndDate = "2026-01-15T05:00:00Z"
	assert.Error(t, ValidateDraft(&d))
}

func TestValidateDraftRejectsEndBeforePosted(t *testing.T) {
	d := validDraft()
	d.CommentEndDate = "2026-01-10"

	err := ValidateDraft(&d)
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "EPA-2026-0001", conflict.DocumentID)
}

func TestValidateDraftAcceptsSameDayDeadline(t *testing.T) {
	d := validDraft()
	d.CommentEndDate = d.PostedDate
	assert.NoError(t, ValidateDraft(&d))
}

func TestNullString(t *testing.T) {
	assert.True(t, NullString("x").Valid)
	assert.Equal(t, "x", NullString("x").String)
	assert.False(t, NullString("").Valid)
}
