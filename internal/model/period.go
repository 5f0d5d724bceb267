package model

import (
	"database/sql"
	"time"
)

// DateLayout is the calendar date format used throughout the pipeline and
// the database (ISO 8601 date, no time component).
const DateLayout = "2006-01-02"

// CommentPeriod represents a stored federal regulatory comment period.
// document_id is the natural key; the four posted_* flags are independent
// one-shot latches owned by the store.
type CommentPeriod struct {
	ID                 int64
	DocumentID         string
	DocketID           sql.NullString
	Title              string
	AgencyID           string
	AgencyName         string
	DocumentType       sql.NullString
	PostedDate         string
	CommentStartDate   sql.NullString
	CommentEndDate     string
	Abstract           sql.NullString
	Summary            sql.NullString
	RegulationsURL     string
	FederalRegisterURL sql.NullString
	DetailsURL         sql.NullString
	SourceURL          sql.NullString
	Topics             sql.NullString
	Keywords           sql.NullString
	PostedNew          bool
	Posted7DayReminder bool
	Posted3DayReminder bool
	PostedLastDay      bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PeriodDraft is a candidate comment period produced by ingestion.
// Optional fields use sql.NullString; an invalid (absent) field never
// overwrites a previously stored value on upsert.
type PeriodDraft struct {
	DocumentID         string `validate:"required"`
	DocketID           sql.NullString
	Title              string `validate:"required"`
	AgencyID           string `validate:"required"`
	AgencyName         string `validate:"required"`
	DocumentType       sql.NullString
	PostedDate         string `validate:"required,datetime=2006-01-02"`
	CommentStartDate   sql.NullString
	CommentEndDate     string `validate:"required,datetime=2006-01-02"`
	Abstract           sql.NullString
	Summary            sql.NullString
	RegulationsURL     string `validate:"required,url"`
	FederalRegisterURL sql.NullString
	DetailsURL         sql.NullString
	SourceURL          sql.NullString
	Topics             sql.NullString
	Keywords           sql.NullString
}

// DispatchRecord is an append-only audit entry for one outbound notification.
// It is not used for deduplication; the flags on CommentPeriod are.
type DispatchRecord struct {
	ID              int64
	CommentPeriodID int64
	PostType        Milestone
	PostURI         sql.NullString
	CreatedAt       time.Time
}

// NullString returns a valid sql.NullString for non-empty s, invalid otherwise.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
