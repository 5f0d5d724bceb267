package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ConflictError reports a draft that violates a data invariant and must not
// be persisted.
type ConflictError struct {
	DocumentID string
	Reason     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("invalid comment period %s: %s", e.DocumentID, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(PeriodDraft)
		// ISO dates compare correctly as strings; field-level datetime tags
		// have already checked the format.
		if d.PostedDate != "" && d.CommentEndDate != "" && d.CommentEndDate < d.PostedDate {
			sl.ReportError(d.CommentEndDate, "CommentEndDate", "CommentEndDate", "gtefield", "PostedDate")
		}
	}, PeriodDraft{})
	return v
}

// ValidateDraft checks required fields, date formats and the
// comment_end_date >= posted_date invariant. It returns a *ConflictError so
// callers can reject the item without aborting the batch.
func ValidateDraft(d *PeriodDraft) error {
	if err := validate.Struct(*d); err != nil {
		return &ConflictError{DocumentID: d.DocumentID, Reason: err.Error()}
	}
	return nil
}
