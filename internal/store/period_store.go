package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/regwatch/regwatch/internal/model"
)

// ErrAlreadyDispatched is returned by MarkDispatched when the milestone flag
// for the period was already set. The one-shot latch never fires twice.
var ErrAlreadyDispatched = errors.New("milestone already dispatched")

// PeriodStore handles database operations for comment periods and their
// dispatch audit trail. It is the sole owner of the milestone flags.
type PeriodStore struct {
	db *sql.DB
}

// NewPeriodStore creates a new PeriodStore.
func NewPeriodStore(db *sql.DB) *PeriodStore {
	return &PeriodStore{db: db}
}

const periodColumns = `
	id, document_id, docket_id, title, agency_id, agency_name, document_type,
	posted_date, comment_start_date, comment_end_date, abstract, summary,
	regulations_url, federal_register_url, details_url, source_url,
	topics, keywords, posted_new, posted_7day_reminder, posted_3day_reminder,
	posted_last_day, created_at, updated_at`

func scanPeriod(row interface{ Scan(...any) error }) (*model.CommentPeriod, error) {
	var p model.CommentPeriod
	err := row.Scan(
		&p.ID,
		&p.DocumentID,
		&p.DocketID,
		&p.Title,
		&p.AgencyID,
		&p.AgencyName,
		&p.DocumentType,
		&p.PostedDate,
		&p.CommentStartDate,
		&p.CommentEndDate,
		&p.Abstract,
		&p.Summary,
		&p.RegulationsURL,
		&p.FederalRegisterURL,
		&p.DetailsURL,
		&p.SourceURL,
		&p.Topics,
		&p.Keywords,
		&p.PostedNew,
		&p.Posted7DayReminder,
		&p.Posted3DayReminder,
		&p.PostedLastDay,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPeriods(rows *sql.Rows) ([]model.CommentPeriod, error) {
	defer rows.Close()

	var periods []model.CommentPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment period: %w", err)
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

// Upsert inserts or updates a comment period keyed on document_id and
// reports whether the row was newly created. Fields absent from the draft
// never erase previously stored values, and ingestion never touches the
// milestone flags. The existence check and the write share one transaction
// so the created result is exact, not a heuristic.
func (s *PeriodStore) Upsert(ctx context.Context, d *model.PeriodDraft) (id int64, created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM comment_periods WHERE document_id = $1`, d.DocumentID,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		created = true
	case err != nil:
		return 0, false, fmt.Errorf("failed to check for existing period %s: %w", d.DocumentID, err)
	}

	query := `
		INSERT INTO comment_periods (
			document_id, docket_id, title, agency_id, agency_name, document_type,
			posted_date, comment_start_date, comment_end_date, abstract, summary,
			regulations_url, federal_register_url, details_url, source_url,
			topics, keywords, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (document_id) DO UPDATE SET
			docket_id = COALESCE(excluded.docket_id, comment_periods.docket_id),
			title = excluded.title,
			agency_id = excluded.agency_id,
			agency_name = excluded.agency_name,
			document_type = COALESCE(excluded.document_type, comment_periods.document_type),
			posted_date = excluded.posted_date,
			comment_start_date = COALESCE(excluded.comment_start_date, comment_periods.comment_start_date),
			comment_end_date = excluded.comment_end_date,
			abstract = COALESCE(excluded.abstract, comment_periods.abstract),
			summary = COALESCE(excluded.summary, comment_periods.summary),
			regulations_url = excluded.regulations_url,
			federal_register_url = COALESCE(excluded.federal_register_url, comment_periods.federal_register_url),
			details_url = COALESCE(excluded.details_url, comment_periods.details_url),
			source_url = COALESCE(excluded.source_url, comment_periods.source_url),
			topics = COALESCE(excluded.topics, comment_periods.topics),
			keywords = COALESCE(excluded.keywords, comment_periods.keywords),
			updated_at = excluded.updated_at
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, query,
		d.DocumentID,
		d.DocketID,
		d.Title,
		d.AgencyID,
		d.AgencyName,
		d.DocumentType,
		d.PostedDate,
		d.CommentStartDate,
		d.CommentEndDate,
		d.Abstract,
		d.Summary,
		d.RegulationsURL,
		d.FederalRegisterURL,
		d.DetailsURL,
		d.SourceURL,
		d.Topics,
		d.Keywords,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert period %s: %w", d.DocumentID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit upsert for %s: %w", d.DocumentID, err)
	}

	return id, created, nil
}

// GetByDocumentID retrieves a comment period by its natural key, or nil if
// not found.
func (s *PeriodStore) GetByDocumentID(ctx context.Context, documentID string) (*model.CommentPeriod, error) {
	query := `SELECT` + periodColumns + `
		FROM comment_periods
		WHERE document_id = $1`

	p, err := scanPeriod(s.db.QueryRowContext(ctx, query, documentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period %s: %w", documentID, err)
	}
	return p, nil
}

// SelectRecentUnposted returns periods posted within the lookback window
// whose "new" announcement has not gone out and whose deadline has not
// passed, newest first.
func (s *PeriodStore) SelectRecentUnposted(ctx context.Context, today time.Time, lookbackDays int) ([]model.CommentPeriod, error) {
	cutoff := today.AddDate(0, 0, -lookbackDays).Format(model.DateLayout)

	query := `SELECT` + periodColumns + `
		FROM comment_periods
		WHERE posted_date >= $1
		  AND posted_new = 0
		  AND comment_end_date >= $2
		ORDER BY posted_date DESC`

	rows, err := s.db.QueryContext(ctx, query, cutoff, today.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to select recent unposted periods: %w", err)
	}
	return collectPeriods(rows)
}

// SelectClosingWithin returns periods whose deadline falls inside
// [today, today + milestone horizon] and whose flag for that milestone is
// still unset. The window (rather than an exact-date match) makes reminder
// selection idempotent against missed runs: a skipped day only delays a
// reminder, it never permanently drops one.
func (s *PeriodStore) SelectClosingWithin(ctx context.Context, today time.Time, m model.Milestone) ([]model.CommentPeriod, error) {
	if !m.Valid() || m == model.MilestoneNew {
		return nil, fmt.Errorf("milestone %q is not a reminder milestone", m)
	}

	target := today.AddDate(0, 0, m.DaysOut()).Format(model.DateLayout)

	query := fmt.Sprintf(`SELECT`+periodColumns+`
		FROM comment_periods
		WHERE comment_end_date >= $1
		  AND comment_end_date <= $2
		  AND %s = 0
		ORDER BY agency_id, title`, m.FlagColumn())

	rows, err := s.db.QueryContext(ctx, query, today.Format(model.DateLayout), target)
	if err != nil {
		return nil, fmt.Errorf("failed to select periods closing within %d days: %w", m.DaysOut(), err)
	}
	return collectPeriods(rows)
}

// SelectAllOpen returns every period whose deadline has not passed, soonest
// deadline first.
func (s *PeriodStore) SelectAllOpen(ctx context.Context, today time.Time) ([]model.CommentPeriod, error) {
	query := `SELECT` + periodColumns + `
		FROM comment_periods
		WHERE comment_end_date >= $1
		ORDER BY comment_end_date ASC`

	rows, err := s.db.QueryContext(ctx, query, today.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to select open periods: %w", err)
	}
	return collectPeriods(rows)
}

// MarkDispatched latches the flag for the given milestone and, when a
// receipt is supplied, appends one DispatchRecord. Both writes share a
// transaction so partial application is never observable. Returns
// ErrAlreadyDispatched if the flag was already set.
func (s *PeriodStore) MarkDispatched(ctx context.Context, periodID int64, m model.Milestone, postURI string) error {
	if !m.Valid() {
		return fmt.Errorf("invalid milestone %q", m)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin dispatch transaction: %w", err)
	}
	defer tx.Rollback()

	// The flag = 0 guard enforces the false->true-only transition.
	query := fmt.Sprintf(
		`UPDATE comment_periods SET %[1]s = 1, updated_at = $1 WHERE id = $2 AND %[1]s = 0`,
		m.FlagColumn(),
	)
	res, err := tx.ExecContext(ctx, query, time.Now(), periodID)
	if err != nil {
		return fmt.Errorf("failed to mark period %d as %s: %w", periodID, m, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark period %d as %s: %w", periodID, m, err)
	}
	if affected == 0 {
		return fmt.Errorf("period %d milestone %s: %w", periodID, m, ErrAlreadyDispatched)
	}

	if postURI != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO dispatches (comment_period_id, post_type, post_uri) VALUES ($1, $2, $3)`,
			periodID, string(m), postURI,
		)
		if err != nil {
			return fmt.Errorf("failed to record dispatch for period %d: %w", periodID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dispatch for period %d: %w", periodID, err)
	}

	return nil
}

// DispatchesForPeriod returns the audit trail for one period, oldest first.
func (s *PeriodStore) DispatchesForPeriod(ctx context.Context, periodID int64) ([]model.DispatchRecord, error) {
	query := `
		SELECT id, comment_period_id, post_type, post_uri, created_at
		FROM dispatches
		WHERE comment_period_id = $1
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatches for period %d: %w", periodID, err)
	}
	defer rows.Close()

	var records []model.DispatchRecord
	for rows.Next() {
		var r model.DispatchRecord
		if err := rows.Scan(&r.ID, &r.CommentPeriodID, &r.PostType, &r.PostURI, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats summarizes the store for operator reporting.
type Stats struct {
	TotalPeriods    int
	OpenPeriods     int
	PostedPeriods   int
	TotalDispatches int
}

// GetStats returns database statistics as of today.
func (s *PeriodStore) GetStats(ctx context.Context, today time.Time) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comment_periods`).Scan(&stats.TotalPeriods); err != nil {
		return nil, fmt.Errorf("failed to count periods: %w", err)
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comment_periods WHERE comment_end_date >= $1`,
		today.Format(model.DateLayout),
	).Scan(&stats.OpenPeriods)
	if err != nil {
		return nil, fmt.Errorf("failed to count open periods: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comment_periods WHERE posted_new = 1`).Scan(&stats.PostedPeriods); err != nil {
		return nil, fmt.Errorf("failed to count posted periods: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dispatches`).Scan(&stats.TotalDispatches); err != nil {
		return nil, fmt.Errorf("failed to count dispatches: %w", err)
	}

	return stats, nil
}
