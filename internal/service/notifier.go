package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/regwatch/regwatch/internal/model"
	"github.com/regwatch/regwatch/internal/store"
)

// Publisher posts one rendered notification to the outside world and
// returns an opaque receipt (e.g. an AT Protocol record URI).
type Publisher interface {
	Publish(ctx context.Context, text string) (receipt string, err error)
}

// Formatter renders the outbound message for one period and milestone.
type Formatter func(p model.CommentPeriod, m model.Milestone) string

// NotifyStats tracks one notification run.
type NotifyStats struct {
	RunID     uuid.UUID
	Milestone model.Milestone
	Eligible  int
	Posted    int
	Failed    int
}

// Notifier drives milestone notifications. It is stateless between runs:
// all "already sent" knowledge lives in the store's one-shot flags, which
// only the store mutates.
type Notifier struct {
	periods   *store.PeriodStore
	publisher Publisher
	format    Formatter
	logger    *log.Logger
	errLogger *log.Logger
	now       func() time.Time
}

// NewNotifier creates a Notifier.
func NewNotifier(periods *store.PeriodStore, publisher Publisher, format Formatter) *Notifier {
	return &Notifier{
		periods:   periods,
		publisher: publisher,
		format:    format,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
		now:       time.Now,
	}
}

// Run executes one notification batch for the given milestone. The
// eligibility set is computed once up front; a publisher failure for one
// period is logged and skipped, leaving its flag unset so the next run
// retries delivery. Only an unreachable store is fatal.
func (n *Notifier) Run(ctx context.Context, m model.Milestone, lookbackDays int, dryRun bool) (*NotifyStats, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid milestone %q", m)
	}

	stats := &NotifyStats{RunID: uuid.New(), Milestone: m}
	today := n.now()

	var periods []model.CommentPeriod
	var err error
	if m == model.MilestoneNew {
		periods, err = n.periods.SelectRecentUnposted(ctx, today, lookbackDays)
	} else {
		periods, err = n.periods.SelectClosingWithin(ctx, today, m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select eligible periods: %w", err)
	}

	stats.Eligible = len(periods)
	n.logger.Printf("Starting notify run %s: milestone %s, %d eligible", stats.RunID, m, stats.Eligible)

	for _, p := range periods {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		text := n.format(p, m)

		if dryRun {
			n.logger.Printf("[dry-run] would post %s for %s", m, p.DocumentID)
			continue
		}

		receipt, err := n.publisher.Publish(ctx, text)
		if err != nil {
			n.errLogger.Printf("failed to publish %s for %s: %v", m, p.DocumentID, err)
			stats.Failed++
			continue
		}

		if err := n.periods.MarkDispatched(ctx, p.ID, m, receipt); err != nil {
			n.errLogger.Printf("failed to mark %s dispatched for %s: %v", m, p.DocumentID, err)
			stats.Failed++
			continue
		}

		n.logger.Printf("Posted %s for %s (%s)", m, p.DocumentID, receipt)
		stats.Posted++
	}

	return stats, nil
}

// PrintSummary prints the notify run statistics.
func (n *Notifier) PrintSummary(stats *NotifyStats) {
	n.logger.Println("")
	n.logger.Println("=== Notify Summary ===")
	n.logger.Printf("Run ID:     %s", stats.RunID)
	n.logger.Printf("Milestone:  %s", stats.Milestone)
	n.logger.Printf("Eligible:   %d", stats.Eligible)
	n.logger.Printf("Posted:     %d", stats.Posted)
	n.logger.Printf("Failed:     %d", stats.Failed)
}
