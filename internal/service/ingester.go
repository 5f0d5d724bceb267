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

// IngestStats tracks one ingestion run.
type IngestStats struct {
	RunID    uuid.UUID
	Fetched  int
	Parsed   int
	New      int
	Updated  int
	Rejected int
	Failed   int
}

// IngestOptions configures one ingestion run.
type IngestOptions struct {
	// LookbackDays is the posted-date window (default 1).
	LookbackDays int
	// DocumentTypes optionally filters the search (e.g. "Proposed Rule").
	DocumentTypes []string
	// Enrich controls the detail fetch and Federal Register merge.
	Enrich bool
	// DryRun exercises fetch and merge but skips all store mutation.
	DryRun bool
}

// Ingester orchestrates the fetch -> merge -> upsert pipeline.
type Ingester struct {
	regs      *RegulationsClient
	enricher  *Enricher
	periods   *store.PeriodStore
	logger    *log.Logger
	errLogger *log.Logger
	now       func() time.Time
}

// NewIngester creates a new Ingester.
func NewIngester(regs *RegulationsClient, enricher *Enricher, periods *store.PeriodStore) *Ingester {
	return &Ingester{
		regs:      regs,
		enricher:  enricher,
		periods:   periods,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
		now:       time.Now,
	}
}

// Run executes one ingestion batch. Per-item failures are logged, counted
// and skipped; only total search failure or an unreachable store aborts the
// run. Documents are processed in the order pagination returned them.
func (g *Ingester) Run(ctx context.Context, opts IngestOptions) (*IngestStats, error) {
	stats := &IngestStats{RunID: uuid.New()}

	lookback := opts.LookbackDays
	if lookback <= 0 {
		lookback = 1
	}

	today := g.now().Format(model.DateLayout)
	postedSince := g.now().AddDate(0, 0, -lookback).Format(model.DateLayout)

	g.logger.Printf("Starting ingest run %s (lookback %dd, dry-run %v)", stats.RunID, lookback, opts.DryRun)

	docs, err := g.regs.SearchDocuments(ctx, SearchQuery{
		PostedSince:   postedSince,
		EndSince:      today,
		DocumentTypes: opts.DocumentTypes,
	})
	if err != nil {
		if len(docs) == 0 {
			return stats, fmt.Errorf("failed to search documents: %w", err)
		}
		// Fail-open pagination: keep what we have, surface the rest as a
		// per-run error.
		g.errLogger.Printf("partial search results: %v", err)
		stats.Failed++
	}

	stats.Fetched = len(docs)
	g.logger.Printf("Found %d documents", stats.Fetched)

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if !doc.Attributes.OpenForComment {
			continue
		}

		draft := g.regs.ParseDocument(doc)

		if opts.Enrich {
			draft = g.enrichFromDetails(ctx, draft)
			draft = g.enricher.Enrich(ctx, draft)
		}

		if err := model.ValidateDraft(&draft); err != nil {
			g.errLogger.Printf("rejected %s: %v", doc.ID, err)
			stats.Rejected++
			continue
		}
		stats.Parsed++

		abstract := draft.Abstract.String
		if abstract == "" {
			abstract = "No description"
		}
		g.logger.Printf("Found: %s - %.50s... (%.80s...)", draft.DocumentID, draft.Title, abstract)

		if opts.DryRun {
			continue
		}

		_, created, err := g.periods.Upsert(ctx, &draft)
		if err != nil {
			g.errLogger.Printf("failed to save %s: %v", draft.DocumentID, err)
			stats.Failed++
			continue
		}
		if created {
			stats.New++
		} else {
			stats.Updated++
		}
	}

	return stats, nil
}

// enrichFromDetails upgrades a search-result draft with the document detail
// endpoint: a fuller summary, a Federal Register reference when the summary
// record lacked one, and the RIN as a keyword. Detail failures leave the
// draft as parsed from the search page.
func (g *Ingester) enrichFromDetails(ctx context.Context, draft model.PeriodDraft) model.PeriodDraft {
	details, err := g.regs.GetDocument(ctx, draft.DocumentID)
	if err != nil {
		g.errLogger.Printf("detail fetch skipped for %s: %v", draft.DocumentID, err)
		return draft
	}

	attrs := details.Attributes

	if attrs.Summary != "" {
		draft.Abstract = model.NullString(attrs.Summary)
	}
	if attrs.FRDocNum != "" && !draft.FederalRegisterURL.Valid {
		draft.FederalRegisterURL = model.NullString("https://www.federalregister.gov/documents/" + attrs.FRDocNum)
	}
	if attrs.RIN != "" && !draft.Keywords.Valid {
		draft.Keywords = model.NullString("RIN: " + attrs.RIN)
	}

	return draft
}

// PrintSummary prints the ingest run statistics.
func (g *Ingester) PrintSummary(stats *IngestStats) {
	g.logger.Println("")
	g.logger.Println("=== Ingest Summary ===")
	g.logger.Printf("Run ID:    %s", stats.RunID)
	g.logger.Printf("Fetched:   %d", stats.Fetched)
	g.logger.Printf("Parsed:    %d", stats.Parsed)
	g.logger.Printf("New:       %d", stats.New)
	g.logger.Printf("Updated:   %d", stats.Updated)
	g.logger.Printf("Rejected:  %d", stats.Rejected)
	g.logger.Printf("Failed:    %d", stats.Failed)
}
