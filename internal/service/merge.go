package service

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/regwatch/regwatch/internal/model"
)

// MergeFederalRegister reconciles a primary draft with a Federal Register
// document using field-level precedence. Pure: the inputs are not mutated.
//
//   - abstract: the FR abstract fills the field only when the primary one
//     is empty
//   - keywords: FR topics are set-unioned with existing keywords and
//     serialized deterministically (sorted, comma-joined)
//   - document_type: the FR action fills the field only when empty
//   - everything else stays primary-sourced
func MergeFederalRegister(draft model.PeriodDraft, fr *FRDocument) model.PeriodDraft {
	if fr == nil {
		return draft
	}

	merged := draft

	if !draft.Abstract.Valid && fr.Abstract != "" {
		merged.Abstract = model.NullString(fr.Abstract)
	}

	if len(fr.Topics) > 0 {
		merged.Keywords = model.NullString(unionKeywords(draft.Keywords.String, fr.Topics))
	}

	if !draft.DocumentType.Valid && fr.Action != "" {
		merged.DocumentType = model.NullString(fr.Action)
	}

	return merged
}

// unionKeywords merges a serialized keyword list with new topics into a
// sorted, de-duplicated, comma-joined set.
func unionKeywords(existing string, topics []string) string {
	set := make(map[string]bool)
	for _, k := range strings.Split(existing, ", ") {
		if k = strings.TrimSpace(k); k != "" {
			set[k] = true
		}
	}
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}

	merged := make([]string, 0, len(set))
	for k := range set {
		merged = append(merged, k)
	}
	sort.Strings(merged)
	return strings.Join(merged, ", ")
}

// FRDocNumFromURL extracts the Federal Register document number from a
// cross-reference URL like
// https://www.federalregister.gov/documents/2026-00783. Returns "" when the
// URL carries no usable number.
func FRDocNumFromURL(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}

// Enricher looks up the secondary source for a draft and merges it in.
// Lookup failures degrade to "no enrichment"; they never block ingestion.
type Enricher struct {
	fedreg *FederalRegisterClient
	logger *log.Logger
}

// NewEnricher creates an Enricher over a Federal Register client.
func NewEnricher(fedreg *FederalRegisterClient) *Enricher {
	return &Enricher{
		fedreg: fedreg,
		logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// Enrich merges Federal Register data into the draft. A draft without a
// federal_register_url passes through unchanged.
func (e *Enricher) Enrich(ctx context.Context, draft model.PeriodDraft) model.PeriodDraft {
	if !draft.FederalRegisterURL.Valid {
		return draft
	}

	frDocNum := FRDocNumFromURL(draft.FederalRegisterURL.String)
	if frDocNum == "" {
		return draft
	}

	doc, err := e.fedreg.GetDocument(ctx, frDocNum)
	if err != nil {
		e.logger.Printf("enrichment skipped for %s: %v", draft.DocumentID, err)
		return draft
	}

	return MergeFederalRegister(draft, doc)
}
