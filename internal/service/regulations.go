package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/regwatch/regwatch/internal/model"
)

const regulationsBaseURL = "https://api.regulations.gov/v4"

// RegulationsClient handles communication with the Regulations.gov v4 API.
type RegulationsClient struct {
	client *Client
	// BaseURL is overridable for tests.
	BaseURL string
}

// NewRegulationsClient creates a Regulations.gov API client on top of a
// fetch engine instance.
func NewRegulationsClient(client *Client) *RegulationsClient {
	return &RegulationsClient{client: client, BaseURL: regulationsBaseURL}
}

// SearchQuery describes one paginated document search.
type SearchQuery struct {
	// PostedSince is the postedDate lower bound (YYYY-MM-DD).
	PostedSince string
	// EndSince is the commentEndDate lower bound (YYYY-MM-DD), normally
	// today so already-closed periods are filtered server-side.
	EndSince string
	// DocumentTypes optionally filters by type (e.g. "Proposed Rule").
	DocumentTypes []string
	// PageSize defaults to 250, the API maximum.
	PageSize int
}

// DocumentSummary is one document as returned by the search and detail
// endpoints.
type DocumentSummary struct {
	ID         string             `json:"id"`
	Attributes DocumentAttributes `json:"attributes"`
}

// DocumentAttributes carries the fields this pipeline consumes.
type DocumentAttributes struct {
	Title              string `json:"title"`
	DocketID           string `json:"docketId"`
	DocumentType       string `json:"documentType"`
	AgencyID           string `json:"agencyId"`
	PostedDate         string `json:"postedDate"`
	CommentStartDate   string `json:"commentStartDate"`
	CommentEndDate     string `json:"commentEndDate"`
	Summary            string `json:"summary"`
	HighlightedContent string `json:"highlightedContent"`
	OpenForComment     bool   `json:"openForComment"`
	FRDocNum           string `json:"frDocNum"`
	RIN                string `json:"rin"`
}

// documentsResponse represents the API response for /documents.
type documentsResponse struct {
	Data []DocumentSummary `json:"data"`
	Meta struct {
		TotalPages int `json:"totalPages"`
		PageNumber int `json:"pageNumber"`
	} `json:"meta"`
}

// documentResponse represents the API response for /documents/{id}.
type documentResponse struct {
	Data DocumentSummary `json:"data"`
}

// SearchDocuments pages through the search endpoint and accumulates every
// result. Pagination is fail-open: if a later page fails after exhausting
// retries, the documents gathered so far are returned together with the
// error, and the caller decides how loudly to complain.
func (rc *RegulationsClient) SearchDocuments(ctx context.Context, q SearchQuery) ([]DocumentSummary, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 250
	}

	params := url.Values{}
	params.Set("filter[postedDate][ge]", q.PostedSince)
	params.Set("filter[commentEndDate][ge]", q.EndSince)
	params.Set("sort", "-postedDate")
	params.Set("page[size]", strconv.Itoa(pageSize))
	if len(q.DocumentTypes) > 0 {
		params.Set("filter[documentType]", strings.Join(q.DocumentTypes, ","))
	}

	var all []DocumentSummary
	for page := 1; ; page++ {
		params.Set("page[number]", strconv.Itoa(page))

		var resp documentsResponse
		if err := rc.client.GetJSON(ctx, rc.BaseURL+"/documents", params, &resp); err != nil {
			if len(all) > 0 {
				return all, fmt.Errorf("failed to fetch page %d: %w", page, err)
			}
			return nil, fmt.Errorf("failed to fetch documents: %w", err)
		}

		all = append(all, resp.Data...)

		if resp.Meta.TotalPages == 0 || page >= resp.Meta.TotalPages {
			return all, nil
		}
	}
}

// GetDocument retrieves one document's full attributes by identifier.
func (rc *RegulationsClient) GetDocument(ctx context.Context, documentID string) (*DocumentSummary, error) {
	var resp documentResponse
	if err := rc.client.GetJSON(ctx, rc.BaseURL+"/documents/"+documentID, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", documentID, err)
	}
	return &resp.Data, nil
}

// agencyNames maps common agency IDs to full names for display.
var agencyNames = map[string]string{
	"EPA":  "Environmental Protection Agency",
	"FDA":  "Food and Drug Administration",
	"FCC":  "Federal Communications Commission",
	"FTC":  "Federal Trade Commission",
	"DOL":  "Department of Labor",
	"HHS":  "Department of Health and Human Services",
	"DOT":  "Department of Transportation",
	"ED":   "Department of Education",
	"HUD":  "Department of Housing and Urban Development",
	"USDA": "Department of Agriculture",
	"DOE":  "Department of Energy",
	"DHS":  "Department of Homeland Security",
	"SEC":  "Securities and Exchange Commission",
	"CFPB": "Consumer Financial Protection Bureau",
}

// AgencyName resolves an agency ID to its full name, falling back to the ID.
func AgencyName(agencyID string) string {
	if name, ok := agencyNames[agencyID]; ok {
		return name
	}
	return agencyID
}

// ParseDocument converts an API document into a draft ready for the store.
// Dates arrive as RFC 3339 timestamps and are normalized to calendar dates.
func (rc *RegulationsClient) ParseDocument(doc DocumentSummary) model.PeriodDraft {
	attrs := doc.Attributes

	title := attrs.Title
	if title == "" {
		title = "Untitled Document"
	}

	abstract := attrs.Summary
	if abstract == "" {
		abstract = attrs.HighlightedContent
	}

	agencyID := attrs.AgencyID
	if agencyID == "" {
		agencyID = "UNKNOWN"
	}

	draft := model.PeriodDraft{
		DocumentID:       doc.ID,
		DocketID:         model.NullString(attrs.DocketID),
		Title:            title,
		AgencyID:         agencyID,
		AgencyName:       AgencyName(agencyID),
		DocumentType:     model.NullString(attrs.DocumentType),
		PostedDate:       dateOnly(attrs.PostedDate),
		CommentStartDate: model.NullString(dateOnly(attrs.CommentStartDate)),
		CommentEndDate:   dateOnly(attrs.CommentEndDate),
		Abstract:         model.NullString(abstract),
		RegulationsURL:   "https://www.regulations.gov/commenton/" + doc.ID,
		DetailsURL:       model.NullString("https://www.regulations.gov/document/" + doc.ID),
		SourceURL:        model.NullString(rc.BaseURL + "/documents/" + doc.ID),
	}

	if attrs.FRDocNum != "" {
		draft.FederalRegisterURL = model.NullString("https://www.federalregister.gov/documents/" + attrs.FRDocNum)
	}

	return draft
}

// dateOnly reduces an ISO timestamp ("2026-01-15T05:00:00Z") or date to its
// YYYY-MM-DD prefix. Unparseable values pass through for validation to
// reject downstream.
func dateOnly(s string) string {
	if len(s) < len(model.DateLayout) {
		return s
	}
	prefix := s[:len(model.DateLayout)]
	if _, err := time.Parse(model.DateLayout, prefix); err != nil {
		return s
	}
	return prefix
}
