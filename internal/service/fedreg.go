package service

import (
	"context"
	"fmt"
)

const federalRegisterBaseURL = "https://www.federalregister.gov/api/v1"

// FederalRegisterClient handles communication with the Federal Register v1
// API, the secondary enrichment source. It rides its own fetch engine
// instance so its pacing is independent of the Regulations.gov client.
type FederalRegisterClient struct {
	client *Client
	// BaseURL is overridable for tests.
	BaseURL string
}

// NewFederalRegisterClient creates a Federal Register API client.
func NewFederalRegisterClient(client *Client) *FederalRegisterClient {
	return &FederalRegisterClient{client: client, BaseURL: federalRegisterBaseURL}
}

// FRDocument carries the enrichment fields from a Federal Register document.
type FRDocument struct {
	Abstract string   `json:"abstract"`
	Action   string   `json:"action"`
	Topics   []string `json:"topics"`
}

// GetDocument retrieves a Federal Register document by document number
// (e.g. "2026-00783").
func (fc *FederalRegisterClient) GetDocument(ctx context.Context, frDocNum string) (*FRDocument, error) {
	var doc FRDocument
	if err := fc.client.GetJSON(ctx, fc.BaseURL+"/documents/"+frDocNum+".json", nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch Federal Register document %s: %w", frDocNum, err)
	}
	return &doc, nil
}
