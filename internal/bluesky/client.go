// Package bluesky implements the outbound Publisher against the AT
// Protocol XRPC endpoints.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHost is the public Bluesky PDS.
const DefaultHost = "https://bsky.social"

// Client posts notifications to a Bluesky account. A fresh session is
// created per Publish call; the notification cadence is far below any
// session-churn concern.
type Client struct {
	httpClient *http.Client
	host       string
	handle     string
	password   string
}

// NewClient creates a Bluesky client for the given account. password is an
// app password, not the account password. An empty host selects DefaultHost.
func NewClient(host, handle, password string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		host:       host,
		handle:     handle,
		password:   password,
	}
}

type session struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
}

// Publish creates an app.bsky.feed.post record with the given text and
// returns the record URI as the dispatch receipt.
func (c *Client) Publish(ctx context.Context, text string) (string, error) {
	sess, err := c.createSession(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	body := map[string]any{
		"repo":       sess.DID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}

	var result struct {
		URI string `json:"uri"`
	}
	if err := c.postJSON(ctx, "/xrpc/com.atproto.repo.createRecord", sess.AccessJWT, body, &result); err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}

	return result.URI, nil
}

func (c *Client) createSession(ctx context.Context) (*session, error) {
	body := map[string]string{
		"identifier": c.handle,
		"password":   c.password,
	}

	var sess session
	if err := c.postJSON(ctx, "/xrpc/com.atproto.server.createSession", "", body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(respBody)
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		return fmt.Errorf("%s returned HTTP %d: %s", path, resp.StatusCode, excerpt)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
