package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishCreatesSessionAndRecord(t *testing.T) {
	var createRecordBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "tracker.example.com", creds["identifier"])
			assert.Equal(t, "app-password", creds["password"])
			fmt.Fprint(w, `{"accessJwt": "jwt-token", "did": "did:plc:abc123"}`)

		case "/xrpc/com.atproto.repo.createRecord":
			assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createRecordBody))
			fmt.Fprint(w, `{"uri": "at://did:plc:abc123/app.bsky.feed.post/3k2a"}`)

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tracker.example.com", "app-password")

	uri, err := client.Publish(context.Background(), "🚨 New comment period")

	require.NoError(t, err)
	assert.Equal(t, "at://did:plc:abc123/app.bsky.feed.post/3k2a", uri)

	assert.Equal(t, "did:plc:abc123", createRecordBody["repo"])
	assert.Equal(t, "app.bsky.feed.post", createRecordBody["collection"])
	record := createRecordBody["record"].(map[string]any)
	assert.Equal(t, "app.bsky.feed.post", record["$type"])
	assert.Equal(t, "🚨 New comment period", record["text"])
	assert.NotEmpty(t, record["createdAt"])
}

func TestPublishFailsOnBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": "AuthenticationRequired"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tracker.example.com", "wrong")

	_, err := client.Publish(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create session")
}

func TestPublishFailsOnRecordError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/xrpc/com.atproto.server.createSession" {
			fmt.Fprint(w, `{"accessJwt": "jwt", "did": "did:plc:abc"}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "InvalidRequest"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tracker.example.com", "app-password")

	_, err := client.Publish(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create post")
}

func TestNewClientDefaultsHost(t *testing.T) {
	client := NewClient("", "handle", "password")
	assert.Equal(t, DefaultHost, client.host)
}
