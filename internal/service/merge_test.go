package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/model"
)

func TestMergeAbstractFillsOnlyWhenEmpty(t *testing.T) {
	fr := &FRDocument{Abstract: "FR abstract"}

	empty := MergeFederalRegister(model.PeriodDraft{}, fr)
	assert.Equal(t, "FR abstract", empty.Abstract.String)

	kept := MergeFederalRegister(model.PeriodDraft{
		Abstract: model.NullString("primary abstract"),
	}, fr)
	assert.Equal(t, "primary abstract", kept.Abstract.String, "primary abstract must win")
}

func TestMergeKeywordsUnion(t *testing.T) {
	draft := model.PeriodDraft{
		Keywords: model.NullString("air quality, emissions"),
	}
	fr := &FRDocument{Topics: []string{"Environmental protection", "emissions"}}

	merged := MergeFederalRegister(draft, fr)

	assert.Equal(t, "Environmental protection, air quality, emissions", merged.Keywords.String)
	assert.Equal(t, "air quality, emissions", draft.Keywords.String, "input must not be mutated")
}

func TestMergeDocumentTypeFromAction(t *testing.T) {
	fr := &FRDocument{Action: "Proposed rule; request for comments."}

	filled := MergeFederalRegister(model.PeriodDraft{}, fr)
	assert.Equal(t, "Proposed rule; request for comments.", filled.DocumentType.String)

	kept := MergeFederalRegister(model.PeriodDraft{
		DocumentType: model.NullString("Proposed Rule"),
	}, fr)
	assert.Equal(t, "Proposed Rule", kept.DocumentType.String)
}

func TestMergeNilDocumentIsIdentity(t *testing.T) {
	draft := model.PeriodDraft{Title: "A rule"}
	assert.Equal(t, draft, MergeFederalRegister(draft, nil))
}

func TestFRDocNumFromURL(t *testing.T) {
	assert.Equal(t, "2026-00783", FRDocNumFromURL("https://www.federalregister.gov/documents/2026-00783"))
	assert.Equal(t, "2026-00783", FRDocNumFromURL("https://www.federalregister.gov/documents/2026-00783/"))
	assert.Equal(t, "", FRDocNumFromURL(""))
	assert.Equal(t, "", FRDocNumFromURL("////"))
}

func TestEnricherPassesThroughWithoutReference(t *testing.T) {
	enricher := NewEnricher(NewFederalRegisterClient(newTestClient(&fakeSleeper{})))

	draft := model.PeriodDraft{DocumentID: "DOC-1", Abstract: model.NullString("kept")}
	out := enricher.Enrich(context.Background(), draft)

	assert.Equal(t, draft, out)
}

func TestEnricherDegradesOnLookupFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fedreg := NewFederalRegisterClient(newTestClient(&fakeSleeper{}))
	fedreg.BaseURL = srv.URL
	enricher := NewEnricher(fedreg)

	draft := model.PeriodDraft{
		DocumentID:         "DOC-1",
		FederalRegisterURL: model.NullString("https://www.federalregister.gov/documents/2026-00783"),
	}
	out := enricher.Enrich(context.Background(), draft)

	assert.Equal(t, draft, out, "a failed lookup must not block the draft")
}

func TestEnricherMergesFetchedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/2026-00783.json", r.URL.Path)
		fmt.Fprint(w, `{"abstract": "FR abstract", "action": "Proposed rule.", "topics": ["Air pollution control"]}`)
	}))
	defer srv.Close()

	fedreg := NewFederalRegisterClient(newTestClient(&fakeSleeper{}))
	fedreg.BaseURL = srv.URL
	enricher := NewEnricher(fedreg)

	out := enricher.Enrich(context.Background(), model.PeriodDraft{
		DocumentID:         "DOC-1",
		FederalRegisterURL: model.NullString("https://www.federalregister.gov/documents/2026-00783"),
	})

	assert.Equal(t, "FR abstract", out.Abstract.String)
	assert.Equal(t, "Proposed rule.", out.DocumentType.String)
	assert.Equal(t, "Air pollution control", out.Keywords.String)
}
