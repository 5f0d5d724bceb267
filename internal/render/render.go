// Package render builds the static site from stored comment periods: an
// HTML index with client-side topic filtering, an RSS feed and a JSON data
// file for programmatic consumers.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gorilla/feeds"

	"github.com/regwatch/regwatch/internal/model"
	"github.com/regwatch/regwatch/internal/post"
	"github.com/regwatch/regwatch/internal/store"
	"github.com/regwatch/regwatch/internal/topics"
)

//go:embed index.html.tmpl
var indexTemplate string

//go:embed static
var staticFiles embed.FS

const (
	siteURL = "https://regwatch.github.io"
	// feedLimit caps the RSS feed at the most recently posted periods.
	feedLimit = 50
)

// Builder writes the static site into an output directory.
type Builder struct {
	outDir string
	logger *log.Logger
}

// NewBuilder creates a Builder writing into outDir.
func NewBuilder(outDir string) *Builder {
	return &Builder{
		outDir: outDir,
		logger: log.New(os.Stdout, "[render] ", log.LstdFlags),
	}
}

type topicView struct {
	ID    string
	Name  string
	Emoji string
}

type periodView struct {
	Title            string
	AgencyID         string
	AgencyName       string
	Abstract         string
	AbstractPreview  string
	CommentEndDate   string
	FormattedEndDate string
	Urgency          string
	DaysLabel        string
	Topics           []topicView
	TopicsJSON       string
	RegulationsURL   string
	DetailsLink      string
	PostedDate       string
}

type pageData struct {
	Stats       *store.Stats
	AgencyCount int
	ClosingSoon int
	Topics      []topicView
	Periods     []periodView
	Updated     string
}

// Build renders index.html, feed.xml, data.json and the static assets for
// the given open periods. periods should already exclude closed ones; any
// closed period that slips in renders with a closed urgency rather than
// breaking the page.
func (b *Builder) Build(periods []model.CommentPeriod, stats *store.Stats, now time.Time) error {
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	views := buildViews(periods, now)

	if err := b.writeIndex(views, stats, now); err != nil {
		return err
	}
	if err := b.writeFeed(periods, now); err != nil {
		return err
	}
	if err := b.writeJSON(views, now); err != nil {
		return err
	}
	if err := b.copyStatic(); err != nil {
		return err
	}

	b.logger.Printf("Built site with %d periods in %s", len(views), b.outDir)
	return nil
}

func buildViews(periods []model.CommentPeriod, now time.Time) []periodView {
	sorted := make([]model.CommentPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CommentEndDate < sorted[j].CommentEndDate
	})

	views := make([]periodView, 0, len(sorted))
	for _, p := range sorted {
		days := daysUntil(p.CommentEndDate, now)
		ids := topics.Categorize(p.Title, p.Abstract.String, p.AgencyID)
		idsJSON, _ := json.Marshal(ids)

		views = append(views, periodView{
			Title:            p.Title,
			AgencyID:         p.AgencyID,
			AgencyName:       p.AgencyName,
			Abstract:         p.Abstract.String,
			AbstractPreview:  preview(p.Abstract.String, 280),
			CommentEndDate:   p.CommentEndDate,
			FormattedEndDate: post.FormatDate(p.CommentEndDate),
			Urgency:          urgency(days),
			DaysLabel:        daysLabel(days),
			Topics:           topicViews(ids),
			TopicsJSON:       string(idsJSON),
			RegulationsURL:   p.RegulationsURL,
			DetailsLink:      detailsLink(p),
			PostedDate:       p.PostedDate,
		})
	}
	return views
}

func (b *Builder) writeIndex(views []periodView, stats *store.Stats, now time.Time) error {
	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse index template: %w", err)
	}

	agencies := make(map[string]bool)
	closingSoon := 0
	for _, v := range views {
		agencies[v.AgencyID] = true
		if v.Urgency == "urgent" || v.Urgency == "soon" {
			closingSoon++
		}
	}

	data := pageData{
		Stats:       stats,
		AgencyCount: len(agencies),
		ClosingSoon: closingSoon,
		Topics:      allTopicViews(),
		Periods:     views,
		Updated:     now.UTC().Format("January 2, 2006 15:04 UTC"),
	}

	f, err := os.Create(filepath.Join(b.outDir, "index.html"))
	if err != nil {
		return fmt.Errorf("failed to create index.html: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render index.html: %w", err)
	}
	return nil
}

func (b *Builder) writeFeed(periods []model.CommentPeriod, now time.Time) error {
	sorted := make([]model.CommentPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PostedDate > sorted[j].PostedDate
	})
	if len(sorted) > feedLimit {
		sorted = sorted[:feedLimit]
	}

	feed := &feeds.Feed{
		Title:       "Federal Regulatory Comment Periods",
		Link:        &feeds.Link{Href: siteURL},
		Description: "Open federal regulatory comment periods from Regulations.gov",
		Created:     now,
	}

	for _, p := range sorted {
		posted, _ := time.Parse(model.DateLayout, p.PostedDate)
		desc := fmt.Sprintf("%s. Comments due %s.", p.AgencyName, post.FormatDate(p.CommentEndDate))
		if p.Abstract.Valid {
			desc = preview(p.Abstract.String, 500) + " " + desc
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       fmt.Sprintf("[%s] %s", p.AgencyID, p.Title),
			Link:        &feeds.Link{Href: p.RegulationsURL},
			Description: desc,
			Id:          p.DocumentID,
			Created:     posted,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("failed to render feed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.outDir, "feed.xml"), []byte(rss), 0o644); err != nil {
		return fmt.Errorf("failed to write feed.xml: %w", err)
	}
	return nil
}

func (b *Builder) writeJSON(views []periodView, now time.Time) error {
	type apiPeriod struct {
		Title          string   `json:"title"`
		AgencyID       string   `json:"agency_id"`
		AgencyName     string   `json:"agency_name"`
		Abstract       string   `json:"abstract,omitempty"`
		PostedDate     string   `json:"posted_date"`
		CommentEndDate string   `json:"comment_end_date"`
		Urgency        string   `json:"urgency"`
		Topics         []string `json:"topics"`
		RegulationsURL string   `json:"regulations_url"`
	}

	out := struct {
		Meta struct {
			Generated string `json:"generated"`
			Total     int    `json:"total"`
		} `json:"meta"`
		Periods []apiPeriod `json:"periods"`
	}{}
	out.Meta.Generated = now.UTC().Format(time.RFC3339)
	out.Meta.Total = len(views)
	out.Periods = make([]apiPeriod, 0, len(views))

	for _, v := range views {
		ids := make([]string, 0, len(v.Topics))
		for _, t := range v.Topics {
			ids = append(ids, t.ID)
		}
		out.Periods = append(out.Periods, apiPeriod{
			Title:          v.Title,
			AgencyID:       v.AgencyID,
			AgencyName:     v.AgencyName,
			Abstract:       v.Abstract,
			PostedDate:     v.PostedDate,
			CommentEndDate: v.CommentEndDate,
			Urgency:        v.Urgency,
			Topics:         ids,
			RegulationsURL: v.RegulationsURL,
		})
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.outDir, "data.json"), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write data.json: %w", err)
	}
	return nil
}

func (b *Builder) copyStatic() error {
	return fs.WalkDir(staticFiles, "static", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := staticFiles.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded asset %s: %w", path, err)
		}
		dest := filepath.Join(b.outDir, filepath.Base(path))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
		return nil
	})
}

func topicViews(ids []string) []topicView {
	all := topics.All()
	views := make([]topicView, 0, len(ids))
	for _, id := range ids {
		t, ok := all[id]
		if !ok {
			continue
		}
		views = append(views, topicView{ID: id, Name: t.Name, Emoji: t.Emoji})
	}
	return views
}

func allTopicViews() []topicView {
	all := topics.All()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return topicViews(ids)
}

// daysUntil counts whole calendar days from now's date to the given date.
// A malformed date counts as already closed.
func daysUntil(date string, now time.Time) int {
	end, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return -1
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(today).Hours() / 24)
}

func urgency(days int) string {
	switch {
	case days < 0:
		return "closed"
	case days <= 3:
		return "urgent"
	case days <= 7:
		return "soon"
	default:
		return "normal"
	}
}

func daysLabel(days int) string {
	switch {
	case days < 0:
		return "Closed"
	case days == 0:
		return "Closes today!"
	case days == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func detailsLink(p model.CommentPeriod) string {
	if p.FederalRegisterURL.Valid && p.FederalRegisterURL.String != "" {
		return p.FederalRegisterURL.String
	}
	return p.RegulationsURL
}
