package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"competetrack/internal/database"
)

type fakeStore struct {
	articles []database.Article
}

func (f *fakeStore) ArticlesSince(since time.Time) ([]database.Article, error) {
	var out []database.Article
	for _, a := range f.articles {
		fetched, err := time.Parse(database.TimeFormat, a.FetchedAt)
		if err != nil {
			continue
		}
		if !fetched.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeSender struct {
	subjects []string
	bodies   []string
	err      error
}

func (f *fakeSender) Send(subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, htmlBody)
	return nil
}

func fetchedAgo(now time.Time, d time.Duration) string {
	return now.Add(-d).UTC().Format(database.TimeFormat)
}

func TestSelectWindowAndKeywords(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{articles: []database.Article{
		{
			Competitor: "Acme",
			Title:      "Major outage hits production",
			URL:        "https://example.com/outage",
			Summary:    `{"insight": "Downtime lasted six hours.", "tags": ["Reliability", "Cloud"]}`,
			FetchedAt:  fetchedAgo(now, 2*24*time.Hour),
		},
		{
			Competitor: "Acme",
			Title:      "Critical vulnerability patched", // matches, but outside the window
			URL:        "https://example.com/old",
			Summary:    `{"insight": "Patch released."}`,
			FetchedAt:  fetchedAgo(now, 8*24*time.Hour),
		},
		{
			Competitor: "Beta",
			Title:      "Weekly product notes",
			URL:        "https://example.com/notes",
			Summary:    `{"insight": "Nothing remarkable."}`,
			FetchedAt:  fetchedAgo(now, 1*24*time.Hour),
		},
	}}

	got, err := Select(store, now)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := []Insight{{
		Competitor: "Acme",
		Title:      "Major outage hits production",
		Summary:    "Downtime lasted six hours.",
		SourceURL:  "https://example.com/outage",
		Priority:   "High Priority",
		Category:   "Reliability",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectUnparsableSummaryStillQualifies(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{articles: []database.Article{{
		Competitor: "Acme",
		Title:      "Lawsuit filed",
		URL:        "https://example.com/suit",
		Summary:    "{broken json",
		FetchedAt:  fetchedAgo(now, 24*time.Hour),
	}}}

	got, err := Select(store, now)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d insights, want 1", len(got))
	}
	if got[0].Summary != "Action required." {
		t.Errorf("Summary = %q, want fallback", got[0].Summary)
	}
	if got[0].Category != "General" {
		t.Errorf("Category = %q, want General", got[0].Category)
	}
}

func TestSelectKeywordInSummaryOnly(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{articles: []database.Article{{
		Competitor: "Acme",
		Title:      "Quiet week",
		URL:        "https://example.com/quiet",
		Summary:    `{"insight": "They completed an acquisition of a rival.", "tags": ["M&A"]}`,
		FetchedAt:  fetchedAgo(now, 24*time.Hour),
	}}}

	got, err := Select(store, now)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d insights, want 1", len(got))
	}
	if got[0].Category != "M&A" {
		t.Errorf("Category = %q, want first tag verbatim", got[0].Category)
	}
}

func TestRender(t *testing.T) {
	html, err := Render([]Insight{{
		Competitor: "Acme",
		Title:      "Major outage",
		Summary:    "Six hours of downtime.",
		SourceURL:  "https://example.com/outage",
		Priority:   "High Priority",
		Category:   "Reliability",
	}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, fragment := range []string{
		"<h1>CompeteTrack Weekly Digest</h1>",
		"[Acme] Major outage",
		"Six hours of downtime.",
		`<a href="https://example.com/outage">View Source Article</a>`,
		"Priority: High Priority | Category: Reliability",
	} {
		if !strings.Contains(html, fragment) {
			t.Errorf("rendered body missing %q:\n%s", fragment, html)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	html, err := Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "No new high-priority insights were found this week.") {
		t.Errorf("empty body missing notice:\n%s", html)
	}
}

func TestServiceRunSendsOnlyWhenNonEmpty(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	svc := NewService(&fakeStore{}, sender)

	count, err := svc.Run(now)
	if err != nil {
		t.Fatalf("empty run: %v", err)
	}
	if count != 0 || len(sender.subjects) != 0 {
		t.Errorf("empty run sent mail: count=%d sends=%d", count, len(sender.subjects))
	}

	store := &fakeStore{articles: []database.Article{{
		Competitor: "Acme",
		Title:      "Critical incident",
		URL:        "https://example.com/incident",
		Summary:    `{"insight": "Respond now."}`,
		FetchedAt:  fetchedAgo(now, 24*time.Hour),
	}}}
	svc = NewService(store, sender)
	count, err = svc.Run(now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if len(sender.subjects) != 1 || sender.subjects[0] != "CompeteTrack Digest: 1 New High-Priority Insights" {
		t.Errorf("subjects = %v", sender.subjects)
	}
}

func TestSchedulerDayGuard(t *testing.T) {
	now := time.Date(2025, 6, 16, 6, 0, 0, 0, time.UTC) // a Monday
	store := &fakeStore{articles: []database.Article{{
		Competitor: "Acme",
		Title:      "Critical incident",
		URL:        "https://example.com/incident",
		Summary:    `{"insight": "Respond now."}`,
		FetchedAt:  fetchedAgo(now, 24*time.Hour),
	}}}
	sender := &fakeSender{}
	sched := NewScheduler(NewService(store, sender), "Monday")

	sched.Check(now.Add(-24 * time.Hour)) // Sunday: wrong day
	if len(sender.subjects) != 0 {
		t.Fatalf("sent on the wrong day")
	}

	sched.Check(now) // Monday morning: sends
	sched.Check(now.Add(6 * time.Hour))
	sched.Check(now.Add(12 * time.Hour))
	if len(sender.subjects) != 1 {
		t.Fatalf("got %d sends on one Monday, want 1", len(sender.subjects))
	}

	sched.Check(now.Add(24 * time.Hour)) // Tuesday clears the guard

	// A fresh article keeps the next Monday's window non-empty; the
	// original fixture has aged out of it by then.
	store.articles = append(store.articles, database.Article{
		Competitor: "Acme",
		Title:      "Lawsuit filed",
		URL:        "https://example.com/suit",
		Summary:    `{"insight": "Legal exposure."}`,
		FetchedAt:  now.Add(6 * 24 * time.Hour).UTC().Format(database.TimeFormat),
	})
	sched.Check(now.Add(7 * 24 * time.Hour))
	if len(sender.subjects) != 2 {
		t.Errorf("got %d sends after a week, want 2", len(sender.subjects))
	}
}

func TestSchedulerEmptyRunStillConsumesDay(t *testing.T) {
	now := time.Date(2025, 6, 16, 6, 0, 0, 0, time.UTC) // Monday
	sender := &fakeSender{}
	store := &fakeStore{}
	sched := NewScheduler(NewService(store, sender), "Monday")

	sched.Check(now)

	// Insights appearing later the same day must wait for next week.
	store.articles = []database.Article{{
		Competitor: "Acme",
		Title:      "Critical incident",
		URL:        "https://example.com/incident",
		Summary:    `{"insight": "Respond now."}`,
		FetchedAt:  now.UTC().Format(database.TimeFormat),
	}}
	sched.Check(now.Add(6 * time.Hour))
	if len(sender.subjects) != 0 {
		t.Errorf("guard did not hold after an empty run")
	}
}
