package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"competetrack/internal/database"
	"competetrack/internal/feed"
	"competetrack/internal/summarize"
)

type stubFeed struct {
	entries []feed.Entry
	gotURL  string
	gotLim  int
}

func (s *stubFeed) Fetch(feedURL string, limit int) []feed.Entry {
	s.gotURL = feedURL
	s.gotLim = limit
	if limit < len(s.entries) {
		return s.entries[:limit]
	}
	return s.entries
}

type stubExtractor struct {
	mu     sync.Mutex
	texts  map[string]string
	calls  int
	active int
	peak   int
}

func (s *stubExtractor) Text(pageURL string) string {
	s.mu.Lock()
	s.calls++
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()
	return s.texts[pageURL]
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, text string) summarize.Record {
	if text == "" {
		return summarize.Record{Insight: summarize.InsightTooShort, Bullets: []string{}, Tags: []string{}}
	}
	return summarize.Record{Insight: "summary of: " + text, Bullets: []string{}, Tags: []string{}}
}

func entries(n int) []feed.Entry {
	var out []feed.Entry
	for i := 0; i < n; i++ {
		out = append(out, feed.Entry{
			Title: fmt.Sprintf("Post %d", i),
			Link:  fmt.Sprintf("https://example.com/%d", i),
		})
	}
	return out
}

func TestGatherProcessesAllEntries(t *testing.T) {
	feeds := &stubFeed{entries: entries(4)}
	texts := map[string]string{}
	for _, e := range feeds.entries {
		texts[e.Link] = "body of " + e.Title
	}
	ext := &stubExtractor{texts: texts}

	orch := NewOrchestrator(feeds, ext, stubSummarizer{}, 5, 2)
	items := orch.Gather(context.Background(), "Acme", "https://example.com/feed")

	if feeds.gotURL != "https://example.com/feed" || feeds.gotLim != 5 {
		t.Errorf("feed fetched with (%q, %d)", feeds.gotURL, feeds.gotLim)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].URL < items[j].URL })
	want := Item{
		Title:   "Post 0",
		URL:     "https://example.com/0",
		Content: "body of Post 0",
		Summary: summarize.Record{Insight: "summary of: body of Post 0", Bullets: []string{}, Tags: []string{}},
	}
	if diff := cmp.Diff(want, items[0]); diff != "" {
		t.Errorf("item mismatch (-want +got):\n%s", diff)
	}
}

func TestGatherNoFeedURL(t *testing.T) {
	feeds := &stubFeed{entries: entries(3)}
	orch := NewOrchestrator(feeds, &stubExtractor{}, stubSummarizer{}, 5, 2)
	if items := orch.Gather(context.Background(), "Acme", ""); items != nil {
		t.Errorf("got %d items, want none", len(items))
	}
	if feeds.gotURL != "" {
		t.Error("feed should not have been fetched")
	}
}

func TestGatherFailedExtractionStillYieldsItem(t *testing.T) {
	feeds := &stubFeed{entries: entries(1)}
	ext := &stubExtractor{texts: map[string]string{}} // every lookup misses
	orch := NewOrchestrator(feeds, ext, stubSummarizer{}, 5, 1)

	items := orch.Gather(context.Background(), "Acme", "https://example.com/feed")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Summary.Insight != summarize.InsightTooShort {
		t.Errorf("Insight = %q, want sentinel", items[0].Summary.Insight)
	}
}

func TestGatherRespectsWorkerBound(t *testing.T) {
	feeds := &stubFeed{entries: entries(10)}
	texts := map[string]string{}
	for _, e := range feeds.entries {
		texts[e.Link] = "body"
	}
	ext := &stubExtractor{texts: texts}

	orch := NewOrchestrator(feeds, ext, stubSummarizer{}, 10, 2)
	orch.Gather(context.Background(), "Acme", "https://example.com/feed")

	if ext.calls != 10 {
		t.Errorf("extractor called %d times, want 10", ext.calls)
	}
	if ext.peak > 2 {
		t.Errorf("peak concurrency %d exceeds worker bound 2", ext.peak)
	}
}

func TestNewOrchestratorClampsWorkers(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{0, DefaultWorkers}, {-1, DefaultWorkers}, {3, 3}, {99, 5}} {
		if got := NewOrchestrator(nil, nil, nil, 5, tt.in).workers; got != tt.want {
			t.Errorf("workers(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestServiceRunPersistsAndCountsDuplicates(t *testing.T) {
	db := openTestDB(t)
	comp := database.Competitor{Name: "Acme", FeedURL: "https://example.com/feed"}
	if _, err := db.InsertCompetitor(comp.Name, "https://example.com", comp.FeedURL, ""); err != nil {
		t.Fatalf("insert competitor: %v", err)
	}

	feeds := &stubFeed{entries: entries(3)}
	texts := map[string]string{}
	for _, e := range feeds.entries {
		texts[e.Link] = "body of " + e.Title
	}
	svc := NewService(db, NewOrchestrator(feeds, &stubExtractor{texts: texts}, stubSummarizer{}, 5, 2))

	res, err := svc.Run(context.Background(), comp)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	want := Result{Processed: 3, Added: 3}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("first run result (-want +got):\n%s", diff)
	}

	// Re-running the same feed must be a no-op on the store.
	res, err = svc.Run(context.Background(), comp)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	want = Result{Processed: 3, Duplicates: 3}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("second run result (-want +got):\n%s", diff)
	}

	stored, err := db.ArticlesByCompetitor("Acme")
	if err != nil {
		t.Fatalf("list articles: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("store holds %d articles, want 3", len(stored))
	}
	for _, a := range stored {
		if rec, ok := summarize.DecodeRecord(a.Summary); !ok || rec.Insight == "" {
			t.Errorf("article %s has undecodable summary %q", a.URL, a.Summary)
		}
		if a.Status != database.StatusPending {
			t.Errorf("article %s status = %q, want %q", a.URL, a.Status, database.StatusPending)
		}
	}
}

func TestServiceRunEmptyFeed(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, NewOrchestrator(&stubFeed{}, &stubExtractor{}, stubSummarizer{}, 5, 2))
	res, err := svc.Run(context.Background(), database.Competitor{Name: "Acme", FeedURL: "https://example.com/feed"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res != (Result{}) {
		t.Errorf("result = %+v, want zero", res)
	}
}
