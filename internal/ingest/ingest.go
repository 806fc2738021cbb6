// Package ingest runs the per-competitor pipeline: read the feed, extract
// article text, summarize, and persist. The extraction and summarization
// stages run on a small worker pool since both are network-bound.
package ingest

import (
	"context"
	"log"
	"sync"

	"competetrack/internal/feed"
	"competetrack/internal/summarize"
)

const (
	// DefaultWorkers is the pool size when none is configured.
	DefaultWorkers = 3
	// maxWorkers caps the pool to stay polite toward article hosts.
	maxWorkers = 5
)

// FeedReader lists entries from a feed URL.
type FeedReader interface {
	Fetch(feedURL string, limit int) []feed.Entry
}

// Extractor turns an article URL into cleaned plain text.
type Extractor interface {
	Text(pageURL string) string
}

// Summarizer produces a structured summary of article text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) summarize.Record
}

// Item is one processed feed entry, ready to persist.
type Item struct {
	Title   string
	URL     string
	Content string
	Summary summarize.Record
}

// Orchestrator chains feed reading, extraction and summarization.
type Orchestrator struct {
	feeds      FeedReader
	extractor  Extractor
	summarizer Summarizer
	limit      int
	workers    int
}

// NewOrchestrator wires the pipeline stages. limit bounds entries per
// feed; workers bounds pipeline concurrency and is clamped to [1, 5].
func NewOrchestrator(feeds FeedReader, extractor Extractor, summarizer Summarizer, limit, workers int) *Orchestrator {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if limit < 1 {
		limit = 5
	}
	return &Orchestrator{
		feeds:      feeds,
		extractor:  extractor,
		summarizer: summarizer,
		limit:      limit,
		workers:    workers,
	}
}

// Gather processes the feed at feedURL and returns one Item per usable
// entry. Completion order is arbitrary. Entries whose extraction fails
// still yield an Item; the summarizer records the degraded state in-band.
// A missing feed URL or a cancelled context returns what has been
// gathered so far.
func (o *Orchestrator) Gather(ctx context.Context, competitor, feedURL string) []Item {
	if feedURL == "" {
		log.Printf("ingest: %s has no feed URL, skipping", competitor)
		return nil
	}

	entries := o.feeds.Fetch(feedURL, o.limit)
	if len(entries) == 0 {
		return nil
	}

	jobs := make(chan feed.Entry)
	results := make(chan Item, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- o.process(ctx, entry)
			}
		}()
	}

feedLoop:
	for _, entry := range entries {
		select {
		case jobs <- entry:
		case <-ctx.Done():
			break feedLoop
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	items := make([]Item, 0, len(entries))
	for item := range results {
		items = append(items, item)
	}
	return items
}

func (o *Orchestrator) process(ctx context.Context, entry feed.Entry) Item {
	content := o.extractor.Text(entry.Link)
	if content == "" {
		log.Printf("ingest: no content extracted from %s", entry.Link)
	}
	return Item{
		Title:   entry.Title,
		URL:     entry.Link,
		Content: content,
		Summary: o.summarizer.Summarize(ctx, content),
	}
}
