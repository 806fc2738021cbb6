// Package digest builds and sends the weekly high-priority email digest:
// select matching articles from the last seven days, render an HTML body,
// and hand it to the mailer. A scheduler fires the run on the configured
// weekday.
package digest

import (
	"fmt"
	"log"
	"time"

	"competetrack/internal/classify"
	"competetrack/internal/database"
	"competetrack/internal/summarize"
)

// Window is how far back the digest looks for articles.
const Window = 7 * 24 * time.Hour

// Insight is one digest entry.
type Insight struct {
	Competitor string
	Title      string
	Summary    string
	SourceURL  string
	Priority   string
	Category   string
}

// Store is the slice of the article store the digest reads.
type Store interface {
	ArticlesSince(since time.Time) ([]database.Article, error)
}

// Select returns the high-priority insights from the week before now.
// Matching runs over the raw title+summary text before any JSON decoding;
// articles whose stored summary fails to parse still qualify and fall
// back to generic display values. Pure query, safe to rerun.
func Select(store Store, now time.Time) ([]Insight, error) {
	articles, err := store.ArticlesSince(now.Add(-Window))
	if err != nil {
		return nil, fmt.Errorf("load recent articles: %w", err)
	}

	var insights []Insight
	for _, a := range articles {
		if !classify.HighPriorityText(a.Title, a.Summary) {
			continue
		}

		summary := "Action required."
		category := classify.CategoryGeneral
		if rec, ok := summarize.DecodeRecord(a.Summary); ok {
			if display := rec.Display(); display != "" {
				summary = display
			}
			// First tag verbatim, unlike the insights view which
			// filters generic tags.
			if len(rec.Tags) > 0 {
				category = rec.Tags[0]
			}
		}

		insights = append(insights, Insight{
			Competitor: a.Competitor,
			Title:      a.Title,
			Summary:    summary,
			SourceURL:  a.URL,
			Priority:   classify.PriorityHigh,
			Category:   category,
		})
	}
	return insights, nil
}

// Sender delivers a rendered digest.
type Sender interface {
	Send(subject, htmlBody string) error
}

// Service ties selection, rendering and delivery together.
type Service struct {
	store  Store
	sender Sender
}

// NewService creates a digest service over a store and a mail sender.
func NewService(store Store, sender Sender) *Service {
	return &Service{store: store, sender: sender}
}

// Run selects the current digest window and sends the email. No email
// goes out when the selection is empty. Returns the insight count.
func (s *Service) Run(now time.Time) (int, error) {
	insights, err := Select(s.store, now)
	if err != nil {
		return 0, err
	}
	if len(insights) == 0 {
		log.Printf("digest: no high-priority insights in the last 7 days, skipping send")
		return 0, nil
	}

	body, err := Render(insights)
	if err != nil {
		return 0, fmt.Errorf("render digest: %w", err)
	}
	if err := s.sender.Send(Subject(len(insights)), body); err != nil {
		return len(insights), fmt.Errorf("send digest: %w", err)
	}
	log.Printf("digest: sent %d insights", len(insights))
	return len(insights), nil
}

// Subject is the digest email subject line.
func Subject(count int) string {
	return fmt.Sprintf("CompeteTrack Digest: %d New High-Priority Insights", count)
}
