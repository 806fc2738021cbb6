// Package feed reads competitor RSS/Atom feeds into title/link entries.
package feed

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const maxBodyBytes = 5 * 1024 * 1024

// Entry is a single feed item.
type Entry struct {
	Title string
	Link  string
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Reader downloads and parses syndication feeds.
type Reader struct {
	client HTTPClient
}

// NewReader creates a Reader. A nil client uses a default with a 30s timeout.
func NewReader(client HTTPClient) *Reader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Reader{client: client}
}

// Fetch returns up to limit entries from the feed, in feed order. Any
// network or parse failure yields an empty slice; failures are logged,
// never returned.
func (r *Reader) Fetch(feedURL string, limit int) []Entry {
	req, err := http.NewRequest(http.MethodGet, feedURL, nil)
	if err != nil {
		log.Printf("feed: bad URL %s: %v", feedURL, err)
		return nil
	}
	req.Header.Set("User-Agent", "CompeteTrack/1.0 (competitor tracker)")

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("feed: fetch %s: %v", feedURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("feed: %s returned status %d", feedURL, resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Printf("feed: read %s: %v", feedURL, err)
		return nil
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		log.Printf("feed: parse %s: %v", feedURL, err)
		return nil
	}

	var entries []Entry
	for _, item := range parsed.Items {
		if len(entries) >= limit {
			break
		}

		link := item.Link
		if link == "" {
			link = item.GUID
		}
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}

		entries = append(entries, Entry{Title: title, Link: link})
	}
	return entries
}
