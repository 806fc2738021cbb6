// Package extract turns article URLs into best-effort plain text.
package extract

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// DefaultTimeout bounds the page fetch.
	DefaultTimeout = 15 * time.Second

	// minRegionText is the threshold below which paragraph extraction is
	// considered implausible and wider fallbacks kick in.
	minRegionText = 100

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Non-content elements stripped before locating the article body.
const strippedSelectors = "script, style, nav, footer, aside, .sidebar, .ad, .banner-unit"

var (
	idPattern      = regexp.MustCompile(`(?i)content|main|article`)
	classPattern   = regexp.MustCompile(`(?i)content|article|post|body|story|td-post-content`)
	lettersPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)
)

// Extractor fetches pages and extracts readable article text.
type Extractor struct {
	client *http.Client
}

// New creates an Extractor. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration) *Extractor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Text retrieves the page at pageURL and returns a cleaned plain-text
// rendering of its main article body. Every failure mode (network error,
// non-2xx status, parse error) yields an empty string; nothing is raised
// to the caller.
func (e *Extractor) Text(pageURL string) string {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		log.Printf("extract: fetch %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("extract: %s returned status %d", pageURL, resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	return FromHTML(body, pageURL)
}

// FromHTML extracts article text from raw HTML. Split out of Text so the
// heuristics are testable without a live server.
func FromHTML(body []byte, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	doc.Find(strippedSelectors).Remove()

	var text string
	if region := findContentRegion(doc); region != nil {
		var paragraphs []string
		region.Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := strings.TrimSpace(p.Text()); t != "" {
				paragraphs = append(paragraphs, t)
			}
		})
		text = strings.Join(paragraphs, "\n\n")

		// Too little paragraph text: take everything in the region.
		if len(text) < minRegionText {
			text = region.Text()
		}
	} else {
		text = readableText(body, pageURL)
		if text == "" {
			text = doc.Text()
		}
	}

	return cleanLines(text)
}

// findContentRegion locates the main article container using prioritized
// structural hints: semantic tags first, then id/class patterns.
func findContentRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range []string{"article", "main"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}

	var match *goquery.Selection
	doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if id, ok := s.Attr("id"); ok && idPattern.MatchString(id) {
			match = s
			return false
		}
		return true
	})
	if match != nil {
		return match
	}

	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if class, ok := s.Attr("class"); ok && classPattern.MatchString(class) {
			match = s
			return false
		}
		return true
	})
	return match
}

// readableText runs readability over the fetched document as a structured
// fallback when no content region was recognized.
func readableText(body []byte, pageURL string) string {
	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) < minRegionText {
		return ""
	}
	return text
}

// cleanLines trims each line and drops lines that are short and lack at
// least three consecutive letters, which removes navigation fragments and
// punctuation-only noise.
func cleanLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 || lettersPattern.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
