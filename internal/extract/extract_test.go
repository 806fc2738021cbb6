package extract

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Acme Blog</title><style>.x{color:red}</style></head>
<body>
<nav><a href="/">Skip to content</a></nav>
<script>var tracking = true;</script>
<article>
<h1>Acme launches realtime analytics</h1>
<p>Acme today announced a realtime analytics product aimed at engineering teams that need sub-second dashboards.</p>
<p>The launch follows a year of private beta with roughly forty customers across fintech and logistics.</p>
<p>Pricing starts at ninety dollars per month with usage-based tiers above that.</p>
</article>
<footer>Copyright Acme</footer>
</body>
</html>`

const divPage = `<html><body>
<div class="header">menu</div>
<div id="main-content">
<p>First paragraph of the story with enough words to be considered substantive content by the extractor.</p>
<p>Second paragraph continuing the story with additional detail about the announcement and its context.</p>
</div>
</body></html>`

func TestFromHTMLPrefersArticleParagraphs(t *testing.T) {
	text := FromHTML([]byte(articlePage), "https://acme.io/blog/analytics")

	if !strings.Contains(text, "realtime analytics product") {
		t.Errorf("expected article paragraph text, got %q", text)
	}
	if strings.Contains(text, "tracking") || strings.Contains(text, "color:red") {
		t.Errorf("script/style content leaked: %q", text)
	}
	if strings.Contains(text, "Skip to content") || strings.Contains(text, "Copyright") {
		t.Errorf("nav/footer content leaked: %q", text)
	}
}

func TestFromHTMLFallsBackToIDRegion(t *testing.T) {
	text := FromHTML([]byte(divPage), "https://acme.io/story")

	if !strings.Contains(text, "First paragraph of the story") {
		t.Errorf("expected id-matched region text, got %q", text)
	}
	if strings.Contains(text, "menu") {
		t.Errorf("header content leaked: %q", text)
	}
}

func TestFromHTMLShortRegionFallsBackToRegionText(t *testing.T) {
	page := `<html><body><article><h2>Headline only, no paragraph tags here but a reasonable amount of heading text</h2></article></body></html>`
	text := FromHTML([]byte(page), "https://acme.io/short")
	if !strings.Contains(text, "Headline only") {
		t.Errorf("expected region full-text fallback, got %q", text)
	}
}

func TestFromHTMLNoRegionFallsBackToWholePage(t *testing.T) {
	page := `<html><body><div><span>Loose text outside any recognizable container, long enough to survive the line filter.</span></div></body></html>`
	text := FromHTML([]byte(page), "https://acme.io/loose")
	if !strings.Contains(text, "Loose text") {
		t.Errorf("expected whole-page fallback, got %q", text)
	}
}

func TestTextReturnsEmptyOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	e := New(0)
	if got := e.Text(srv.URL); got != "" {
		t.Errorf("expected empty string on 404, got %q", got)
	}
}

func TestTextReturnsEmptyOnConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	e := New(0)
	if got := e.Text(srv.URL); got != "" {
		t.Errorf("expected empty string on connection error, got %q", got)
	}
}

func TestTextExtractsFromLiveServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	e := New(0)
	text := e.Text(srv.URL)
	if !strings.Contains(text, "private beta") {
		t.Errorf("expected extracted text, got %q", text)
	}
}

func TestCleanLinesDropsNoise(t *testing.T) {
	in := "Real sentence here.\n| | |\n...\n42\nOK\n"
	out := cleanLines(in)
	if out != "Real sentence here." {
		t.Errorf("unexpected cleaned text: %q", out)
	}
}
