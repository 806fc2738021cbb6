package digest

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
)

var md = goldmark.New()

// Render turns the selected insights into the HTML email body. An empty
// selection still renders a complete body so the markup is usable by
// callers that send regardless.
func Render(insights []Insight) (string, error) {
	var b strings.Builder
	b.WriteString("# CompeteTrack Weekly Digest\n\n")

	if len(insights) == 0 {
		b.WriteString("No new high-priority insights were found this week.\n")
	} else {
		fmt.Fprintf(&b, "Here are **%d** high-priority competitor insights from the last week:\n\n", len(insights))
		for _, i := range insights {
			fmt.Fprintf(&b, "## [%s] %s\n\n", i.Competitor, i.Title)
			fmt.Fprintf(&b, "%s\n\n", i.Summary)
			fmt.Fprintf(&b, "Priority: %s | Category: %s\n\n", i.Priority, i.Category)
			fmt.Fprintf(&b, "[View Source Article](%s)\n\n", i.SourceURL)
		}
	}

	var html strings.Builder
	if err := md.Convert([]byte(b.String()), &html); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return html.String(), nil
}
