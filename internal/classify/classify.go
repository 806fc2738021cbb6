// Package classify derives read-time views over stored articles from
// static keyword sets. Everything here is a pure function of the article's
// title and stored summary blob: severity for the dashboard feed, priority
// and category for the insights view, and the KPI critical-title rule.
//
// Matching is case-insensitive substring containment throughout, not
// word-boundary matching: "top 10" matches inside "top 100". That is the
// documented policy, not an accident.
package classify

import (
	"strings"

	"competetrack/internal/summarize"
)

// Severity levels for the dashboard feed view.
const (
	SeverityNormal   = "Normal"
	SeverityMedium   = "Medium"
	SeverityCritical = "Critical"
	SeverityError    = "Error"
)

// Priority levels for the insights view.
const (
	PriorityMedium = "Medium Priority"
	PriorityHigh   = "High Priority"
)

// Category fallbacks.
const (
	CategoryGeneral      = "General"
	CategoryParsingError = "Parsing Error"
)

// TagParsingError marks articles whose stored summary failed to parse.
const TagParsingError = "Parsing Error"

var (
	// CriticalKeywords drive feed severity, matched against
	// title + summary + tags.
	CriticalKeywords = []string{"critical", "vulnerability", "threat", "major security", "major outage", "lawsuit", "acquisition", "top 10", "transform"}

	// MediumKeywords are the second severity tier.
	MediumKeywords = []string{"launch", "new feature", "pricing change", "high priority", "review", "guide", "easier"}

	// HighPriorityKeywords drive insight priority and digest selection.
	HighPriorityKeywords = []string{"critical", "vulnerability", "threat", "major security", "major outage", "lawsuit", "acquisition", "top 10", "transform"}

	// KPICriticalKeywords is the narrower set behind the critical-updates
	// KPI, matched against the title alone. Deliberately distinct from
	// CriticalKeywords; do not merge the two rules.
	KPICriticalKeywords = []string{"critical", "vulnerability", "threat", "lawsuit", "top 10", "transform"}

	// GenericTags is the stoplist skipped when picking an insight category.
	GenericTags = []string{"general", "product", "pricing", "update", "launch", "feature", "review", "analysis", "tech", "saas", "ai"}
)

// FeedView is the dashboard-feed classification of one article.
type FeedView struct {
	Severity string
	Summary  string
	Tags     []string
}

// Feed classifies an article for the dashboard feed. An unparsable stored
// summary forces severity Error and a Parsing Error tag; the display
// summary then falls back to the raw blob.
func Feed(title, rawSummary string) FeedView {
	full := strings.ToLower(title)

	rec, ok := summarize.DecodeRecord(rawSummary)
	if !ok {
		full += " " + strings.ToLower(rawSummary)
		return FeedView{
			Severity: SeverityError,
			Summary:  rawSummary,
			Tags:     []string{TagParsingError},
		}
	}

	summary := rec.Display()
	full += " " + strings.ToLower(summary) + " " + joinNormalized(rec.Tags)

	severity := SeverityNormal
	switch {
	case containsAny(full, CriticalKeywords):
		severity = SeverityCritical
	case containsAny(full, MediumKeywords):
		severity = SeverityMedium
	}

	return FeedView{Severity: severity, Summary: summary, Tags: rec.Tags}
}

// InsightView is the insights-page classification of one article.
type InsightView struct {
	Priority string
	Category string
	Summary  string
	Tags     []string
}

// Insight classifies an article for the insights view: priority from the
// high-priority keyword set, category from the first non-generic tag.
func Insight(title, rawSummary string) InsightView {
	full := strings.ToLower(title)

	rec, ok := summarize.DecodeRecord(rawSummary)
	if !ok {
		full += " " + strings.ToLower(rawSummary)
		return InsightView{
			Priority: priorityOf(full),
			Category: CategoryParsingError,
			Summary:  "No actionable insight provided.",
			Tags:     []string{TagParsingError},
		}
	}

	summary := rec.Display()
	if summary == "" {
		summary = "No actionable insight provided."
	}
	full += " " + strings.ToLower(summary) + " " + joinNormalized(rec.Tags)

	return InsightView{
		Priority: priorityOf(full),
		Category: categoryOf(rec.Tags),
		Summary:  summary,
		Tags:     rec.Tags,
	}
}

// CriticalTitle reports whether the title alone matches the KPI critical
// set. This is a different rule from feed severity.
func CriticalTitle(title string) bool {
	return containsAny(strings.ToLower(title), KPICriticalKeywords)
}

// HighPriorityText reports whether the raw, pre-parse concatenation of
// title and stored summary matches the high-priority set. This is the
// digest filter: looser than Insight, applied before any JSON decoding.
func HighPriorityText(title, rawSummary string) bool {
	return containsAny(strings.ToLower(title)+strings.ToLower(rawSummary), HighPriorityKeywords)
}

func priorityOf(full string) string {
	if containsAny(full, HighPriorityKeywords) {
		return PriorityHigh
	}
	return PriorityMedium
}

// categoryOf picks the first tag outside the generic stoplist, title-cased.
func categoryOf(tags []string) string {
	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" || inList(normalized, GenericTags) {
			continue
		}
		return titleCase(normalized)
	}
	return CategoryGeneral
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func inList(s string, list []string) bool {
	for _, item := range list {
		if s == item {
			return true
		}
	}
	return false
}

func joinNormalized(tags []string) string {
	normalized := make([]string, len(tags))
	for i, t := range tags {
		normalized[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return strings.Join(normalized, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
