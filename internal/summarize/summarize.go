// Package summarize produces structured article summaries via an LLM
// backend, degrading to sentinel records on every failure mode.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

// Sentinel insight values marking degraded summaries. Stored as-is so read
// paths and operators can distinguish the failure modes.
const (
	InsightTooShort      = "CONTENT_TOO_SHORT"
	InsightBackendFailed = "OLLAMA_CLI_FAILED"
	InsightInvalidOutput = "MODEL_OUTPUT_INVALID"
	InsightGeneralError  = "GENERAL_ERROR"
)

const (
	// minContentLength is the threshold below which no backend call is made.
	minContentLength = 100
	// maxContentLength caps the prompt payload to respect backend limits.
	maxContentLength = 15000
	// excerptLength bounds raw-text excerpts embedded in sentinel bullets.
	excerptLength = 250
)

const promptTemplate = "Summarize the following article in 3 bullet points, then provide 1 key insight, and list 3 relevant tags.\n" +
	"Output ONLY a single JSON object. The required keys are: 'bullets' (list of strings), 'insight' (string), and 'tags' (list of strings).\n\n" +
	"Article:\n%s"

// Summarizer wraps a Provider with the total-function summarization
// contract: every input, including empty text and a dead backend, yields a
// well-formed Record.
type Summarizer struct {
	provider Provider
}

// New creates a Summarizer over the given provider.
func New(provider Provider) *Summarizer {
	return &Summarizer{provider: provider}
}

// Summarize returns a structured summary of text. It never returns an
// error; every failure branch produces a sentinel Record instead.
func (s *Summarizer) Summarize(ctx context.Context, text string) Record {
	if len(text) < minContentLength {
		return Record{
			Bullets: []string{"Article content was too short or non-existent."},
			Insight: InsightTooShort,
			Tags:    []string{},
		}
	}

	content := text
	if len(content) > maxContentLength {
		content = truncate(content, maxContentLength)
	}
	prompt := fmt.Sprintf(promptTemplate, content)

	if s.provider == nil {
		return Record{
			Bullets: []string{"No summarization backend configured."},
			Insight: InsightBackendFailed,
			Tags:    []string{},
		}
	}

	raw, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		log.Printf("summarize: backend request failed: %v", err)
		return Record{
			Bullets: []string{fmt.Sprintf("Summarization backend unreachable: %v. Is the service running?", err)},
			Insight: InsightBackendFailed,
			Tags:    []string{},
		}
	}

	var r Record
	if jsonErr := json.Unmarshal([]byte(stripFences(raw)), &r); jsonErr != nil {
		log.Printf("summarize: model output was not valid JSON: %s... (%v)", excerpt(raw), jsonErr)
		return Record{
			Bullets: []string{excerpt(raw) + "..."},
			Insight: InsightInvalidOutput,
			Tags:    []string{},
		}
	}
	r.normalize()

	// Valid JSON that carries nothing usable is still a failed summary.
	if len(r.Bullets) == 0 && r.Insight == "" && len(r.Tags) == 0 {
		log.Printf("summarize: model returned an empty record")
		return Record{
			Bullets: []string{excerpt(content) + "..."},
			Insight: InsightGeneralError,
			Tags:    []string{},
		}
	}

	return r
}

// stripFences removes a surrounding markdown code fence from model output.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}

func excerpt(s string) string {
	return truncate(s, excerptLength)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
