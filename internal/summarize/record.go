package summarize

import (
	"encoding/json"
	"strings"
)

// Record is the structured output of summarization: three-ish bullets, one
// key insight, and topical tags. It is stored on articles as a JSON blob
// and must round-trip through storage that may hold legacy or corrupt data.
type Record struct {
	Bullets []string `json:"bullets"`
	Insight string   `json:"insight"`
	Tags    []string `json:"tags"`
}

// Encode serializes the record for storage.
func (r Record) Encode() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// Display returns the one-line presentation of the record: the insight, or
// the first bullet when no insight is present.
func (r Record) Display() string {
	if r.Insight != "" {
		return r.Insight
	}
	if len(r.Bullets) > 0 {
		return r.Bullets[0]
	}
	return ""
}

// DecodeRecord parses a stored summary blob. ok is false when the blob is
// absent or not valid JSON; callers fall back to the raw text and tag the
// record as a parsing error rather than failing.
func DecodeRecord(raw string) (Record, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Record{}, false
	}

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{}, false
	}
	r.normalize()
	return r, true
}

// normalize guarantees the slice invariants: never nil, never null-valued
// entries.
func (r *Record) normalize() {
	r.Bullets = dropEmpty(r.Bullets)
	r.Tags = dropEmpty(r.Tags)
}

func dropEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
