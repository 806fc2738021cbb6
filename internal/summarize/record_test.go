package summarize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeRecord(t *testing.T) {
	r, ok := DecodeRecord(`{"bullets":["a","b"],"insight":"c","tags":["d"]}`)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	want := Record{Bullets: []string{"a", "b"}, Insight: "c", Tags: []string{"d"}}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecordInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "{not json", "[1,2,3"} {
		if _, ok := DecodeRecord(raw); ok {
			t.Errorf("expected decode failure for %q", raw)
		}
	}
}

func TestDecodeRecordDropsNullEntries(t *testing.T) {
	r, ok := DecodeRecord(`{"bullets":["a",null,""],"insight":"x","tags":[null]}`)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if diff := cmp.Diff([]string{"a"}, r.Bullets); diff != "" {
		t.Errorf("bullets mismatch (-want +got):\n%s", diff)
	}
	if len(r.Tags) != 0 || r.Tags == nil {
		t.Errorf("expected empty non-nil tags, got %#v", r.Tags)
	}
}

func TestDisplayPrefersInsight(t *testing.T) {
	r := Record{Bullets: []string{"first bullet"}, Insight: "the insight"}
	if r.Display() != "the insight" {
		t.Errorf("unexpected display: %q", r.Display())
	}

	r.Insight = ""
	if r.Display() != "first bullet" {
		t.Errorf("unexpected display: %q", r.Display())
	}

	r.Bullets = nil
	if r.Display() != "" {
		t.Errorf("unexpected display: %q", r.Display())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := Record{Bullets: []string{"a"}, Insight: "b", Tags: []string{"c"}}
	decoded, ok := DecodeRecord(orig.Encode())
	if !ok {
		t.Fatal("expected round trip to decode")
	}
	if diff := cmp.Diff(orig, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
