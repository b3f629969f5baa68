package captions

import (
	"testing"

	"github.com/chenaaron3/shortsgen/internal/manifest"
)

func caps(triples ...[3]int) []manifest.Caption {
	var out []manifest.Caption
	for i, tr := range triples {
		out = append(out, manifest.Caption{
			Text:    string(rune('a' + i)),
			StartMs: tr[0],
			EndMs:   tr[1],
		})
	}
	return out
}

func threeWords() []manifest.Caption {
	return []manifest.Caption{
		{Text: "word1", StartMs: 0, EndMs: 500},
		{Text: "word2", StartMs: 520, EndMs: 900},
		{Text: "word3", StartMs: 2000, EndMs: 2400},
	}
}

func TestPaginateGroupsByGap(t *testing.T) {
	pages := Paginate(threeWords(), 800)

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if len(pages[0].Tokens) != 2 || pages[0].Tokens[0].Text != "word1" || pages[0].Tokens[1].Text != "word2" {
		t.Errorf("page 0 tokens wrong: %+v", pages[0].Tokens)
	}
	if pages[0].StartMs != 0 || pages[0].DurationMs != 900 {
		t.Errorf("page 0 window wrong: start=%d dur=%d", pages[0].StartMs, pages[0].DurationMs)
	}
	if len(pages[1].Tokens) != 1 || pages[1].Tokens[0].Text != "word3" {
		t.Errorf("page 1 tokens wrong: %+v", pages[1].Tokens)
	}
	if pages[1].StartMs != 2000 || pages[1].DurationMs != 400 {
		t.Errorf("page 1 window wrong: start=%d dur=%d", pages[1].StartMs, pages[1].DurationMs)
	}
}

func TestPaginateZeroThreshold(t *testing.T) {
	pages := Paginate(threeWords(), 0)
	if len(pages) != 3 {
		t.Fatalf("expected one page per word, got %d pages", len(pages))
	}
	for i, p := range pages {
		if len(p.Tokens) != 1 {
			t.Errorf("page %d: expected 1 token, got %d", i, len(p.Tokens))
		}
	}
}

func TestPaginateEmpty(t *testing.T) {
	if pages := Paginate(nil, 800); pages != nil {
		t.Errorf("expected no pages, got %d", len(pages))
	}
}

func TestPaginateCoverage(t *testing.T) {
	input := caps([3]int{0, 100, 0}, [3]int{100, 100, 0}, [3]int{150, 400, 0}, [3]int{900, 1200, 0}, [3]int{1200, 1200, 0}, [3]int{5000, 5100, 0})

	for _, threshold := range []int{0, 50, 800, 10000} {
		pages := Paginate(input, threshold)

		var flat []manifest.Caption
		for _, p := range pages {
			flat = append(flat, p.Tokens...)
		}
		if len(flat) != len(input) {
			t.Fatalf("threshold %d: %d tokens in, %d tokens out", threshold, len(input), len(flat))
		}
		for i := range flat {
			if flat[i] != input[i] {
				t.Errorf("threshold %d: token %d reordered or altered", threshold, i)
			}
		}
	}
}

func TestPaginateThresholdMonotonicity(t *testing.T) {
	input := caps([3]int{0, 100, 0}, [3]int{300, 500, 0}, [3]int{600, 900, 0}, [3]int{2500, 2700, 0}, [3]int{2750, 3000, 0})

	prevCount := len(input) + 1
	for _, threshold := range []int{0, 100, 200, 500, 1000, 2000} {
		count := len(Paginate(input, threshold))
		if count > prevCount {
			t.Errorf("threshold %d produced %d pages, more than %d at a lower threshold", threshold, count, prevCount)
		}
		prevCount = count
	}
}

func TestPaginateZeroDurationToken(t *testing.T) {
	input := []manifest.Caption{
		{Text: "a", StartMs: 0, EndMs: 200},
		{Text: "b", StartMs: 300, EndMs: 300},
		{Text: "c", StartMs: 350, EndMs: 600},
	}
	pages := Paginate(input, 500)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].DurationMs != 600 {
		t.Errorf("expected duration 600, got %d", pages[0].DurationMs)
	}
}

func TestPageAt(t *testing.T) {
	pages := Paginate(threeWords(), 800)

	tests := []struct {
		timeMs float64
		want   string // first token text, "" = no page
	}{
		{0, "word1"},
		{899, "word1"},
		{900, ""}, // half-open: page ends at last token's endMs
		{1500, ""},
		{2000, "word3"},
		{2399, "word3"},
		{2400, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		got := PageAt(pages, tt.timeMs)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("t=%.0f: expected no page, got %q", tt.timeMs, got.Tokens[0].Text)
		case tt.want != "" && (got == nil || got.Tokens[0].Text != tt.want):
			t.Errorf("t=%.0f: expected page %q, got %v", tt.timeMs, tt.want, got)
		}
	}
}

func TestPageAtExclusivity(t *testing.T) {
	pages := Paginate(threeWords(), 800)
	for ms := -100; ms < 3000; ms += 7 {
		active := 0
		for i := range pages {
			p := pages[i]
			if float64(ms) >= float64(p.StartMs) && float64(ms) < float64(p.EndMs()) {
				active++
			}
		}
		if active > 1 {
			t.Fatalf("t=%d: %d pages active at once", ms, active)
		}
	}
}
