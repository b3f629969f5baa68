package captions

import (
	"github.com/chenaaron3/shortsgen/internal/manifest"
)

// Page is a time-bounded group of caption tokens displayed together. Pages
// partition the caption sequence: every token belongs to exactly one page, in
// input order. A page spans from its first token's start to its last token's
// end.
type Page struct {
	StartMs    int
	DurationMs int
	Tokens     []manifest.Caption
}

// EndMs returns the exclusive end of the page's display window.
func (p Page) EndMs() int {
	return p.StartMs + p.DurationMs
}

// Paginate groups captions into display pages. A new page starts whenever the
// gap between a caption's start and the previous caption's end exceeds
// combineThresholdMs. Threshold 0 yields one page per token (word-by-word
// reveal); larger thresholds merge words spoken without pause into multi-word
// subtitle pages.
func Paginate(captions []manifest.Caption, combineThresholdMs int) []Page {
	if len(captions) == 0 {
		return nil
	}

	var pages []Page
	current := Page{StartMs: captions[0].StartMs, Tokens: []manifest.Caption{captions[0]}}

	for _, c := range captions[1:] {
		prev := current.Tokens[len(current.Tokens)-1]
		if c.StartMs-prev.EndMs > combineThresholdMs {
			current.DurationMs = prev.EndMs - current.StartMs
			pages = append(pages, current)
			current = Page{StartMs: c.StartMs, Tokens: []manifest.Caption{c}}
			continue
		}
		current.Tokens = append(current.Tokens, c)
	}

	last := current.Tokens[len(current.Tokens)-1]
	current.DurationMs = last.EndMs - current.StartMs
	return append(pages, current)
}

// PageAt returns the page whose display window [startMs, startMs+durationMs)
// contains timeMs, or nil when no page is active. Pages are disjoint by
// construction so at most one can match.
func PageAt(pages []Page, timeMs float64) *Page {
	for i := range pages {
		if timeMs >= float64(pages[i].StartMs) && timeMs < float64(pages[i].EndMs()) {
			return &pages[i]
		}
	}
	return nil
}
