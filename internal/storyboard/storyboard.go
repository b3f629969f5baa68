// Package storyboard renders a manifest into a reviewable YAML document:
// one entry per scene with its timing, spoken text, and caption page count.
// The storyboard is descriptive output for humans; the manifest stays the
// single source of truth for rendering.
package storyboard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chenaaron3/shortsgen/internal/captions"
	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/timeline"
)

// Storyboard summarizes one prepared video.
type Storyboard struct {
	Version     string  `yaml:"version"`
	CacheKey    string  `yaml:"cacheKey"`
	Title       string  `yaml:"title,omitempty"`
	FPS         int     `yaml:"fps"`
	DurationSec float64 `yaml:"durationSec"`
	Scenes      []Entry `yaml:"scenes"`
}

// Entry is one scene's row in the storyboard.
type Entry struct {
	Index        int     `yaml:"id"`
	Text         string  `yaml:"text"`
	Image        string  `yaml:"image"`
	StartSec     float64 `yaml:"startSec"`
	EndSec       float64 `yaml:"endSec"`
	StartFrame   int     `yaml:"startFrame"`
	EndFrame     int     `yaml:"endFrame"`
	CaptionPages int     `yaml:"captionPages"`
}

// Build derives a storyboard from a manifest. combineThresholdMs controls
// caption pagination the same way it does at render time, so the page counts
// here match what the viewer will see.
func Build(m *manifest.Manifest, title string, combineThresholdMs int) *Storyboard {
	intervals := timeline.Build(m.Scenes, m.FPS)
	pages := captions.Paginate(m.Captions, combineThresholdMs)

	sb := &Storyboard{
		Version:     "1.0",
		CacheKey:    m.CacheKey,
		Title:       title,
		FPS:         m.FPS,
		DurationSec: float64(m.DurationInFrames) / float64(m.FPS),
	}
	for _, iv := range intervals {
		startSec := float64(iv.StartFrame) / float64(m.FPS)
		endSec := float64(iv.EndFrame()) / float64(m.FPS)
		sb.Scenes = append(sb.Scenes, Entry{
			Index:        iv.Index,
			Text:         iv.Scene.Text,
			Image:        iv.Scene.ImagePath,
			StartSec:     startSec,
			EndSec:       endSec,
			StartFrame:   iv.StartFrame,
			EndFrame:     iv.EndFrame(),
			CaptionPages: pagesWithin(pages, startSec*1000, endSec*1000),
		})
	}
	return sb
}

// pagesWithin counts caption pages that start inside [startMs, endMs).
func pagesWithin(pages []captions.Page, startMs, endMs float64) int {
	n := 0
	for _, p := range pages {
		if float64(p.StartMs) >= startMs && float64(p.StartMs) < endMs {
			n++
		}
	}
	return n
}

// Write saves the storyboard as YAML.
func Write(sb *Storyboard, path string) error {
	data, err := yaml.Marshal(sb)
	if err != nil {
		return fmt.Errorf("encoding storyboard: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads a storyboard written by Write.
func Read(path string) (*Storyboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sb Storyboard
	if err := yaml.Unmarshal(data, &sb); err != nil {
		return nil, fmt.Errorf("parsing storyboard %s: %w", path, err)
	}
	return &sb, nil
}
