package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest describes one prepared video: output dimensions, the ordered
// scenes, and word-level captions. It is produced by the prepare step and
// treated as immutable once loaded.
type Manifest struct {
	CacheKey         string    `json:"cacheKey"`
	FPS              int       `json:"fps"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	DurationInFrames int       `json:"durationInFrames"`
	Scenes           []Scene   `json:"scenes"`
	Captions         []Caption `json:"captions"`
}

// Scene is one visual beat: a still image shown while its voice clip plays.
type Scene struct {
	Text              string  `json:"text"`
	ImagePath         string  `json:"imagePath"`
	VoicePath         string  `json:"voicePath"`
	DurationInSeconds float64 `json:"durationInSeconds"`
}

// Caption is one recognized spoken token, or a scene-level phrase when
// word-level transcription was unavailable. Times are wall-clock offsets from
// the start of the whole composition.
type Caption struct {
	Text        string   `json:"text"`
	StartMs     int      `json:"startMs"`
	EndMs       int      `json:"endMs"`
	TimestampMs *int     `json:"timestampMs"`
	Confidence  *float64 `json:"confidence"`
}

// Index enumerates every cache key with a prepared manifest.
type Index struct {
	CacheKeys []string `json:"cacheKeys"`
}

// Load reads and validates a manifest. A missing file is a precondition
// failure: the error names the path and the command that produces it.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no manifest at %s: run `shortsgen prepare` (or `shortsgen pipeline`) to produce it", path)
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the structural invariants external data must satisfy before
// composition. Caption ordering and overlap are deliberately not checked;
// upstream transcription emits monotonic non-overlapping words.
func (m *Manifest) Validate() error {
	if m.CacheKey == "" {
		return fmt.Errorf("missing cacheKey")
	}
	if m.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", m.FPS)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("dimensions must be positive, got %dx%d", m.Width, m.Height)
	}
	if m.DurationInFrames < 0 {
		return fmt.Errorf("durationInFrames must not be negative, got %d", m.DurationInFrames)
	}
	for i, s := range m.Scenes {
		if s.DurationInSeconds <= 0 {
			return fmt.Errorf("scene %d: durationInSeconds must be positive, got %g", i+1, s.DurationInSeconds)
		}
		if s.ImagePath == "" || s.VoicePath == "" {
			return fmt.Errorf("scene %d: missing asset path", i+1)
		}
	}
	for i, c := range m.Captions {
		if c.Text == "" {
			return fmt.Errorf("caption %d: empty text", i+1)
		}
		if c.EndMs < c.StartMs {
			return fmt.Errorf("caption %d: endMs %d before startMs %d", i+1, c.EndMs, c.StartMs)
		}
	}
	return nil
}

// Write serializes the manifest to path.
func Write(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadIndex reads the index file. A missing index yields an empty index.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{}, nil
		}
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	return &idx, nil
}

// WriteIndex serializes the index to path.
func WriteIndex(idx *Index, path string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
