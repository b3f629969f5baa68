package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validManifest() *Manifest {
	return &Manifest{
		CacheKey:         "abc123",
		FPS:              30,
		Width:            540,
		Height:           960,
		DurationInFrames: 105,
		Scenes: []Scene{
			{Text: "one", ImagePath: "images/image_1.png", VoicePath: "voice/voice_1.mp3", DurationInSeconds: 2.0},
			{Text: "two", ImagePath: "images/image_2.png", VoicePath: "voice/voice_2.mp3", DurationInSeconds: 1.5},
		},
		Captions: []Caption{
			{Text: " one", StartMs: 0, EndMs: 500},
			{Text: " two", StartMs: 2000, EndMs: 2400},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Manifest)
		wantErr string
	}{
		{"valid", func(m *Manifest) {}, ""},
		{"missing cache key", func(m *Manifest) { m.CacheKey = "" }, "cacheKey"},
		{"zero fps", func(m *Manifest) { m.FPS = 0 }, "fps"},
		{"negative width", func(m *Manifest) { m.Width = -1 }, "dimensions"},
		{"zero scene duration", func(m *Manifest) { m.Scenes[0].DurationInSeconds = 0 }, "durationInSeconds"},
		{"negative scene duration", func(m *Manifest) { m.Scenes[1].DurationInSeconds = -0.5 }, "durationInSeconds"},
		{"missing image path", func(m *Manifest) { m.Scenes[0].ImagePath = "" }, "asset path"},
		{"empty caption text", func(m *Manifest) { m.Captions[0].Text = "" }, "empty text"},
		{"caption ends before start", func(m *Manifest) { m.Captions[1].EndMs = 1999 }, "before startMs"},
		{"zero-duration caption ok", func(m *Manifest) { m.Captions[1].EndMs = m.Captions[1].StartMs }, ""},
		{"empty scenes ok", func(m *Manifest) { m.Scenes = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingNamesPrepareCommand(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "manifest.json"))
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
	if !strings.Contains(err.Error(), "shortsgen prepare") {
		t.Errorf("error should name the preparation command, got: %v", err)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := validManifest()
	ts := 250
	conf := 0.91
	m.Captions[0].TimestampMs = &ts
	m.Captions[0].Confidence = &conf

	if err := Write(m, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.CacheKey != m.CacheKey || loaded.DurationInFrames != m.DurationInFrames {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if len(loaded.Scenes) != 2 || len(loaded.Captions) != 2 {
		t.Fatalf("expected 2 scenes and 2 captions, got %d/%d", len(loaded.Scenes), len(loaded.Captions))
	}
	if loaded.Captions[0].TimestampMs == nil || *loaded.Captions[0].TimestampMs != 250 {
		t.Errorf("timestampMs not preserved")
	}
	if loaded.Captions[1].TimestampMs != nil {
		t.Errorf("absent timestampMs should stay nil")
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	idx, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex on missing file: %v", err)
	}
	if len(idx.CacheKeys) != 0 {
		t.Fatalf("expected empty index, got %v", idx.CacheKeys)
	}

	idx.CacheKeys = []string{"aaa", "bbb"}
	if err := WriteIndex(idx, path); err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}

	loaded, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if len(loaded.CacheKeys) != 2 || loaded.CacheKeys[0] != "aaa" {
		t.Errorf("index round trip mismatch: %v", loaded.CacheKeys)
	}
}
