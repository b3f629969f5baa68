package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunksRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")
	chunks := &Chunks{
		Title:       "Test video",
		Description: "About things",
		Scenes: []Scene{
			{Text: "hello there", Imagery: "a wave", Section: "Hook"},
			{Text: "the middle", Imagery: "a bridge", Section: "Body"},
		},
	}
	if err := WriteChunks(path, chunks); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
	got, err := LoadChunks(path)
	if err != nil {
		t.Fatalf("LoadChunks: %v", err)
	}
	if got.Title != chunks.Title || len(got.Scenes) != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Scenes[1].Section != "Body" || got.Scenes[1].Imagery != "a bridge" {
		t.Errorf("scene fields lost: %+v", got.Scenes[1])
	}
}

func TestAssetPaths(t *testing.T) {
	layout := cache.Layout{CacheDir: "cache", PublicDir: "public"}
	if got, want := imagePath(layout, "k1", 2), filepath.Join("cache", "k1", "images", "scene_2.png"); got != want {
		t.Errorf("imagePath = %q, want %q", got, want)
	}
	if got, want := voicePath(layout, "k1", 0), filepath.Join("cache", "k1", "voice", "scene_0.mp3"); got != want {
		t.Errorf("voicePath = %q, want %q", got, want)
	}
}

func TestCapScenes(t *testing.T) {
	chunks := &Chunks{Scenes: []Scene{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	if got := capScenes(chunks, 2); len(got.Scenes) != 2 {
		t.Errorf("capScenes(2) kept %d scenes", len(got.Scenes))
	}
	if got := capScenes(chunks, 0); len(got.Scenes) != 3 {
		t.Errorf("capScenes(0) kept %d scenes, want all", len(got.Scenes))
	}
	if len(chunks.Scenes) != 3 {
		t.Errorf("capScenes mutated its input")
	}
}

func TestTranscribeScenesFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Captions.UseWhisper = false
	layout := cache.Layout{CacheDir: t.TempDir(), PublicDir: t.TempDir()}

	chunks := &Chunks{Scenes: []Scene{
		{Text: "first scene words"},
		{Text: "second scene words"},
	}}
	clips := []string{"v0.mp3", "v1.mp3"}
	captions, err := TranscribeScenes(context.Background(), cfg, layout, "k", chunks, clips, []float64{2.0, 1.5})
	if err != nil {
		t.Fatalf("TranscribeScenes: %v", err)
	}
	if len(captions) != 2 {
		t.Fatalf("got %d captions, want one per scene", len(captions))
	}
	if captions[0].StartMs != 0 || captions[0].EndMs != 2000 {
		t.Errorf("scene 0 caption spans [%d,%d), want [0,2000)", captions[0].StartMs, captions[0].EndMs)
	}
	if captions[1].StartMs != 2000 || captions[1].EndMs != 3500 {
		t.Errorf("scene 1 caption spans [%d,%d), want [2000,3500)", captions[1].StartMs, captions[1].EndMs)
	}
	if captions[0].TimestampMs != nil {
		t.Errorf("scene-level caption should not carry a word timestamp")
	}
	if captions[1].Text != "second scene words" {
		t.Errorf("scene 1 caption text = %q", captions[1].Text)
	}
}
