package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
)

func TestBreakdownSourceUsesCache(t *testing.T) {
	layout := cache.Layout{CacheDir: t.TempDir(), PublicDir: t.TempDir()}
	cached := &Breakdown{Nuggets: []Nugget{
		{ID: "first-idea", Title: "First idea", Summary: "the first idea", CacheKey: cache.Key("the first idea")},
		{ID: "second-idea", Title: "Second idea", Summary: "the second idea", CacheKey: cache.Key("the second idea")},
	}}
	path := layout.BreakdownPath("srckey1234567890", "breakdown.json")
	if err := cache.EnsureDir(filepath.Dir(path)); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(cached)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	// The client has no usable endpoint; a cache hit must not call it.
	client := NewOpenAIClient("", slog.Default())
	client.baseURL = "http://127.0.0.1:0"
	client.maxRetries = 0

	bd, err := BreakdownSource(context.Background(), client, config.Default(), layout, "srckey1234567890", "ignored", 0)
	if err != nil {
		t.Fatalf("BreakdownSource: %v", err)
	}
	if len(bd.Nuggets) != 2 || bd.Nuggets[0].ID != "first-idea" {
		t.Errorf("cached breakdown not returned: %+v", bd)
	}

	bd, err = BreakdownSource(context.Background(), client, config.Default(), layout, "srckey1234567890", "ignored", 1)
	if err != nil {
		t.Fatalf("BreakdownSource capped: %v", err)
	}
	if len(bd.Nuggets) != 1 {
		t.Errorf("maxNuggets=1 kept %d nuggets", len(bd.Nuggets))
	}
}

func TestBreakdownSourceAssignsCacheKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"nuggets":[{"id":"one","title":"One","summary":"the lone idea"}]}`
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewOpenAIClient("test", slog.Default())
	client.baseURL = srv.URL

	layout := cache.Layout{CacheDir: t.TempDir(), PublicDir: t.TempDir()}
	bd, err := BreakdownSource(context.Background(), client, config.Default(), layout, "src", "long source text", 0)
	if err != nil {
		t.Fatalf("BreakdownSource: %v", err)
	}
	if len(bd.Nuggets) != 1 {
		t.Fatalf("got %d nuggets", len(bd.Nuggets))
	}
	if want := cache.Key("the lone idea"); bd.Nuggets[0].CacheKey != want {
		t.Errorf("CacheKey = %q, want hash of the summary %q", bd.Nuggets[0].CacheKey, want)
	}
	if !cache.Exists(layout.BreakdownPath("src", "breakdown.json")) {
		t.Error("breakdown.json not cached")
	}
}

func TestWriteVideoIndex(t *testing.T) {
	layout := cache.Layout{CacheDir: t.TempDir(), PublicDir: t.TempDir()}
	bd := &Breakdown{Nuggets: []Nugget{
		{ID: "done", Title: "Done idea", Summary: "s1", CacheKey: "aaaa"},
		{ID: "pending", Title: "Pending idea", Summary: "s2", CacheKey: "bbbb"},
	}}
	if err := cache.EnsureDir(layout.Path("aaaa")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(layout.Path("aaaa", "video.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := writeVideoIndex(layout, "src", "book.md", bd); err != nil {
		t.Fatalf("writeVideoIndex: %v", err)
	}
	data, err := os.ReadFile(layout.BreakdownPath("src", "videos.md"))
	if err != nil {
		t.Fatal(err)
	}
	md := string(data)
	if !strings.Contains(md, "[Done idea](../../aaaa/video.mp4)") {
		t.Errorf("rendered video not linked:\n%s", md)
	}
	if !strings.Contains(md, "[Pending idea](../../bbbb/video.mp4) *(missing)*") {
		t.Errorf("unrendered video not flagged:\n%s", md)
	}
}
