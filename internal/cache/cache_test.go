package cache

import (
	"path/filepath"
	"testing"
)

func TestKey(t *testing.T) {
	k1 := Key("some source text")
	k2 := Key("some source text")
	k3 := Key("different text")

	if len(k1) != 16 {
		t.Errorf("key length = %d, want 16", len(k1))
	}
	if k1 != k2 {
		t.Errorf("same content produced different keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Errorf("different content produced the same key: %s", k1)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{CacheDir: "cache", PublicDir: "public"}

	if got, want := l.Path("abc", "script.md"), filepath.Join("cache", "abc", "script.md"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
	if got, want := l.PublicPath("abc", "images", "scene_0.png"), filepath.Join("public", "shortgen", "abc", "images", "scene_0.png"); got != want {
		t.Errorf("PublicPath = %q, want %q", got, want)
	}
	if got, want := l.ManifestPath("abc"), filepath.Join("public", "shortgen", "abc", "manifest.json"); got != want {
		t.Errorf("ManifestPath = %q, want %q", got, want)
	}
	if got, want := l.IndexPath(), filepath.Join("public", "shortgen", "index.json"); got != want {
		t.Errorf("IndexPath = %q, want %q", got, want)
	}
}
