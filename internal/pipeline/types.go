package pipeline

import (
	"fmt"

	"github.com/chenaaron3/shortsgen/internal/cache"
)

// Chunks is the chunker's structured output: the script split into scenes
// plus upload metadata, cached as chunks.json. Generated asset locations are
// not stored here; they are derived from the cache layout and scene index.
type Chunks struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Scenes      []Scene `json:"scenes"`
}

// Scene is one beat of the chunked script.
type Scene struct {
	Text    string `json:"text"`
	Imagery string `json:"imagery"`
	Section string `json:"section"` // Hook | Body | Close
}

// imagePath and voicePath name the generated asset for scene i. The fixed
// scheme keeps stages decoupled: generators write here, prepare reads here.
func imagePath(layout cache.Layout, key string, i int) string {
	return layout.Path(key, "images", fmt.Sprintf("scene_%d.png", i))
}

func voicePath(layout cache.Layout, key string, i int) string {
	return layout.Path(key, "voice", fmt.Sprintf("scene_%d.mp3", i))
}
