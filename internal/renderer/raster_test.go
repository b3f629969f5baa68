package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chenaaron3/shortsgen/internal/compositor"
	"github.com/chenaaron3/shortsgen/internal/manifest"
)

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 96))
	for y := 20; y < 60; y++ {
		for x := 10; x < 50; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func testRasterizer(t *testing.T) *rasterizer {
	t.Helper()
	assetRoot := t.TempDir()
	writeTestImage(t, filepath.Join(assetRoot, "images", "scene_0.png"))

	m := &manifest.Manifest{
		CacheKey:         "cafebabecafebabe",
		FPS:              30,
		Width:            120,
		Height:           200,
		DurationInFrames: 30,
		Scenes: []manifest.Scene{
			{Text: "hello world", ImagePath: "images/scene_0.png", VoicePath: "voice/scene_0.mp3", DurationInSeconds: 1.0},
		},
		Captions: []manifest.Caption{
			{Text: " hello", StartMs: 0, EndMs: 400},
			{Text: " wide", StartMs: 400, EndMs: 700},
			{Text: " world", StartMs: 700, EndMs: 1000},
		},
	}
	comp, err := compositor.New(m, compositor.Options{
		FadeFrames:         5,
		CombineThresholdMs: 800,
		Style:              compositor.StyleHighlight,
	})
	if err != nil {
		t.Fatalf("compositor.New: %v", err)
	}

	ras, err := newRasterizer(comp, m.Width, m.Height, assetRoot, 16, 40)
	if err != nil {
		t.Fatalf("newRasterizer: %v", err)
	}
	return ras
}

func TestNewFacesAreDistinct(t *testing.T) {
	ras := testRasterizer(t)

	f1, err := ras.newFaces()
	if err != nil {
		t.Fatalf("newFaces: %v", err)
	}
	f2, err := ras.newFaces()
	if err != nil {
		t.Fatalf("newFaces: %v", err)
	}
	if f1.base == f2.base || f1.accent == f2.accent {
		t.Error("face pairs must not share instances between workers")
	}
}

// The end card fade holds near zero early in the ramp and snaps to full
// opacity by the midpoint of the last half second, following the cubic curve
// rather than a straight line.
func TestDrawEndCardEasedFade(t *testing.T) {
	ras := testRasterizer(t)
	card := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range card.Pix {
		card.Pix[i] = 255
	}
	ras.endCard = card
	ras.endCardFrames = ras.comp.DurationInFrames() // fade starts at frame 0

	px := func(f int) uint8 {
		dst := image.NewRGBA(image.Rect(0, 0, ras.width, ras.height))
		ras.drawEndCard(dst, f)
		return dst.RGBAAt(ras.width-24-5, ras.height-24-5).R
	}

	// Ramp runs over FPS/2 = 15 frames. At frame 3 (t=0.2) the cubic eases
	// to 0.032, far below the 0.2 a linear fade would give.
	eased := uint8(compositor.EaseInOutCubic(0.2)*255 + 0.5)
	if got := px(3); got < eased-2 || got > eased+2 {
		t.Errorf("quarter-ramp opacity = %d, want eased %d", got, eased)
	}
	if got := px(3); got > 40 {
		t.Errorf("quarter-ramp opacity %d looks linear, not eased", got)
	}
	if got := px(15); got != 255 {
		t.Errorf("post-ramp opacity = %d, want fully opaque", got)
	}
}

// Frames with captions are drawn by every worker through worker-owned faces;
// run with -race to verify no glyph state is shared, and check that all
// workers produce identical pixels.
func TestDrawFrameConcurrent(t *testing.T) {
	ras := testRasterizer(t)
	const workers = 4
	total := ras.comp.DurationInFrames()

	outputs := make([][]byte, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		faces, err := ras.newFaces()
		if err != nil {
			t.Fatalf("newFaces: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			var all []byte
			buf := image.NewRGBA(image.Rect(0, 0, ras.width, ras.height))
			for f := 0; f < total; f++ {
				ras.drawFrame(buf, f, faces)
				all = append(all, buf.Pix...)
			}
			outputs[w] = all
		}()
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		if !bytes.Equal(outputs[0], outputs[w]) {
			t.Fatalf("worker %d produced different pixels than worker 0", w)
		}
	}
}
