package analyzer

import (
	"image"
	"image/color"
	"testing"
)

func TestDetectFocusFindsContent(t *testing.T) {
	// Black canvas with a white square in the lower-right quadrant.
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 120; y < 180; y++ {
		for x := 120; x < 180; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	pt, ok := DetectFocus(img)
	if !ok {
		t.Fatal("expected a focal point, got none")
	}
	if pt.X < 100 || pt.Y < 100 {
		t.Errorf("focal point %v should sit in the lower-right quadrant", pt)
	}
	if pt.X > 200 || pt.Y > 200 {
		t.Errorf("focal point %v outside image bounds", pt)
	}
}

func TestDetectFocusFlatImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	if _, ok := DetectFocus(img); ok {
		t.Error("flat image should have no focal point")
	}
}

func TestDetectFocusEmptyImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 0, 0))
	if _, ok := DetectFocus(img); ok {
		t.Error("empty image should have no focal point")
	}
}

func TestDetectFocusLargeImageSampled(t *testing.T) {
	// Large enough to force downsampling; content near the top.
	img := image.NewGray(image.Rect(0, 0, 1024, 1536))
	for y := 100; y < 400; y++ {
		for x := 300; x < 700; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	pt, ok := DetectFocus(img)
	if !ok {
		t.Fatal("expected a focal point, got none")
	}
	if pt.Y > 768 {
		t.Errorf("focal point %v should sit in the top half", pt)
	}
}
