// Package analyzer finds where the content of an illustration sits, so the
// cover crop can keep it in frame instead of blindly cutting around the
// center.
package analyzer

import (
	"image"
	"image/color"
	"math"
)

// Options tunes edge detection. Zero values fall back to the defaults used
// by DetectFocus.
type Options struct {
	EdgeThreshold float64 // Sobel gradient magnitude cutoff
	MaxDim        int     // analysis resolution; larger images are sampled down
}

const (
	defaultEdgeThreshold = 30.0
	defaultMaxDim        = 256
)

// DetectFocus returns the centroid of the image's high-detail area in the
// source image's coordinates. ok is false when the image has no detectable
// edges (a flat fill), in which case callers should fall back to the center.
func DetectFocus(img image.Image) (image.Point, bool) {
	return Options{}.Detect(img)
}

func (o Options) Detect(img image.Image) (image.Point, bool) {
	threshold := o.EdgeThreshold
	if threshold <= 0 {
		threshold = defaultEdgeThreshold
	}
	maxDim := o.MaxDim
	if maxDim <= 0 {
		maxDim = defaultMaxDim
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return image.Point{}, false
	}

	// Sample down before convolving; focal placement does not need
	// pixel-perfect edges.
	step := 1
	if d := max(bounds.Dx(), bounds.Dy()); d > maxDim {
		step = (d + maxDim - 1) / maxDim
	}
	gray := sampleGray(img, step)

	var sumX, sumY, weight float64
	gb := gray.Bounds()
	for y := gb.Min.Y + 1; y < gb.Max.Y-1; y++ {
		for x := gb.Min.X + 1; x < gb.Max.X-1; x++ {
			if m := sobelAt(gray, x, y); m > threshold {
				sumX += float64(x) * m
				sumY += float64(y) * m
				weight += m
			}
		}
	}
	if weight == 0 {
		return image.Point{}, false
	}

	return image.Point{
		X: bounds.Min.X + int(sumX/weight)*step + step/2,
		Y: bounds.Min.Y + int(sumY/weight)*step + step/2,
	}, true
}

func sampleGray(img image.Image, step int) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx()/step, bounds.Dy()/step))
	gb := gray.Bounds()
	for y := gb.Min.Y; y < gb.Max.Y; y++ {
		for x := gb.Min.X; x < gb.Max.X; x++ {
			c := img.At(bounds.Min.X+x*step, bounds.Min.Y+y*step)
			gray.Set(x, y, color.GrayModel.Convert(c))
		}
	}
	return gray
}

// sobelAt computes the gradient magnitude at one pixel. Callers keep a
// one-pixel border so the 3x3 window never leaves the image.
func sobelAt(gray *image.Gray, x, y int) float64 {
	kx := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	ky := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	var gx, gy float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := float64(gray.GrayAt(x+dx, y+dy).Y)
			gx += p * kx[dy+1][dx+1]
			gy += p * ky[dy+1][dx+1]
		}
	}
	return math.Sqrt(gx*gx + gy*gy)
}
