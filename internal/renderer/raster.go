package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	_ "image/jpeg"
	_ "image/png"

	"github.com/chenaaron3/shortsgen/internal/analyzer"
	"github.com/chenaaron3/shortsgen/internal/compositor"
)

var (
	captionBase   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	captionAccent = color.NRGBA{R: 255, G: 214, B: 10, A: 255}
	background    = color.NRGBA{R: 10, G: 10, B: 14, A: 255}
)

// rasterizer turns compositor frame states into RGBA pixels. Scene images are
// decoded and cover-scaled once up front; only per-frame opacity, caption
// text, and overlays are drawn per frame. The rasterizer itself is read-only
// after construction; glyph state lives in per-worker textFaces.
type rasterizer struct {
	width  int
	height int
	comp   *compositor.Compositor

	sceneImages  []*image.RGBA
	font         *opentype.Font
	fontSize     int
	lineHeight   int
	marginBottom int

	endCard       *image.RGBA // QR overlay, nil when disabled
	endCardFrames int
}

// textFaces is one worker's glyph state. An opentype Face caches
// rasterization buffers internally and must not be shared across goroutines.
type textFaces struct {
	base   font.Face
	accent font.Face
}

func newRasterizer(comp *compositor.Compositor, width, height int, assetRoot string, fontSize, marginBottom int) (*rasterizer, error) {
	ft, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse caption font: %w", err)
	}

	r := &rasterizer{
		width:        width,
		height:       height,
		comp:         comp,
		font:         ft,
		fontSize:     fontSize,
		lineHeight:   fontSize * 13 / 10,
		marginBottom: marginBottom,
	}

	for i, iv := range comp.Intervals() {
		img, err := loadCoverScaled(filepath.Join(assetRoot, iv.Scene.ImagePath), width, height)
		if err != nil {
			return nil, fmt.Errorf("scene %d image: %w", i+1, err)
		}
		r.sceneImages = append(r.sceneImages, img)
	}

	return r, nil
}

// newFaces builds a fresh face pair for one worker.
func (r *rasterizer) newFaces() (*textFaces, error) {
	base, err := opentype.NewFace(r.font, &opentype.FaceOptions{Size: float64(r.fontSize), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("caption face: %w", err)
	}
	// The active-token bump from the compositor tops out around 8%.
	accent, err := opentype.NewFace(r.font, &opentype.FaceOptions{Size: float64(r.fontSize) * 1.08, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("accent face: %w", err)
	}
	return &textFaces{base: base, accent: accent}, nil
}

// loadCoverScaled decodes an image and scales it to fill width x height,
// cropping the overflow (object-fit: cover). The crop window is centered on
// the image's detected focal point so generated illustrations keep their
// subject in frame; flat images fall back to a center crop.
func loadCoverScaled(path string, width, height int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()
	dstRatio := float64(width) / float64(height)
	srcRatio := float64(srcW) / float64(srcH)

	focus := image.Point{X: sb.Min.X + srcW/2, Y: sb.Min.Y + srcH/2}
	if pt, ok := analyzer.DetectFocus(src); ok {
		focus = pt
	}

	crop := sb
	if srcRatio > dstRatio {
		// Source too wide: crop left/right around the focal point.
		w := int(float64(srcH) * dstRatio)
		x0 := clampInt(focus.X-w/2, sb.Min.X, sb.Max.X-w)
		crop = image.Rect(x0, sb.Min.Y, x0+w, sb.Max.Y)
	} else if srcRatio < dstRatio {
		// Source too tall: crop top/bottom around the focal point.
		h := int(float64(srcW) / dstRatio)
		y0 := clampInt(focus.Y-h/2, sb.Min.Y, sb.Max.Y-h)
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawFrame renders frame f into dst, which must be width x height. tf is
// the calling worker's own glyph state.
func (r *rasterizer) drawFrame(dst *image.RGBA, f int, tf *textFaces) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	state := r.comp.FrameAt(f)
	if state.Placeholder {
		r.drawPlaceholder(dst, tf)
		return
	}

	if state.Scene != nil {
		img := r.sceneImages[state.Scene.SceneIndex]
		alpha := image.NewUniform(color.Alpha{A: uint8(state.Scene.Opacity*255 + 0.5)})
		draw.DrawMask(dst, dst.Bounds(), img, image.Point{}, alpha, image.Point{}, draw.Over)
	}

	if state.Caption != nil {
		r.drawCaption(dst, state.Caption, tf)
	}

	if r.endCard != nil {
		r.drawEndCard(dst, f)
	}
}

func (r *rasterizer) drawPlaceholder(dst *image.RGBA, tf *textFaces) {
	const msg = "No content prepared"
	d := font.Drawer{Dst: dst, Src: image.NewUniform(captionBase), Face: tf.base}
	w := d.MeasureString(msg)
	d.Dot = fixed.P((r.width-w.Ceil())/2, r.height/2)
	d.DrawString(msg)
}

// drawCaption lays the page's tokens out in centered lines above the bottom
// margin and paints them with the state's opacity and per-token accents. The
// page-level pop scale is applied by rendering through an offscreen layer.
func (r *rasterizer) drawCaption(dst *image.RGBA, cs *compositor.CaptionState, tf *textFaces) {
	if cs.Opacity <= 0 {
		return
	}

	layer := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	r.drawTokens(layer, cs, tf)

	alpha := image.NewUniform(color.Alpha{A: uint8(cs.Opacity*255 + 0.5)})

	if cs.Scale > 0.999 && cs.Scale < 1.001 {
		draw.DrawMask(dst, dst.Bounds(), layer, image.Point{}, alpha, image.Point{}, draw.Over)
		return
	}

	// Scale the layer around the frame center.
	sw := int(float64(r.width) * cs.Scale)
	sh := int(float64(r.height) * cs.Scale)
	x0 := (r.width - sw) / 2
	y0 := (r.height - sh) / 2
	scaled := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	xdraw.ApproxBiLinear.Scale(scaled, image.Rect(x0, y0, x0+sw, y0+sh), layer, layer.Bounds(), draw.Over, nil)
	draw.DrawMask(dst, dst.Bounds(), scaled, image.Point{}, alpha, image.Point{}, draw.Over)
}

type tokenRun struct {
	text   string
	active bool
}

func (r *rasterizer) drawTokens(dst *image.RGBA, cs *compositor.CaptionState, tf *textFaces) {
	runs := make([]tokenRun, len(cs.Tokens))
	for i, t := range cs.Tokens {
		runs[i] = tokenRun{text: trimToken(t.Token.Text), active: t.Active}
	}

	// Greedy wrap to 85% of the frame width.
	maxWidth := r.width * 85 / 100
	var lines [][]tokenRun
	var line []tokenRun
	lineW := 0
	spaceW := font.MeasureString(tf.base, " ").Ceil()
	for _, run := range runs {
		w := font.MeasureString(tf.faceFor(run), run.text).Ceil()
		if len(line) > 0 && lineW+spaceW+w > maxWidth {
			lines = append(lines, line)
			line = nil
			lineW = 0
		}
		if len(line) > 0 {
			lineW += spaceW
		}
		line = append(line, run)
		lineW += w
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}

	baseline := r.height - r.marginBottom - (len(lines)-1)*r.lineHeight
	for _, line := range lines {
		total := 0
		for i, run := range line {
			if i > 0 {
				total += spaceW
			}
			total += font.MeasureString(tf.faceFor(run), run.text).Ceil()
		}

		x := (r.width - total) / 2
		for i, run := range line {
			if i > 0 {
				x += spaceW
			}
			col := captionBase
			if run.active {
				col = captionAccent
			}
			d := font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: tf.faceFor(run)}
			d.Dot = fixed.P(x, baseline)
			d.DrawString(run.text)
			x += font.MeasureString(tf.faceFor(run), run.text).Ceil()
		}
		baseline += r.lineHeight
	}
}

func (tf *textFaces) faceFor(run tokenRun) font.Face {
	if run.active {
		return tf.accent
	}
	return tf.base
}

// trimToken strips the leading space whisper puts on each word.
func trimToken(s string) string {
	if len(s) > 0 && s[0] == ' ' {
		return s[1:]
	}
	return s
}

// drawEndCard fades the QR overlay in over the last endCardFrames frames,
// bottom-right with a small margin.
func (r *rasterizer) drawEndCard(dst *image.RGBA, f int) {
	total := r.comp.DurationInFrames()
	start := total - r.endCardFrames
	if f < start {
		return
	}

	const margin = 24
	t := compositor.Interpolate(float64(f), float64(start), float64(start+r.comp.FPS()/2), 0, 1)
	op := compositor.EaseInOutCubic(t)
	alpha := image.NewUniform(color.Alpha{A: uint8(op*255 + 0.5)})

	qb := r.endCard.Bounds()
	x0 := r.width - qb.Dx() - margin
	y0 := r.height - qb.Dy() - margin
	draw.DrawMask(dst, image.Rect(x0, y0, x0+qb.Dx(), y0+qb.Dy()), r.endCard, qb.Min, alpha, image.Point{}, draw.Over)
}
