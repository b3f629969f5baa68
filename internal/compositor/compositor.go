package compositor

import (
	"fmt"

	"github.com/chenaaron3/shortsgen/internal/captions"
	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/timeline"
)

// Style selects the caption animation skin. Both styles share the same
// page/token model; they differ only in how a frame's caption state is
// animated.
type Style int

const (
	// StylePop animates the whole page with an overshoot-and-settle scale.
	StylePop Style = iota
	// StyleHighlight renders static pages and accents the active token.
	StyleHighlight
)

// ParseStyle maps a config string to a Style.
func ParseStyle(s string) (Style, error) {
	switch s {
	case "pop":
		return StylePop, nil
	case "highlight", "":
		return StyleHighlight, nil
	default:
		return 0, fmt.Errorf("unknown caption style %q", s)
	}
}

// Options configures a Compositor.
type Options struct {
	FadeFrames         int // scene image fade ramp length
	CombineThresholdMs int // caption page grouping threshold
	Style              Style
	BedGain            float64 // background music hold gain, 0 disables the bed
	BedFadeSec         float64 // background music fade in/out length
}

// SceneState is the visual/audio contribution of the active scene at a frame.
type SceneState struct {
	SceneIndex int
	ImagePath  string
	VoicePath  string
	LocalFrame int
	Opacity    float64
}

// TokenState is the per-token highlight state within the active page.
type TokenState struct {
	Token  manifest.Caption
	Active bool
	Scale  float64
}

// CaptionState is the active caption page with its animation values.
type CaptionState struct {
	Page     captions.Page
	Progress float64 // normalized position within the page, [0,1)
	Opacity  float64
	Scale    float64
	Tokens   []TokenState
}

// AudioState carries the global audio bed parameters for a frame.
type AudioState struct {
	BedGain float64
}

// FrameState is the complete output for one frame. It is a pure function of
// the frame index and the compositor's immutable inputs.
type FrameState struct {
	Frame       int
	Placeholder bool
	Scene       *SceneState
	Caption     *CaptionState
	Audio       AudioState
}

// Compositor derives per-frame visual and audio state from a manifest. It
// holds no mutable state: frames may be computed in any order, in parallel,
// and recomputation yields identical results.
type Compositor struct {
	m         *manifest.Manifest
	opts      Options
	intervals []timeline.Interval
	pages     []captions.Page
}

// New precomputes the scene timeline and caption pages, and verifies the
// manifest's declared frame count against the computed timeline. An empty
// scene list is a valid "no content" state.
func New(m *manifest.Manifest, opts Options) (*Compositor, error) {
	if opts.FadeFrames < 0 {
		return nil, fmt.Errorf("fade frames must not be negative, got %d", opts.FadeFrames)
	}

	intervals := timeline.Build(m.Scenes, m.FPS)
	if len(intervals) > 0 {
		if total := timeline.TotalFrames(intervals); total != m.DurationInFrames {
			return nil, fmt.Errorf("manifest declares %d frames but scenes span %d", m.DurationInFrames, total)
		}
	}

	return &Compositor{
		m:         m,
		opts:      opts,
		intervals: intervals,
		pages:     captions.Paginate(m.Captions, opts.CombineThresholdMs),
	}, nil
}

// DurationInFrames returns the composition length.
func (c *Compositor) DurationInFrames() int { return c.m.DurationInFrames }

// FPS returns the composition frame rate.
func (c *Compositor) FPS() int { return c.m.FPS }

// Intervals exposes the scene timeline, in playback order.
func (c *Compositor) Intervals() []timeline.Interval { return c.intervals }

// Pages exposes the caption pages, in display order.
func (c *Compositor) Pages() []captions.Page { return c.pages }

// Empty reports whether the manifest has no scenes.
func (c *Compositor) Empty() bool { return len(c.intervals) == 0 }

// FrameAt computes the full state for frame f. Frames outside
// [0, DurationInFrames) are a caller contract violation; an empty scene list
// yields a placeholder state for every frame.
func (c *Compositor) FrameAt(f int) FrameState {
	state := FrameState{Frame: f}

	if c.Empty() {
		state.Placeholder = true
		return state
	}

	state.Audio = AudioState{BedGain: c.bedGain(f)}

	if iv, ok := timeline.Locate(c.intervals, f); ok {
		lf := f - iv.StartFrame
		state.Scene = &SceneState{
			SceneIndex: iv.Index,
			ImagePath:  iv.Scene.ImagePath,
			VoicePath:  iv.Scene.VoicePath,
			LocalFrame: lf,
			Opacity:    sceneOpacity(lf, iv.DurationInFrames, c.opts.FadeFrames),
		}
	}

	timeMs := float64(f) / float64(c.m.FPS) * 1000
	if page := captions.PageAt(c.pages, timeMs); page != nil {
		state.Caption = c.captionState(*page, timeMs)
	}

	return state
}

// sceneOpacity follows a symmetric trapezoid: a linear ramp up over the first
// fade frames and a ramp down over the last. When the interval is shorter
// than two ramps, the fade-out start is clamped to max(fade, length-fade) so
// the ramps meet without overshooting.
func sceneOpacity(localFrame, length, fade int) float64 {
	if fade == 0 {
		return 1
	}
	fadeOutStart := length - fade
	if fadeOutStart < fade {
		fadeOutStart = fade
	}
	in := Interpolate(float64(localFrame), 0, float64(fade), 0, 1)
	out := 1.0
	if fadeOutStart < length {
		out = Interpolate(float64(localFrame), float64(fadeOutStart), float64(length), 1, 0)
	}
	if out < in {
		return out
	}
	return in
}

// captionState animates the active page according to the selected style.
func (c *Compositor) captionState(page captions.Page, timeMs float64) *CaptionState {
	progress := Clamp01((timeMs - float64(page.StartMs)) / float64(page.DurationMs))

	cs := &CaptionState{
		Page:     page,
		Progress: progress,
		Scale:    1,
	}

	// Ramp in over the first 10% of the page, out over the last 10%.
	in := Interpolate(progress, 0, 0.1, 0, 1)
	out := Interpolate(progress, 0.9, 1, 1, 0)
	if out < in {
		cs.Opacity = out
	} else {
		cs.Opacity = in
	}

	if c.opts.Style == StylePop {
		// Overshoot above 1 early, settle back by 15% of the page.
		cs.Scale = 0.9 + 0.1*EaseOutBack(Clamp01(progress/0.15))
	}

	cs.Tokens = make([]TokenState, len(page.Tokens))
	for i, tok := range page.Tokens {
		ts := TokenState{Token: tok, Scale: 1}
		ts.Active = timeMs >= float64(tok.StartMs) && timeMs < float64(tok.EndMs)
		if ts.Active && c.opts.Style == StyleHighlight && tok.EndMs > tok.StartMs {
			tp := (timeMs - float64(tok.StartMs)) / float64(tok.EndMs-tok.StartMs)
			ts.Scale = 1 + 0.08*EaseOutBack(Clamp01(tp/0.5))
		}
		cs.Tokens[i] = ts
	}

	return cs
}

// bedGain is the background music gain at frame f: a linear fade in from
// silence, a constant low hold, and a linear fade out, independent of scene
// and caption state.
func (c *Compositor) bedGain(f int) float64 {
	if c.opts.BedGain <= 0 {
		return 0
	}
	fade := c.opts.BedFadeSec * float64(c.m.FPS)
	if fade <= 0 {
		// No ramps; the bed holds its gain for the whole composition.
		return c.opts.BedGain
	}
	total := float64(c.m.DurationInFrames)
	in := Interpolate(float64(f), 0, fade, 0, 1)
	out := Interpolate(float64(f), total-fade, total, 1, 0)
	if out < in {
		return out * c.opts.BedGain
	}
	return in * c.opts.BedGain
}
