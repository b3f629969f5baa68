package timeline

import (
	"math"
	"sort"

	"github.com/chenaaron3/shortsgen/internal/manifest"
)

// Interval is one scene's resolved placement on the global frame axis:
// [StartFrame, StartFrame+DurationInFrames). Intervals built from a scene
// sequence are contiguous, non-overlapping, and start at frame 0.
type Interval struct {
	Scene            manifest.Scene
	Index            int
	StartFrame       int
	DurationInFrames int
}

// EndFrame returns the exclusive end of the interval.
func (iv Interval) EndFrame() int {
	return iv.StartFrame + iv.DurationInFrames
}

// Contains reports whether frame f falls inside the interval.
func (iv Interval) Contains(f int) bool {
	return f >= iv.StartFrame && f < iv.EndFrame()
}

// SceneFrames converts a scene duration to frames, rounding up so frame
// quantization never truncates the voice clip. A scene always occupies at
// least one frame.
func SceneFrames(durationInSeconds float64, fps int) int {
	frames := int(math.Ceil(durationInSeconds * float64(fps)))
	if frames < 1 {
		frames = 1
	}
	return frames
}

// Build lays scenes end to end on the frame axis. It only computes; the
// caller is responsible for checking the total against a declared duration.
func Build(scenes []manifest.Scene, fps int) []Interval {
	intervals := make([]Interval, 0, len(scenes))
	cursor := 0
	for i, s := range scenes {
		frames := SceneFrames(s.DurationInSeconds, fps)
		intervals = append(intervals, Interval{
			Scene:            s,
			Index:            i,
			StartFrame:       cursor,
			DurationInFrames: frames,
		})
		cursor += frames
	}
	return intervals
}

// TotalFrames returns the combined length of the intervals.
func TotalFrames(intervals []Interval) int {
	if len(intervals) == 0 {
		return 0
	}
	return intervals[len(intervals)-1].EndFrame()
}

// Locate finds the interval containing frame f, or false when f is outside
// the timeline. A frame on a boundary belongs to the following interval.
func Locate(intervals []Interval, f int) (Interval, bool) {
	if len(intervals) == 0 || f < 0 || f >= TotalFrames(intervals) {
		return Interval{}, false
	}
	i := sort.Search(len(intervals), func(i int) bool {
		return intervals[i].EndFrame() > f
	})
	return intervals[i], true
}
