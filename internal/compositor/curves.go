package compositor

import "math"

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Interpolate maps x from [x0,x1] to [y0,y1] linearly, clamping outside the
// input range. A degenerate input range yields y1.
func Interpolate(x, x0, x1, y0, y1 float64) float64 {
	if x1 <= x0 {
		return y1
	}
	t := (x - x0) / (x1 - x0)
	if t <= 0 {
		return y0
	}
	if t >= 1 {
		return y1
	}
	return Lerp(y0, y1, t)
}

// EaseInOutCubic applies smooth easing on [0,1].
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutBack overshoots above 1 early and settles back to 1 at t=1. Used for
// the caption "pop" entrance.
func EaseOutBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	u := t - 1
	return 1 + c3*u*u*u + c1*u*u
}

// Clamp01 restricts v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
