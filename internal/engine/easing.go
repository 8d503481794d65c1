package engine

// Easing maps linear progress t in [0,1] onto eased progress.
type Easing func(t float64) float64

func EaseCubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	t2 := -2*t + 2
	return 1 - t2*t2*t2/2
}

// lerpTransform interpolates between two transforms at eased progress t.
func lerpTransform(a, b Transform, t float64) Transform {
	return Transform{
		K: a.K + (b.K-a.K)*t,
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}
