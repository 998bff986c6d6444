package systems

import "math"

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// lerp interpolates between a and b by t.
func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// easeInQuad is the quadratic ease-in curve used for spring ramps.
func easeInQuad(t float32) float32 {
	return t * t
}

// distanceSq returns the squared distance between two points.
func distanceSq(x1, y1, x2, y2 float32) float32 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// distance returns the Euclidean distance between two points.
func distance(x1, y1, x2, y2 float32) float32 {
	return float32(math.Sqrt(float64(distanceSq(x1, y1, x2, y2))))
}

func sin32(x float64) float32 { return float32(math.Sin(x)) }
func cos32(x float64) float32 { return float32(math.Cos(x)) }
