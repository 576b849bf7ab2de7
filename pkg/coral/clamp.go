package coral

import "math"

// ClampSpeed rounds v to the nearest integer and limits it to ±100. Speeds,
// duty cycles and steering all share this range.
func ClampSpeed(v float64) int {
	return int(math.Max(-100, math.Min(100, math.Round(v))))
}

// ClampAcceleration rounds v and limits it to 0..255.
func ClampAcceleration(v float64) int {
	return int(math.Max(0, math.Min(255, math.Round(v))))
}
