package stack

import "math"

// A Location is a 3-D Cartesian point in meters.
type Location struct {
	X, Y, Z float64
}

// NewLocation creates a location from coordinates in meters.
func NewLocation(x, y, z float64) Location {
	return Location{X: x, Y: y, Z: z}
}

// Distance returns the Euclidean distance in meters between two locations.
func Distance(a, b Location) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
