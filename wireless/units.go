// Package wireless models the shared medium: signals, path loss, fading,
// channels, the physical layer, and the channel manager that routes signals
// from senders to listeners.
package wireless

import (
	"log"
	"math"
)

// SpeedOfLight in meters per second.
const SpeedOfLight = 299792458.0

// PowerToDecibels converts a power value in watts to decibels. The
// denominator of the ratio is 1.0.
func PowerToDecibels(powerValue float64) float64 {
	if powerValue == 0 {
		log.Panic("cannot convert zero power to decibels")
	}
	return 10.0 * math.Log10(powerValue/1.0)
}

// DecibelsToPower converts a decibel value back to a power value in watts.
func DecibelsToPower(decibelValue float64) float64 {
	return 1.0 * math.Pow(10, decibelValue/10.0)
}
