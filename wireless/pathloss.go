package wireless

import (
	"log"
	"math"

	"github.com/wisim/rfidsim/stack"
)

// A PathLossModel computes the strength of a signal at a receiver.
type PathLossModel interface {
	// RecvdStrength returns the signal strength in watts at the receiver.
	RecvdStrength(sig *CommSignal, receiver *PhysicalLayer) float64
}

const defaultLossFactor = 1.0

// FreeSpace computes received strength with the Friis free-space model:
//
//	Pr = Pt * Gt * Gr * lambda^2 / ((4*pi)^2 * d^2 * L)
//
// with reference distance 1 m and loss factor L >= 1.
type FreeSpace struct {
	lossFactor float64
}

// NewFreeSpace creates a free-space model with the default loss factor.
func NewFreeSpace() *FreeSpace {
	return &FreeSpace{lossFactor: defaultLossFactor}
}

// NewFreeSpaceWithLossFactor creates a free-space model. Loss factors below
// one fall back to the default.
func NewFreeSpaceWithLossFactor(lossFactor float64) *FreeSpace {
	if lossFactor < 1.0 {
		lossFactor = defaultLossFactor
	}
	return &FreeSpace{lossFactor: lossFactor}
}

// RecvdStrength returns the signal strength in watts at the receiver.
// Sender and receiver must not be exactly collocated.
func (m *FreeSpace) RecvdStrength(
	sig *CommSignal,
	receiver *PhysicalLayer,
) float64 {
	numerator := DecibelsToPower(sig.DbStrength()) *
		sig.TransmitterGain() * receiver.Gain() *
		math.Pow(sig.Wavelength(), 2)
	distance := stack.Distance(sig.Location(), receiver.Location())
	denominator := math.Pow(4.0*math.Pi, 2) *
		math.Pow(distance, 2) * m.lossFactor

	if denominator <= 0 {
		log.Panic("path loss denominator must be positive; " +
			"sender and receiver cannot be collocated")
	}

	return numerator / denominator
}

const defaultAntennaHeight = 1.5

// TwoRay computes received strength with the two-ray ground reflection model
// beyond a crossover distance and free space within it:
//
//	Pr = Pt * Gt * Gr * h^4 / (d^4 * L)
type TwoRay struct {
	FreeSpace

	antennaHeight float64
}

// NewTwoRay creates a two-ray model with the default loss factor and
// antenna height.
func NewTwoRay() *TwoRay {
	m := &TwoRay{antennaHeight: defaultAntennaHeight}
	m.lossFactor = defaultLossFactor
	return m
}

// NewTwoRayWithLossFactor creates a two-ray model. Loss factors below one
// fall back to the default.
func NewTwoRayWithLossFactor(lossFactor float64) *TwoRay {
	m := NewTwoRay()
	if lossFactor >= 1.0 {
		m.lossFactor = lossFactor
	}
	return m
}

// RecvdStrength returns the signal strength in watts at the receiver.
func (m *TwoRay) RecvdStrength(
	sig *CommSignal,
	receiver *PhysicalLayer,
) float64 {
	crossoverDistance := (4 * math.Pi *
		m.antennaHeight * m.antennaHeight) / sig.Wavelength()
	distance := stack.Distance(sig.Location(), receiver.Location())

	if distance <= crossoverDistance {
		return m.FreeSpace.RecvdStrength(sig, receiver)
	}

	numerator := DecibelsToPower(sig.DbStrength()) *
		sig.TransmitterGain() * receiver.Gain() *
		math.Pow(m.antennaHeight, 4)
	denominator := math.Pow(distance, 4) * m.lossFactor

	if denominator <= 0 {
		log.Panic("path loss denominator must be positive")
	}

	return numerator / denominator
}
