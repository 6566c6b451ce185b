package wireless

import (
	"log"
	"math"

	"github.com/wisim/rfidsim/rng"
	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// A FadingModel computes a multiplicative fading factor for a signal at a
// receiver.
type FadingModel interface {
	FadingFactor(sig *CommSignal, receiver stack.NodeId) float64
}

// A FadingTable holds pre-computed Gaussian component samples for the Ricean
// model, as published with the ns-2 extension of Punnoose et al. The table
// contents are pluggable; only the indexing scheme is fixed.
type FadingTable struct {
	MaxDopplerFrequency float64
	MaxSampleRate       float64
	InPhase             []float64
	Quadrature          []float64
}

// DefaultFadingTable returns a small deterministic table. Production
// scenarios should load the published table instead.
func DefaultFadingTable() FadingTable {
	return FadingTable{
		MaxDopplerFrequency: 200.0,
		MaxSampleRate:       1000.0,
		InPhase: []float64{
			0.294, -0.905, 1.312, -0.268, 0.097, 1.025, -1.506, 0.532,
			-0.713, 0.402, 0.871, -1.120, -0.084, 1.741, -0.438, 0.220,
		},
		Quadrature: []float64{
			-1.042, 0.618, 0.154, -0.591, 1.217, -0.382, 0.466, -1.333,
			0.905, -0.147, -0.822, 0.350, 1.098, -0.506, 0.674, -0.951,
		},
	}
}

const (
	defaultMaxVelocity = 6.0
	defaultRiceanK     = 4.0
)

// Ricean computes fading factors by sampling in-phase and quadrature
// Gaussian tables. The sample index advances with virtual time and the
// Doppler frequency; a per-receiver offset, chosen once on first use,
// decorrelates receivers.
type Ricean struct {
	timeTeller sim.TimeTeller
	random     *rng.Generator
	table      FadingTable

	maxVelocity float64
	kParameter  float64

	nodeOffset map[stack.NodeId]int
}

// NewRicean creates a Ricean fading model with default velocity and k.
func NewRicean(tt sim.TimeTeller, random *rng.Generator) *Ricean {
	return NewRiceanWithParams(tt, random,
		defaultMaxVelocity, defaultRiceanK)
}

// NewRiceanWithParams creates a Ricean fading model.
func NewRiceanWithParams(
	tt sim.TimeTeller,
	random *rng.Generator,
	maxVelocity float64,
	k float64,
) *Ricean {
	if tt == nil {
		log.Panic("ricean fading requires a time teller")
	}
	if random == nil {
		log.Panic("ricean fading requires a random generator")
	}
	if maxVelocity <= 0 {
		log.Panic("ricean max velocity must be positive")
	}
	if k < 0 {
		log.Panic("ricean k must not be negative")
	}

	return &Ricean{
		timeTeller:  tt,
		random:      random,
		table:       DefaultFadingTable(),
		maxVelocity: maxVelocity,
		kParameter:  k,
		nodeOffset:  make(map[stack.NodeId]int),
	}
}

// SetTable installs a table of Gaussian component samples.
func (m *Ricean) SetTable(table FadingTable) {
	if len(table.InPhase) == 0 ||
		len(table.InPhase) != len(table.Quadrature) {
		log.Panic("fading table components must be non-empty and equal length")
	}
	m.table = table
}

// FadingFactor returns the multiplicative factor for the signal at the
// receiver.
func (m *Ricean) FadingFactor(
	sig *CommSignal,
	receiver stack.NodeId,
) float64 {
	n := len(m.table.InPhase)

	offset, seen := m.nodeOffset[receiver]
	if !seen {
		offset = m.random.UniformInt(0, n-1)
		m.nodeOffset[receiver] = offset
	}

	doppler := m.maxVelocity / sig.Wavelength()
	now := float64(m.timeTeller.CurrentTime())
	idx := int(math.Floor(
		now*m.table.MaxSampleRate*doppler/m.table.MaxDopplerFrequency))
	idx = ((idx+offset)%n + n) % n

	x1 := m.table.InPhase[idx]
	x2 := m.table.Quadrature[idx]

	a := math.Sqrt(2 * m.kParameter)
	envelopeSquared := ((a+x1)*(a+x1) + x2*x2) / (2 * (m.kParameter + 1))

	return envelopeSquared
}

// Rayleigh is Ricean fading with k = 0.
type Rayleigh struct {
	Ricean
}

// NewRayleigh creates a Rayleigh fading model with the default velocity.
func NewRayleigh(tt sim.TimeTeller, random *rng.Generator) *Rayleigh {
	return NewRayleighWithVelocity(tt, random, defaultMaxVelocity)
}

// NewRayleighWithVelocity creates a Rayleigh fading model.
func NewRayleighWithVelocity(
	tt sim.TimeTeller,
	random *rng.Generator,
	maxVelocity float64,
) *Rayleigh {
	r := &Rayleigh{}
	r.Ricean = *NewRiceanWithParams(tt, random, maxVelocity, 0)
	return r
}
