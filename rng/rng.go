// Package rng provides the random draws used across the simulator. Every
// component that needs randomness owns a named stream so that draws stay
// decorrelated between components and reproducible across runs.
package rng

import (
	"log"

	"github.com/iti/rngstream"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Generator wraps one rngstream stream and exposes the distributions the
// simulator draws from.
type Generator struct {
	stream *rngstream.RngStream
	src    rand.Source
}

// New creates a generator with its own stream. The name identifies the
// owning component in traces.
func New(name string) *Generator {
	g := new(Generator)
	g.stream = rngstream.New(name)
	g.src = &streamSource{stream: g.stream}
	return g
}

// UniformInt returns an int uniformly at random from [min, max].
func (g *Generator) UniformInt(min, max int) int {
	if max < min {
		log.Panic("uniform int range is empty")
	}
	return g.stream.RandInt(min, max)
}

// UniformZeroOne returns a real number uniformly at random from [0, 1).
func (g *Generator) UniformZeroOne() float64 {
	return g.stream.RandU01()
}

// UniformReal returns a real number uniformly at random from [min, max).
func (g *Generator) UniformReal(min, max float64) float64 {
	if max < min {
		log.Panic("uniform real range is empty")
	}
	return min + (max-min)*g.stream.RandU01()
}

// Exponential returns a draw from an exponential distribution with the given
// rate.
func (g *Generator) Exponential(lambda float64) float64 {
	if lambda <= 0 {
		log.Panic("exponential rate must be positive")
	}

	dist := distuv.Exponential{Rate: lambda, Src: g.src}
	return dist.Rand()
}

// NormalDistribution returns a draw from a normal distribution with the
// given mean and standard deviation.
func (g *Generator) NormalDistribution(mean, sigma float64) float64 {
	if sigma <= 0 {
		log.Panic("normal sigma must be positive")
	}

	dist := distuv.Normal{Mu: mean, Sigma: sigma, Src: g.src}
	return dist.Rand()
}

// streamSource adapts an rngstream stream to the rand.Source interface that
// the gonum distributions consume.
type streamSource struct {
	stream *rngstream.RngStream
}

func (s *streamSource) Uint64() uint64 {
	hi := uint64(s.stream.RandInt(0, (1<<31)-1))
	lo := uint64(s.stream.RandInt(0, (1<<31)-1))
	mid := uint64(s.stream.RandInt(0, 3))
	return hi<<33 | lo<<2 | mid
}

// Seed is a no-op. Streams are positioned by the rngstream package when they
// are created.
func (s *streamSource) Seed(_ uint64) {
}
