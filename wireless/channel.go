package wireless

import (
	"log"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// A Channel carries signals between radios attached to it, attenuated by a
// path-loss model and optionally a fading model.
type Channel struct {
	pathLossModel PathLossModel
	fadingModel   FadingModel
}

// NewChannel creates a channel with a path-loss model only.
func NewChannel(pathLossModel PathLossModel) *Channel {
	if pathLossModel == nil {
		log.Panic("channel requires a path loss model")
	}
	return &Channel{pathLossModel: pathLossModel}
}

// NewChannelWithFading creates a channel with path-loss and fading models.
func NewChannelWithFading(
	pathLossModel PathLossModel,
	fadingModel FadingModel,
) *Channel {
	if pathLossModel == nil {
		log.Panic("channel requires a path loss model")
	}
	if fadingModel == nil {
		log.Panic("channel requires a fading model")
	}
	return &Channel{
		pathLossModel: pathLossModel,
		fadingModel:   fadingModel,
	}
}

// RecvdStrength computes the strength of the signal at the receiver.
func (c *Channel) RecvdStrength(
	sig *CommSignal,
	receiver *PhysicalLayer,
) float64 {
	recvdStrength := c.pathLossModel.RecvdStrength(sig, receiver)

	if c.fadingModel != nil {
		recvdStrength *= c.fadingModel.FadingFactor(sig, receiver.NodeId())
	}

	return recvdStrength
}

// SignalHasError computes whether the signal is received in error at the
// given SINR. Reserved for future bit-error models; the baseline channel
// never flags errors.
func (c *Channel) SignalHasError(_ float64, _ *CommSignal) bool {
	return false
}

// PropagationDelay returns the travel time of a signal between two radios.
func (c *Channel) PropagationDelay(
	sender, receiver *PhysicalLayer,
) sim.VTimeInSec {
	distance := stack.Distance(sender.Location(), receiver.Location())
	return sim.VTimeInSec(distance / SpeedOfLight)
}
