package wireless

import (
	"log"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// A Signal is an emission from a location with a strength in decibels.
type Signal struct {
	location   stack.Location
	dbStrength float64
}

// Location returns the location of the signal source.
func (s *Signal) Location() stack.Location {
	return s.location
}

// DbStrength returns the strength of the signal in decibels.
func (s *Signal) DbStrength() float64 {
	return s.dbStrength
}

// A CommSignal is a radio signal carrying a packet over a channel. Once
// emitted it is shared by every listener's interference set and must not be
// mutated.
type CommSignal struct {
	Signal

	pkt             *stack.Packet
	wavelength      float64
	transmitterGain float64
	channelId       int
}

// NewCommSignal creates a signal for a packet.
func NewCommSignal(
	location stack.Location,
	dbStrength float64,
	wavelength float64,
	transmitterGain float64,
	pkt *stack.Packet,
) *CommSignal {
	if wavelength <= 0 {
		log.Panic("signal wavelength must be positive")
	}
	if transmitterGain <= 0 {
		log.Panic("signal transmitter gain must be positive")
	}
	if pkt == nil {
		log.Panic("signal requires a packet")
	}

	return &CommSignal{
		Signal:          Signal{location: location, dbStrength: dbStrength},
		pkt:             pkt,
		wavelength:      wavelength,
		transmitterGain: transmitterGain,
	}
}

// Clone returns a deep copy of the signal. The carried packet is deep-copied
// so that each listener receives a distinct packet at delivery.
func (s *CommSignal) Clone() *CommSignal {
	c := *s
	c.pkt = s.pkt.Clone()
	return &c
}

// Packet returns the packet encapsulated in this signal.
func (s *CommSignal) Packet() *stack.Packet {
	return s.pkt
}

// Wavelength returns the wavelength of the signal in meters.
func (s *CommSignal) Wavelength() float64 {
	return s.wavelength
}

// TransmitterGain returns the antenna gain of the signal's transmitter.
func (s *CommSignal) TransmitterGain() float64 {
	return s.transmitterGain
}

// Duration returns the airtime of the signal.
func (s *CommSignal) Duration() sim.VTimeInSec {
	return s.pkt.Duration()
}

// SetChannelId records the channel on which the signal travels.
func (s *CommSignal) SetChannelId(channelId int) {
	s.channelId = channelId
}

// ChannelId returns the channel on which the signal was received.
func (s *CommSignal) ChannelId() int {
	return s.channelId
}
