package stack

import (
	"log"
)

// A MacProtocol arbitrates access to the medium for a link layer. The link
// layer owns its MAC; the MAC keeps a non-owning back-reference to the link
// layer to query carrier sense and to send frames downward.
type MacProtocol interface {
	// SetLinkLayer installs the back-reference. Called once when the link
	// layer is constructed.
	SetLinkLayer(linkLayer *LinkLayer)

	// RecvFromLinkLayer handles a packet that the link layer received
	// from one of its neighbors.
	RecvFromLinkLayer(direction Direction, pkt *Packet, sendingLayerIdx int) bool
}

// A carrierSenser is a lower layer that can report whether the medium is
// busy. The physical layer implements it.
type carrierSenser interface {
	ChannelCarrierSensedBusy() bool
}

const linkLayerQueueLength = 1

// The LinkLayer sits between the MAC and the physical layer. Its downward
// queue holds at most one packet; the MAC enforces one outstanding frame.
type LinkLayer struct {
	*LayerBase

	mac MacProtocol
}

// NewLinkLayer creates a link layer that delegates medium access to the
// given MAC.
func NewLinkLayer(node *Node, mac MacProtocol) *LinkLayer {
	if mac == nil {
		log.Panic("link layer requires a MAC")
	}

	l := new(LinkLayer)
	l.LayerBase = NewLayerBase(l, node)
	l.SetMaxQueueLength(linkLayerQueueLength)
	l.mac = mac
	mac.SetLinkLayer(l)
	return l
}

// LayerType returns LayerLink.
func (l *LinkLayer) LayerType() LayerType {
	return LayerLink
}

// RecvFromLayer routes all neighbor traffic through the MAC.
func (l *LinkLayer) RecvFromLayer(
	direction Direction,
	pkt *Packet,
	sendingLayerIdx int,
) bool {
	return l.mac.RecvFromLinkLayer(direction, pkt, sendingLayerIdx)
}

// RecvFromMacProtocol accepts a packet handed back by the MAC and forwards
// it to the default neighbor in the direction.
func (l *LinkLayer) RecvFromMacProtocol(
	direction Direction,
	pkt *Packet,
) bool {
	return l.SendToLayer(direction, pkt)
}

// ChannelBusy queries the default lower layer's carrier sense.
func (l *LinkLayer) ChannelBusy() bool {
	lower := l.Layer(DirectionLower, l.DefaultLayer(DirectionLower))
	cs, ok := lower.(carrierSenser)
	if !ok {
		log.Panic("link layer's lower layer cannot carrier sense")
	}
	return cs.ChannelCarrierSensedBusy()
}
