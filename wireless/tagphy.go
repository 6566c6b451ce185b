package wireless

import (
	"github.com/wisim/rfidsim/stack"
)

// The TagPhy is the radio of a passive RFID tag. The tag listens on the
// channel all readers transmit on. It has no transmitter of its own: after
// each error-free reception it locks its sending channel onto the channel
// the signal arrived on and reflects the received power back as its
// transmit power.
type TagPhy struct {
	*PhysicalLayer

	sendingChannelIsValid bool
	sendingChannel        int

	allListenersChannelIsValid bool
	allListenersChannel        int
}

// NewTagPhy creates a tag radio.
func NewTagPhy(node *stack.Node, manager *ChannelManager) *TagPhy {
	p := new(TagPhy)
	p.PhysicalLayer = NewPhysicalLayer(node, manager)
	p.onErrorFreeSignal = p.reflectSignal
	return p
}

// reflectSignal realizes passive-tag behavior on every error-free
// reception.
func (p *TagPhy) reflectSignal(sig *CommSignal, recvdSignalStrength float64) {
	p.SetSendingChannel(sig.ChannelId())
	p.SetCurrentTxPower(recvdSignalStrength)
}

// SetSendingChannel attaches the tag as a sender on the channel. A
// previously set sending channel is detached first.
func (p *TagPhy) SetSendingChannel(channelId int) bool {
	p.ResetSendingChannel()

	wasSuccessful := p.manager.AttachAsSender(p.PhysicalLayer, channelId)

	p.sendingChannelIsValid = wasSuccessful
	p.sendingChannel = channelId

	return wasSuccessful
}

// ResetSendingChannel detaches the tag from its sending channel. The tag
// then transmits on no channel.
func (p *TagPhy) ResetSendingChannel() {
	if p.sendingChannelIsValid {
		p.manager.DetachAsSender(p.PhysicalLayer, p.sendingChannel)
	}
	p.sendingChannelIsValid = false
}

// SetAllListenersChannel attaches the tag as a listener of the channel all
// tags listen on.
func (p *TagPhy) SetAllListenersChannel(channelId int) bool {
	p.ResetAllListenersChannel()

	wasSuccessful := p.manager.AttachAsListener(p.PhysicalLayer, channelId)

	p.allListenersChannelIsValid = wasSuccessful
	p.allListenersChannel = channelId

	return wasSuccessful
}

// ResetAllListenersChannel detaches the tag from the all-listeners channel.
func (p *TagPhy) ResetAllListenersChannel() {
	if p.allListenersChannelIsValid {
		p.manager.DetachAsListener(p.PhysicalLayer, p.allListenersChannel)
	}
	p.allListenersChannelIsValid = false
}
