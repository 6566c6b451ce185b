package wireless

import (
	"github.com/wisim/rfidsim/stack"
)

// 802.11 threshold values from ns-2.
const (
	defaultReaderRxThreshold = 3.652e-10
	defaultReaderCsThreshold = 1.559e-11
)

// The ReaderPhy is the radio of an RFID reader. It transmits on the shared
// all-readers channel and on its own regular channel, and listens only on
// the regular channel.
type ReaderPhy struct {
	*PhysicalLayer

	regularChannelIsValid bool
	regularChannel        int

	allSendersChannelIsValid bool
	allSendersChannel        int
}

// NewReaderPhy creates a reader radio.
func NewReaderPhy(node *stack.Node, manager *ChannelManager) *ReaderPhy {
	p := new(ReaderPhy)
	p.PhysicalLayer = NewPhysicalLayer(node, manager)
	p.SetRxThreshold(defaultReaderRxThreshold)
	p.SetCsThreshold(defaultReaderCsThreshold)
	return p
}

// SetRegularChannel attaches the reader to its own channel as both listener
// and sender. A previously set regular channel is detached first.
func (p *ReaderPhy) SetRegularChannel(channelId int) bool {
	p.ResetRegularChannel()

	wasSuccessful := p.manager.AttachAsListener(p.PhysicalLayer, channelId)
	wasSuccessful = p.manager.AttachAsSender(p.PhysicalLayer, channelId) &&
		wasSuccessful

	p.regularChannelIsValid = wasSuccessful
	p.regularChannel = channelId

	return wasSuccessful
}

// ResetRegularChannel detaches the reader from its regular channel. The
// reader then listens to no channel.
func (p *ReaderPhy) ResetRegularChannel() {
	if p.regularChannelIsValid {
		p.manager.DetachAsListener(p.PhysicalLayer, p.regularChannel)
		p.manager.DetachAsSender(p.PhysicalLayer, p.regularChannel)
	}
	p.regularChannelIsValid = false
}

// SetAllSendersChannel attaches the reader as a sender on the channel all
// readers transmit on.
func (p *ReaderPhy) SetAllSendersChannel(channelId int) bool {
	p.ResetAllSendersChannel()

	wasSuccessful := p.manager.AttachAsSender(p.PhysicalLayer, channelId)

	p.allSendersChannelIsValid = wasSuccessful
	p.allSendersChannel = channelId

	return wasSuccessful
}

// ResetAllSendersChannel detaches the reader from the all-senders channel.
func (p *ReaderPhy) ResetAllSendersChannel() {
	if p.allSendersChannelIsValid {
		p.manager.DetachAsSender(p.PhysicalLayer, p.allSendersChannel)
	}
	p.allSendersChannelIsValid = false
}
