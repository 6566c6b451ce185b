package rfid

import (
	"github.com/wisim/rfidsim/stack"
)

// The TagApp answers READ commands with the tag's identity. An acknowledged
// tag stops replying until a RESET re-enables it.
type TagApp struct {
	*stack.ApplicationLayerBase

	replyToReads bool
}

// NewTagApp creates the application of an RFID tag.
func NewTagApp(node *stack.Node) *TagApp {
	a := new(TagApp)
	a.ApplicationLayerBase = stack.NewApplicationLayerBase(a, node)
	a.replyToReads = true
	return a
}

// StartHandler does nothing; tags are passive.
func (a *TagApp) StartHandler() {
}

// StopHandler does nothing.
func (a *TagApp) StopHandler() {
}

// ReplyToReads reports whether the tag currently answers READ commands.
func (a *TagApp) ReplyToReads() bool {
	return a.replyToReads
}

// SetReplyToReads switches the tag's willingness to answer READ commands.
// The MAC clears it when an ACK for this tag arrives.
func (a *TagApp) SetReplyToReads(replyToReads bool) {
	a.replyToReads = replyToReads
}

// HandleRecvdPacket answers READ commands and honors RESET commands.
func (a *TagApp) HandleRecvdPacket(pkt *stack.Packet, _ int) bool {
	if !a.IsRunning() {
		return false
	}

	readerData, ok := pkt.Data(stack.LayerApplication).(*ReaderAppData)
	if !ok {
		return false
	}

	switch readerData.AppType() {
	case ReaderAppRead:
		if a.replyToReads {
			a.sendIdPacket(readerData.ReaderId())
		}
		return true
	case ReaderAppReset:
		a.replyToReads = true
		return true
	}

	return false
}

// sendIdPacket submits the tag's identity addressed to the reader that
// asked for it.
func (a *TagApp) sendIdPacket(destination stack.NodeId) {
	pkt := stack.NewPacket()
	pkt.SetDestination(destination)

	appData := NewTagAppData()
	appData.SetTagId(a.NodeId())
	pkt.AddData(stack.LayerApplication, appData)

	a.SendToQueue(pkt)
}
