package rfid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisim/rfidsim/rng"
	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// fakePhy stands in for the radio under a link layer. It records the frames
// that reach it and reports a configurable carrier-sense state.
type fakePhy struct {
	*stack.LayerBase

	busy     bool
	received []*stack.Packet
}

func newFakePhy(node *stack.Node) *fakePhy {
	p := new(fakePhy)
	p.LayerBase = stack.NewLayerBase(p, node)
	return p
}

func (p *fakePhy) LayerType() stack.LayerType {
	return stack.LayerPhysical
}

func (p *fakePhy) RecvFromLayer(
	_ stack.Direction,
	pkt *stack.Packet,
	_ int,
) bool {
	p.received = append(p.received, pkt)
	return true
}

func (p *fakePhy) ChannelCarrierSensedBusy() bool {
	return p.busy
}

type tagHarness struct {
	engine *sim.SerialEngine
	node   *stack.Node
	app    *TagApp
	mac    *TagMac
	link   *stack.LinkLayer
	phy    *fakePhy
}

func newTagHarness(t *testing.T, id uint64) *tagHarness {
	t.Helper()

	engine := sim.NewSerialEngine()
	node := stack.NewNode(engine,
		stack.NewLocation(0, 0, 0), stack.NewNodeId(id))

	app := NewTagApp(node)
	mac := NewTagMac(node, app, rng.New("tag-harness"))
	link := stack.NewLinkLayer(node, mac)
	phy := newFakePhy(node)

	app.InsertLowerLayer(link)
	link.InsertLowerLayer(phy)

	return &tagHarness{
		engine: engine,
		node:   node,
		app:    app,
		mac:    mac,
		link:   link,
		phy:    phy,
	}
}

func requestPacket(readerId uint64, numberOfSlots uint8) *stack.Packet {
	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameRequest)
	frame.SetSenderId(stack.NewNodeId(readerId))
	frame.SetReceiverId(stack.BroadcastId)
	frame.SetNumberOfSlots(numberOfSlots)

	pkt := stack.NewPacket()
	pkt.AddData(stack.LayerLink, frame)
	return pkt
}

func TestTagJoinsContentionCycleOnRequest(t *testing.T) {
	h := newTagHarness(t, 10)

	h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)

	assert.True(t, h.mac.InContentionCycle())
	assert.Equal(t, 10, h.mac.numberOfSlots)
	assert.NotNil(t, h.mac.packetToTransmit)
	assert.True(t, h.mac.isFrameType(h.mac.packetToTransmit, TagFrameReply))
}

func TestTagSlotChoiceStaysInRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		h := newTagHarness(t, uint64(100+i))
		h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)

		assert.GreaterOrEqual(t, h.mac.txSlot, 0)
		assert.LessOrEqual(t, h.mac.txSlot, 6)
	}
}

func TestTagSlotChoiceWithFourSlotsIsAlwaysZero(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newTagHarness(t, uint64(200+i))
		h.mac.HandleRecvdMacPacket(requestPacket(1, 4), 0)

		assert.Equal(t, 0, h.mac.txSlot)
	}
}

func TestInhibitedTagJoinsWithoutReply(t *testing.T) {
	h := newTagHarness(t, 11)
	h.app.SetReplyToReads(false)

	h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)

	assert.True(t, h.mac.InContentionCycle())
	assert.Nil(t, h.mac.packetToTransmit)
}

func TestTagIgnoresRequestMidCycle(t *testing.T) {
	h := newTagHarness(t, 12)

	h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)
	firstSlot := h.mac.txSlot
	firstPacket := h.mac.packetToTransmit

	h.mac.HandleRecvdMacPacket(requestPacket(2, 6), 0)

	assert.Equal(t, firstSlot, h.mac.txSlot)
	assert.Equal(t, 10, h.mac.numberOfSlots)
	assert.Same(t, firstPacket, h.mac.packetToTransmit)
}

func TestSelectForAnotherTagStopsCycle(t *testing.T) {
	h := newTagHarness(t, 13)
	h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)

	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameSelect)
	frame.SetSenderId(stack.NewNodeId(1))
	frame.SetReceiverId(stack.NewNodeId(99))
	pkt := stack.NewPacket()
	pkt.AddData(stack.LayerLink, frame)

	h.mac.HandleRecvdMacPacket(pkt, 0)

	assert.False(t, h.mac.InContentionCycle())
	assert.Nil(t, h.mac.packetToTransmit)
}

func TestAckInhibitsReplies(t *testing.T) {
	h := newTagHarness(t, 14)
	assert.True(t, h.app.ReplyToReads())

	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameAck)
	frame.SetSenderId(stack.NewNodeId(1))
	frame.SetReceiverId(stack.NewNodeId(14))
	pkt := stack.NewPacket()
	pkt.AddData(stack.LayerLink, frame)

	h.mac.HandleRecvdMacPacket(pkt, 0)

	assert.False(t, h.app.ReplyToReads())
}

func TestAckForAnotherTagDoesNotInhibit(t *testing.T) {
	h := newTagHarness(t, 15)

	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameAck)
	frame.SetSenderId(stack.NewNodeId(1))
	frame.SetReceiverId(stack.NewNodeId(77))
	pkt := stack.NewPacket()
	pkt.AddData(stack.LayerLink, frame)

	h.mac.HandleRecvdMacPacket(pkt, 0)

	assert.True(t, h.app.ReplyToReads())
}

func TestTagTransmitsReplyInChosenSlot(t *testing.T) {
	h := newTagHarness(t, 16)

	h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)

	// Run past the whole contention cycle.
	h.engine.RunUntil(sim.VTimeInSec(float64(12) * defaultSlotTime))

	if assert.Len(t, h.phy.received, 1) {
		frame := h.phy.received[0].Data(stack.LayerLink).(*TagMacFrame)
		assert.Equal(t, TagFrameReply, frame.FrameType())
		assert.True(t, frame.ReceiverId().Equal(stack.NewNodeId(1)))
	}
}

func TestReplyChannelBusyStopsCycle(t *testing.T) {
	h := newTagHarness(t, 17)
	h.phy.busy = true

	h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)

	h.engine.RunUntil(sim.VTimeInSec(float64(12) * defaultSlotTime))

	// The REPLY found the channel busy: nothing reached the radio and
	// the contention cycle was abandoned.
	assert.Empty(t, h.phy.received)
	assert.False(t, h.mac.InContentionCycle())
}

func TestExactlyOneOutstandingMacFrame(t *testing.T) {
	h := newTagHarness(t, 18)

	h.mac.HandleRecvdMacPacket(requestPacket(1, 10), 0)

	// While the MAC holds the pending REPLY, a second outgoing frame
	// trips the pending-frame check.
	assert.Panics(t, func() {
		h.mac.HandleRecvdUpperLayerPacket(identityPacket(1), 0)
	})
}

func identityPacket(readerId uint64) *stack.Packet {
	pkt := stack.NewPacket()
	pkt.SetDestination(stack.NewNodeId(readerId))
	appData := NewTagAppData()
	appData.SetTagId(stack.NewNodeId(42))
	pkt.AddData(stack.LayerApplication, appData)
	return pkt
}
