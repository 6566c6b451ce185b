package rfid

import (
	"log"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// macImpl is implemented by concrete MACs on top of MacBase.
type macImpl interface {
	// HandleRecvdMacPacket handles a frame that arrived from the medium.
	HandleRecvdMacPacket(pkt *stack.Packet, sendingLayerIdx int) bool

	// HandleRecvdUpperLayerPacket handles a packet from upper layers.
	HandleRecvdUpperLayerPacket(pkt *stack.Packet, sendingLayerIdx int) bool

	// HandleChannelBusy runs when a scheduled transmission finds the
	// channel carrier-sensed busy.
	HandleChannelBusy(pkt *stack.Packet)

	// HandlePacketSent runs whenever SendToLinkLayer hands a packet to
	// the link layer: a downward transmission that found the channel
	// free, or a frame forwarded upward.
	HandlePacketSent(pkt *stack.Packet)
}

// MacBase carries the state shared by all MAC protocols: the owning node,
// the non-owning back-reference to the link layer, and the one-shot send
// timer.
type MacBase struct {
	self macImpl
	node *stack.Node

	// The link layer owns this MAC; the reference back is non-owning and
	// installed by the link layer's constructor.
	linkLayer *stack.LinkLayer

	sendTimer *sim.Timer
}

func newMacBase(self macImpl, node *stack.Node) *MacBase {
	if self == nil {
		log.Panic("mac base requires the concrete mac")
	}
	if node == nil {
		log.Panic("mac base requires a node")
	}
	return &MacBase{self: self, node: node}
}

// Node returns the node that owns this MAC.
func (m *MacBase) Node() *stack.Node {
	return m.node
}

// SetLinkLayer installs the back-reference to the owning link layer.
func (m *MacBase) SetLinkLayer(linkLayer *stack.LinkLayer) {
	m.linkLayer = linkLayer
}

// RecvFromLinkLayer dispatches traffic the link layer received to the
// concrete MAC's handlers.
func (m *MacBase) RecvFromLinkLayer(
	direction stack.Direction,
	pkt *stack.Packet,
	sendingLayerIdx int,
) bool {
	switch direction {
	case stack.DirectionLower:
		return m.self.HandleRecvdMacPacket(pkt, sendingLayerIdx)
	case stack.DirectionUpper:
		return m.self.HandleRecvdUpperLayerPacket(pkt, sendingLayerIdx)
	}
	log.Panic("unknown direction")
	return false
}

// StartSendTimer arms a one-shot timer that hands the packet to the link
// layer when it fires.
func (m *MacBase) StartSendTimer(
	direction stack.Direction,
	pkt *stack.Packet,
	delay sim.VTimeInSec,
) bool {
	if m.sendTimer != nil && m.sendTimer.IsRunning() {
		log.Panic("mac send timer is already running")
	}

	evt := &sendToLinkLayerEvent{
		EventBase: sim.NewEventBase(),
		mac:       m,
		direction: direction,
		pkt:       pkt,
	}
	m.sendTimer = sim.NewTimer(m.node.Engine(), evt)
	return m.sendTimer.Start(delay)
}

// SendToLinkLayer hands the packet to the link layer. Downward sends check
// carrier sense at this instant: a busy channel routes to the concrete
// MAC's busy handler and the packet is not sent.
func (m *MacBase) SendToLinkLayer(
	direction stack.Direction,
	pkt *stack.Packet,
) bool {
	if direction == stack.DirectionLower && m.linkLayer.ChannelBusy() {
		m.self.HandleChannelBusy(pkt)
		return false
	}

	m.self.HandlePacketSent(pkt)
	return m.linkLayer.RecvFromMacProtocol(direction, pkt)
}

// BlockUpperQueues blocks the queues feeding the link layer.
func (m *MacBase) BlockUpperQueues() {
	m.linkLayer.BlockUpperQueues()
}

// UnblockUpperQueues unblocks the queues feeding the link layer.
func (m *MacBase) UnblockUpperQueues() {
	m.linkLayer.UnblockUpperQueues()
}

// QueueIsBlocked reports whether the link layer's queue is blocked.
func (m *MacBase) QueueIsBlocked() bool {
	return m.linkLayer.QueueIsBlocked()
}

// sendToLinkLayerEvent fires when a MAC's interframe spacing elapses.
type sendToLinkLayerEvent struct {
	*sim.EventBase

	mac       *MacBase
	direction stack.Direction
	pkt       *stack.Packet
}

func (e *sendToLinkLayerEvent) Execute() {
	e.mac.SendToLinkLayer(e.direction, e.pkt)
}

const defaultSlotTime = 2.0e-3

// slottedMacImpl adds the per-slot hook to the MAC handlers.
type slottedMacImpl interface {
	macImpl

	// BeginSlot runs at every slot boundary, before the slot counter
	// advances.
	BeginSlot()
}

// SlottedMac divides time into discrete slots during which frames can be
// transmitted. The slot timer starts at construction with delay zero so
// that slot zero begins immediately.
type SlottedMac struct {
	*MacBase

	slotImpl slottedMacImpl

	slotTimer *sim.Timer
	slotTime  sim.VTimeInSec

	currentSlot      int
	txSlot           int
	numberOfSlots    int
	packetToTransmit *stack.Packet
}

func newSlottedMac(self slottedMacImpl, node *stack.Node) *SlottedMac {
	m := new(SlottedMac)
	m.MacBase = newMacBase(self, node)
	m.slotImpl = self
	m.slotTime = defaultSlotTime

	m.slotTimer = sim.NewTimer(node.Engine(), &slotEvent{
		EventBase: sim.NewEventBase(),
		mac:       m,
	})
	m.slotTimer.Start(0)

	return m
}

// SetSlotTime sets the duration of one slot.
func (m *SlottedMac) SetSlotTime(slotTime sim.VTimeInSec) {
	m.slotTime = slotTime
}

// SlotTime returns the duration of one slot.
func (m *SlottedMac) SlotTime() sim.VTimeInSec {
	return m.slotTime
}

// InContentionCycle reports whether the node is inside a contention cycle.
func (m *SlottedMac) InContentionCycle() bool {
	return m.currentSlot < m.numberOfSlots
}

// StopContentionCycle resets the cycle bookkeeping.
func (m *SlottedMac) StopContentionCycle() {
	m.currentSlot = 0
	m.numberOfSlots = 0
}

// slotEvent drives the slot boundaries: hook, advance, re-arm.
type slotEvent struct {
	*sim.EventBase

	mac *SlottedMac
}

func (e *slotEvent) Execute() {
	m := e.mac
	m.slotImpl.BeginSlot()
	m.currentSlot++
	m.slotTimer.Reschedule(m.slotTime)
}
