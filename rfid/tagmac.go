package rfid

import (
	"log"

	"github.com/wisim/rfidsim/rng"
	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// Tag interframe spacings. A REPLY defers longer than other frames so that
// colliding repliers can carrier-sense each other.
const (
	tagGenericIfs = 15e-6
	tagReplyIfs   = 20e-6
)

// The TagMac runs the tag side of the slotted-ALOHA protocol: on a REQUEST
// it picks a contention slot uniformly at random and replies there; a
// SELECT addressed to it triggers the identity packet; an ACK inhibits
// further replies until a RESET.
type TagMac struct {
	*SlottedMac

	tagApp *TagApp
	random *rng.Generator
}

// NewTagMac creates the MAC for an RFID tag and starts its slot timer. The
// tag draws its contention slots from its own random stream.
func NewTagMac(node *stack.Node, tagApp *TagApp, random *rng.Generator) *TagMac {
	if tagApp == nil {
		log.Panic("tag mac requires the tag application")
	}
	if random == nil {
		log.Panic("tag mac requires a random generator")
	}

	m := new(TagMac)
	m.SlottedMac = newSlottedMac(m, node)
	m.tagApp = tagApp
	m.random = random

	node.Engine().RegisterSimulationEndHandler(m)

	return m
}

// BeginSlot transmits in the tag's chosen slot and winds the contention
// cycle down when the last slot passes without a transmission.
func (m *TagMac) BeginSlot() {
	if m.currentSlot == m.txSlot {
		if m.packetToTransmit != nil {
			ifsDelay := sim.VTimeInSec(tagGenericIfs)
			if m.isFrameType(m.packetToTransmit, TagFrameReply) {
				ifsDelay = tagReplyIfs
			}

			m.StartSendTimer(stack.DirectionLower,
				m.packetToTransmit, ifsDelay)
			m.packetToTransmit = nil
		}
	} else if m.numberOfSlots == 0 ||
		m.currentSlot >= m.numberOfSlots-1 {
		// The last slot passed without a transmission.
		if m.packetToTransmit != nil {
			log.Panic("a frame is still pending past the last slot")
		}
		m.StopContentionCycle()
		m.UnblockUpperQueues()
	}
}

// HandleChannelBusy gives up on the contention cycle when a REPLY found the
// channel busy and always releases the upper queues.
func (m *TagMac) HandleChannelBusy(pkt *stack.Packet) {
	if m.isFrameType(pkt, TagFrameReply) {
		m.StopContentionCycle()
	}
	m.UnblockUpperQueues()
}

// HandlePacketSent winds the cycle down once the identity frame went out.
func (m *TagMac) HandlePacketSent(pkt *stack.Packet) {
	if m.isFrameType(pkt, TagFrameGeneric) {
		m.StopContentionCycle()
		m.UnblockUpperQueues()
	}
}

func (m *TagMac) isFrameType(
	pkt *stack.Packet,
	frameType TagFrameType,
) bool {
	frame, ok := pkt.Data(stack.LayerLink).(*TagMacFrame)
	return ok && frame.FrameType() == frameType
}

func (m *TagMac) frameIsForMe(frame *ReaderMacFrame) bool {
	return frame.ReceiverId().Equal(m.Node().ID()) ||
		frame.ReceiverId().IsBroadcast()
}

// createReplyPacket builds the REPLY announcing this tag in its contention
// slot.
func (m *TagMac) createReplyPacket(receiverId stack.NodeId) *stack.Packet {
	frame := NewTagMacFrame()
	frame.SetFrameType(TagFrameReply)
	frame.SetSenderId(m.Node().ID())
	frame.SetReceiverId(receiverId)

	pkt := stack.NewPacket()
	pkt.AddData(stack.LayerLink, frame)
	return pkt
}

// handleRequestFrame joins a contention cycle: the tag picks its reply slot
// uniformly from the slots that leave room for the SELECT, identity, and
// ACK exchange.
func (m *TagMac) handleRequestFrame(frame *ReaderMacFrame) bool {
	if m.InContentionCycle() {
		return true
	}

	m.currentSlot = 0
	m.numberOfSlots = int(frame.NumberOfSlots())
	if m.numberOfSlots < minimumContentionSlots {
		log.Panic("a contention cycle needs at least four slots")
	}

	m.txSlot = m.random.UniformInt(0, m.numberOfSlots-minimumContentionSlots)

	if m.packetToTransmit != nil {
		log.Panic("joining a contention cycle with a frame pending")
	}

	if m.tagApp.ReplyToReads() {
		m.packetToTransmit = m.createReplyPacket(frame.SenderId())
	}

	return true
}

// HandleRecvdMacPacket handles frames arriving from readers.
func (m *TagMac) HandleRecvdMacPacket(
	pkt *stack.Packet,
	_ int,
) bool {
	frame, ok := pkt.Data(stack.LayerLink).(*ReaderMacFrame)
	if !ok {
		return true
	}

	switch frame.FrameType() {
	case ReaderFrameRequest:
		if !frame.ReceiverId().IsBroadcast() {
			log.Panic("REQUEST frames are always broadcast")
		}
		return m.handleRequestFrame(frame)
	case ReaderFrameSelect:
		if frame.ReceiverId().Equal(m.Node().ID()) {
			// Selected: the application generates the identity.
			return m.SendToLinkLayer(stack.DirectionUpper, pkt)
		}
		// Another tag won the cycle.
		m.StopContentionCycle()
		m.packetToTransmit = nil
		m.UnblockUpperQueues()
		return true
	case ReaderFrameGeneric:
		if m.frameIsForMe(frame) {
			return m.SendToLinkLayer(stack.DirectionUpper, pkt)
		}
		return true
	case ReaderFrameAck:
		// Once acknowledged, the tag stays silent until a RESET.
		if m.frameIsForMe(frame) {
			m.tagApp.SetReplyToReads(false)
		}
		return true
	}

	return false
}

// HandleRecvdUpperLayerPacket accepts the identity packet the application
// generated in response to a SELECT. The packet goes out in the next slot;
// the tag must still be inside its contention cycle.
func (m *TagMac) HandleRecvdUpperLayerPacket(
	pkt *stack.Packet,
	_ int,
) bool {
	if pkt.Data(stack.LayerApplication) == nil {
		return false
	}

	m.BlockUpperQueues()

	if m.packetToTransmit != nil {
		log.Panic("an identity is already pending")
	}

	m.packetToTransmit = pkt
	m.addGenericHeader(pkt, pkt.Destination())
	// currentSlot advances at the end of the slot hook, so the identity
	// goes out in the next slot.
	m.txSlot = m.currentSlot

	if !m.slotTimer.IsRunning() || !m.InContentionCycle() {
		log.Panic("identity packets require an active contention cycle")
	}

	return true
}

func (m *TagMac) addGenericHeader(
	pkt *stack.Packet,
	receiverId stack.NodeId,
) {
	frame := NewTagMacFrame()
	frame.SetFrameType(TagFrameGeneric)
	frame.SetSenderId(m.Node().ID())
	frame.SetReceiverId(receiverId)
	pkt.AddData(stack.LayerLink, frame)
}

// Handle runs at the end of the simulation. The tag MAC keeps no per-run
// statistics.
func (m *TagMac) Handle(_ sim.VTimeInSec) {
}
