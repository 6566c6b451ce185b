package rfid

import (
	"fmt"
	"log"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// Reader MAC timing. The interframe spacing is the deferral between a slot
// boundary and the frame's emission.
const (
	readerIfs              = 10e-6
	defaultNumberOfSlots   = 10
	defaultCycleTime       = 5.25
	missedReadThreshold    = 3
	minimumContentionSlots = 4

	missedReadTotalKey   = "missedReadTotal"
	missedReadSlotAvgKey = "missedReadSlotAvg"
	winningSlotAvgKey    = "winningSlotAvg"
)

// The ReaderMac runs the reader side of the slotted-ALOHA protocol: it
// issues REQUEST frames to open contention cycles, answers tag REPLYs with a
// SELECT, forwards tag identities upward and acknowledges them, and watches
// the read-cycle timer.
type ReaderMac struct {
	*SlottedMac

	doResetSlot     bool
	resetSlotNumber int

	doEntireReadCycle bool
	missedReadCount   int

	cycleTimer           *sim.Timer
	currentAppReadPacket *stack.Packet

	nextCycleNumberOfSlots int
	nextCycleTime          sim.VTimeInSec

	readerApp *ReaderApp

	winningSlots []winningSlot
	missedReads  []int
}

type winningSlot struct {
	tagId stack.NodeId
	slot  int
}

// NewReaderMac creates the MAC for an RFID reader and starts its slot
// timer.
func NewReaderMac(node *stack.Node, readerApp *ReaderApp) *ReaderMac {
	if readerApp == nil {
		log.Panic("reader mac requires the reader application")
	}

	m := new(ReaderMac)
	m.SlottedMac = newSlottedMac(m, node)
	m.nextCycleNumberOfSlots = defaultNumberOfSlots
	m.nextCycleTime = defaultCycleTime
	m.readerApp = readerApp

	m.cycleTimer = sim.NewTimer(node.Engine(),
		sim.NewFuncEvent(m.endRequestCycle))

	node.Engine().RegisterSimulationEndHandler(m)

	return m
}

// SetNextCycleNumberOfSlots configures the slot count of future contention
// cycles. A cycle needs at least four slots: contention, SELECT, identity,
// and ACK.
func (m *ReaderMac) SetNextCycleNumberOfSlots(numberOfSlots int) {
	if numberOfSlots < minimumContentionSlots {
		log.Panic("a contention cycle needs at least four slots")
	}
	m.nextCycleNumberOfSlots = numberOfSlots
}

// SetNextCycleTime configures the duration of future read cycles.
func (m *ReaderMac) SetNextCycleTime(cycleTime sim.VTimeInSec) {
	m.nextCycleTime = cycleTime
}

// isEnoughTimeForContentionCycle reports whether another contention cycle,
// plus the slot needed to send its REQUEST, fits in the remaining read
// cycle time.
func (m *ReaderMac) isEnoughTimeForContentionCycle() bool {
	nextContentionCycleTime := sim.VTimeInSec(
		float64(m.nextCycleNumberOfSlots+1) * float64(m.slotTime))
	return nextContentionCycleTime < m.cycleTimer.TimeRemaining()
}

// BeginSlot drives the reader's per-slot decisions. The transmission-slot
// check comes before the end-slot check so that a frame armed for the next
// slot after StopContentionCycle does not trigger the end-slot actions.
func (m *ReaderMac) BeginSlot() {
	if m.currentSlot == m.txSlot {
		if m.packetToTransmit != nil {
			m.StartSendTimer(stack.DirectionLower,
				m.packetToTransmit, readerIfs)
			m.packetToTransmit = nil
		}
	} else if m.numberOfSlots == 0 ||
		m.currentSlot >= m.numberOfSlots ||
		(m.doResetSlot && m.currentSlot == m.resetSlotNumber) {
		// No tag was read in this contention cycle. The next REQUEST
		// goes out one slot later, which avoids cutting off a tag
		// that transmits in the last slot of the cycle.
		if m.packetToTransmit != nil {
			log.Panic("a frame is still pending at the end slot")
		}

		if !m.doEntireReadCycle && m.cycleTimer.IsRunning() {
			m.missedReads = append(m.missedReads, m.currentSlot)
			m.missedReadCount++
		} else {
			m.missedReadCount = 0
		}

		m.doResetSlot = false
		m.StopContentionCycle()

		if !m.doEntireReadCycle &&
			m.missedReadCount == missedReadThreshold {
			// Too many consecutive missed reads force the read
			// cycle to end early.
			if !m.cycleTimer.IsRunning() {
				log.Panic("missed reads counted without a running cycle")
			}
			m.cycleTimer.Stop()
			m.endRequestCycle()
		} else if m.isEnoughTimeForContentionCycle() {
			m.packetToTransmit = m.createRequestPacket()
			// currentSlot is incremented after this hook, so the
			// REQUEST goes out in the next slot.
			m.txSlot = m.currentSlot + 1
		}
	}
}

// endRequestCycle finishes the application's read: the pending READ packet
// is dropped, upper queues resume, and the application is notified.
func (m *ReaderMac) endRequestCycle() {
	if m.InContentionCycle() {
		log.Panic("cannot end a read inside a contention cycle")
	}
	m.currentAppReadPacket = nil
	m.UnblockUpperQueues()
	m.readerApp.SignalReadEnd()
}

// HandleChannelBusy drops REQUEST and SELECT frames silently; there is no
// retransmission scheme. Other frames give the channel back to the
// application.
func (m *ReaderMac) HandleChannelBusy(pkt *stack.Packet) {
	if !m.isFrameType(pkt, ReaderFrameRequest) &&
		!m.isFrameType(pkt, ReaderFrameSelect) {
		m.UnblockUpperQueues()
	}
}

// HandlePacketSent reacts to frames leaving on the channel.
func (m *ReaderMac) HandlePacketSent(pkt *stack.Packet) {
	switch {
	case m.isFrameType(pkt, ReaderFrameRequest):
		// The contention cycle is now underway.
		m.currentSlot = 0
		frame := pkt.Data(stack.LayerLink).(*ReaderMacFrame)
		m.numberOfSlots = int(frame.NumberOfSlots())
	case m.isFrameType(pkt, ReaderFrameSelect):
		m.doResetSlot = true
		// currentSlot is already past the SELECT's slot, so a missed
		// SELECT restarts contention two slots after it.
		m.resetSlotNumber = m.currentSlot + 1
	case m.isFrameType(pkt, ReaderFrameAck):
		if m.isEnoughTimeForContentionCycle() {
			m.startNextContentionCycle()
		}
	default:
		m.UnblockUpperQueues()
	}
}

func (m *ReaderMac) isFrameType(
	pkt *stack.Packet,
	frameType ReaderFrameType,
) bool {
	frame, ok := pkt.Data(stack.LayerLink).(*ReaderMacFrame)
	return ok && frame.FrameType() == frameType
}

func (m *ReaderMac) frameIsForMe(frame *TagMacFrame) bool {
	return frame.ReceiverId().Equal(m.Node().ID()) ||
		frame.ReceiverId().IsBroadcast()
}

// startNextContentionCycle arms a REQUEST for the current slot.
func (m *ReaderMac) startNextContentionCycle() {
	if m.packetToTransmit != nil {
		log.Panic("cannot start a contention cycle with a frame pending")
	}
	m.packetToTransmit = m.createRequestPacket()
	m.missedReadCount = 0
	m.doResetSlot = false
	m.StopContentionCycle()
	m.txSlot = m.currentSlot
}

// HandleRecvdMacPacket handles frames arriving from tags.
func (m *ReaderMac) HandleRecvdMacPacket(
	pkt *stack.Packet,
	_ int,
) bool {
	frame, ok := pkt.Data(stack.LayerLink).(*TagMacFrame)
	if !ok {
		return true
	}

	if !m.frameIsForMe(frame) {
		return true
	}

	switch frame.FrameType() {
	case TagFrameReply:
		// A read that ended early leaves the cycle timer stopped;
		// late REPLYs are then ignored. A REPLY can also arrive in
		// the contention cycle after a SELECT was lost: the reader is
		// already resetting and a REQUEST is pending, so the REPLY is
		// ignored too.
		if m.cycleTimer.IsRunning() && m.packetToTransmit == nil {
			if m.currentAppReadPacket == nil {
				log.Panic("a REPLY arrived without an active read")
			}
			m.addSelectHeader(m.currentAppReadPacket, frame.SenderId())
			m.packetToTransmit = m.currentAppReadPacket
			m.txSlot = m.currentSlot
		}
		return true
	case TagFrameGeneric:
		// The winning slot is three slots back: the counter was
		// incremented at the slot end, the REPLY came one slot
		// before the identity, and the SELECT one before that.
		m.winningSlots = append(m.winningSlots, winningSlot{
			tagId: frame.SenderId(),
			slot:  m.currentSlot - 3,
		})

		wasSuccessful := m.SendToLinkLayer(stack.DirectionUpper, pkt)

		m.packetToTransmit = m.createAckPacket(frame.SenderId())
		m.txSlot = m.currentSlot
		return wasSuccessful
	}

	return false
}

// HandleRecvdUpperLayerPacket accepts READ and RESET commands from the
// reader application. The MAC handles one application packet at a time.
func (m *ReaderMac) HandleRecvdUpperLayerPacket(
	pkt *stack.Packet,
	_ int,
) bool {
	appData, ok := pkt.Data(stack.LayerApplication).(*ReaderAppData)
	if !ok {
		return false
	}

	switch appData.AppType() {
	case ReaderAppRead:
		m.BlockUpperQueues()

		if m.currentAppReadPacket != nil {
			log.Panic("a read is already in progress")
		}
		m.currentAppReadPacket = pkt
		m.doEntireReadCycle = appData.DoEntireReadCycle()

		m.cycleTimer.Start(m.nextCycleTime)
		if m.isEnoughTimeForContentionCycle() {
			m.startNextContentionCycle()
		}
		return true
	case ReaderAppReset:
		m.BlockUpperQueues()

		if m.packetToTransmit != nil {
			log.Panic("cannot queue a RESET behind a pending frame")
		}
		m.addGenericHeader(pkt, stack.BroadcastId)
		m.packetToTransmit = pkt
		m.txSlot = m.currentSlot
		return true
	}

	return false
}

// createRequestPacket builds the REQUEST that opens a contention cycle. It
// is transmitted at the same power as the application's READ packet.
func (m *ReaderMac) createRequestPacket() *stack.Packet {
	if m.nextCycleNumberOfSlots < minimumContentionSlots {
		log.Panic("a contention cycle needs at least four slots")
	}
	if m.currentAppReadPacket == nil {
		log.Panic("a REQUEST needs an active read packet")
	}

	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameRequest)
	frame.SetSenderId(m.Node().ID())
	frame.SetReceiverId(stack.BroadcastId)
	frame.SetNumberOfSlots(uint8(m.nextCycleNumberOfSlots))

	pkt := stack.NewPacket()
	pkt.SetTxPower(m.currentAppReadPacket.TxPower())
	pkt.AddData(stack.LayerLink, frame)
	return pkt
}

// createAckPacket builds the ACK for a received identity. ACKs go out at
// maximum power so the tag hears them regardless of the sweep level.
func (m *ReaderMac) createAckPacket(destination stack.NodeId) *stack.Packet {
	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameAck)
	frame.SetSenderId(m.Node().ID())
	frame.SetReceiverId(destination)

	pkt := stack.NewPacket()
	pkt.SetForceMaxTxPower(true)
	pkt.AddData(stack.LayerLink, frame)
	return pkt
}

func (m *ReaderMac) addGenericHeader(
	pkt *stack.Packet,
	receiverId stack.NodeId,
) {
	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameGeneric)
	frame.SetSenderId(m.Node().ID())
	frame.SetReceiverId(receiverId)
	pkt.AddData(stack.LayerLink, frame)
}

// addSelectHeader attaches a SELECT header onto the application's READ
// packet. SELECTs go out at maximum power.
func (m *ReaderMac) addSelectHeader(
	pkt *stack.Packet,
	receiverId stack.NodeId,
) {
	frame := NewReaderMacFrame()
	frame.SetFrameType(ReaderFrameSelect)
	frame.SetSenderId(m.Node().ID())
	frame.SetReceiverId(receiverId)
	pkt.SetForceMaxTxPower(true)
	pkt.AddData(stack.LayerLink, frame)
}

// Handle emits the reader MAC's end-of-run statistics.
func (m *ReaderMac) Handle(now sim.VTimeInSec) {
	rec := m.Node().Recorder()
	nodeId := m.Node().ID()

	missedReadSlotSum := 0
	for _, slot := range m.missedReads {
		missedReadSlotSum += slot
	}
	missedReadSlotAvg := 0.0
	if len(m.missedReads) > 0 {
		missedReadSlotAvg =
			float64(missedReadSlotSum) / float64(len(m.missedReads))
	}

	rec.RecordStat(now, nodeId, missedReadTotalKey,
		fmt.Sprintf("%d", len(m.missedReads)))
	rec.RecordStat(now, nodeId, missedReadSlotAvgKey,
		fmt.Sprintf("%g", missedReadSlotAvg))

	winningSlotSum := 0
	for _, w := range m.winningSlots {
		winningSlotSum += w.slot
	}
	winningSlotAvg := 0.0
	if len(m.winningSlots) > 0 {
		winningSlotAvg =
			float64(winningSlotSum) / float64(len(m.winningSlots))
	}

	rec.RecordStat(now, nodeId, winningSlotAvgKey,
		fmt.Sprintf("%g", winningSlotAvg))
}
