package stack

import (
	"log"

	"github.com/wisim/rfidsim/sim"
)

// Direction specifies which side of a layer an operation works on.
type Direction int

const (
	// DirectionLower addresses the layers below.
	DirectionLower Direction = iota
	// DirectionUpper addresses the layers above.
	DirectionUpper
)

func (d Direction) reverse() Direction {
	if d == DirectionLower {
		return DirectionUpper
	}
	return DirectionLower
}

// A Layer is one element of a node's protocol stack. Concrete layers embed
// *LayerBase and override LayerType and RecvFromLayer.
type Layer interface {
	Node() *Node
	LayerType() LayerType

	// RecvFromLayer handles a packet arriving from the neighbor at
	// sendingLayerIdx in the given direction.
	RecvFromLayer(direction Direction, pkt *Packet, sendingLayerIdx int) bool

	// InsertLowerLayer wires the layer below this one; this layer becomes
	// an upper neighbor of the inserted layer.
	InsertLowerLayer(lower Layer)

	BlockQueue()
	UnblockQueue()
	QueueIsBlocked() bool

	recvFromNeighbor(direction Direction, pkt *Packet, sendingLayer Layer) bool
	setLowerRecvEventPending(pending bool)
	insertNeighbor(direction Direction, neighbor Layer)
}

const defaultMaxQueueLength = 50

type queuedPacket struct {
	pkt      *Packet
	lowerIdx int
}

// LayerBase implements the bookkeeping shared by all layers: neighbor lists,
// per-direction delays, and the downward packet queue with backpressure.
type LayerBase struct {
	self Layer
	node *Node

	lowerLayers []Layer
	upperLayers []Layer

	defaultLowerIdx int
	defaultUpperIdx int

	lowerLayerDelay sim.VTimeInSec
	upperLayerDelay sim.VTimeInSec

	maxQueueLength        int
	packetQueue           []queuedPacket
	queueBlocked          bool
	lowerRecvEventPending bool
}

// NewLayerBase creates the base state for a layer. The self argument is the
// concrete layer embedding this base; its overridden methods are reached
// through it.
func NewLayerBase(self Layer, node *Node) *LayerBase {
	if self == nil {
		log.Panic("layer base requires the concrete layer")
	}
	if node == nil {
		log.Panic("layer base requires a node")
	}

	return &LayerBase{
		self:           self,
		node:           node,
		maxQueueLength: defaultMaxQueueLength,
	}
}

// Node returns the node that owns this layer.
func (l *LayerBase) Node() *Node {
	return l.node
}

// NodeId returns the id of the owning node.
func (l *LayerBase) NodeId() NodeId {
	return l.node.ID()
}

// InsertLowerLayer adds a layer below this one and registers this layer as
// an upper neighbor of it. Both layers must belong to the same node.
func (l *LayerBase) InsertLowerLayer(lower Layer) {
	if lower.Node() != l.node {
		log.Panic("layers of one stack must share a node")
	}

	l.insertNeighbor(DirectionLower, lower)
	lower.insertNeighbor(DirectionUpper, l.self)
}

func (l *LayerBase) insertNeighbor(direction Direction, neighbor Layer) {
	switch direction {
	case DirectionLower:
		l.lowerLayers = append(l.lowerLayers, neighbor)
	case DirectionUpper:
		l.upperLayers = append(l.upperLayers, neighbor)
	}
}

// NumberOfLayers returns how many neighbors the layer has in the direction.
func (l *LayerBase) NumberOfLayers(direction Direction) int {
	if direction == DirectionLower {
		return len(l.lowerLayers)
	}
	return len(l.upperLayers)
}

// SetDefaultLayer selects the neighbor used when no index is specified.
func (l *LayerBase) SetDefaultLayer(direction Direction, idx int) bool {
	if idx >= l.NumberOfLayers(direction) {
		return false
	}
	if direction == DirectionLower {
		l.defaultLowerIdx = idx
	} else {
		l.defaultUpperIdx = idx
	}
	return true
}

// DefaultLayer returns the index of the default neighbor in the direction.
func (l *LayerBase) DefaultLayer(direction Direction) int {
	if direction == DirectionLower {
		return l.defaultLowerIdx
	}
	return l.defaultUpperIdx
}

// SetLayerDelay sets the delay before a sent packet reaches the neighbor.
func (l *LayerBase) SetLayerDelay(direction Direction, delay sim.VTimeInSec) {
	if direction == DirectionLower {
		l.lowerLayerDelay = delay
	} else {
		l.upperLayerDelay = delay
	}
}

// LayerDelay returns the delay before a sent packet reaches the neighbor.
func (l *LayerBase) LayerDelay(direction Direction) sim.VTimeInSec {
	if direction == DirectionLower {
		return l.lowerLayerDelay
	}
	return l.upperLayerDelay
}

// Layer returns the neighbor at idx in the direction.
func (l *LayerBase) Layer(direction Direction, idx int) Layer {
	if direction == DirectionLower {
		return l.lowerLayers[idx]
	}
	return l.upperLayers[idx]
}

// SetMaxQueueLength bounds the downward packet queue.
func (l *LayerBase) SetMaxQueueLength(maxQueueLength int) {
	if maxQueueLength <= 0 {
		log.Panic("queue length must be positive")
	}
	l.maxQueueLength = maxQueueLength
}

// MaxQueueLength returns the bound of the downward packet queue.
func (l *LayerBase) MaxQueueLength() int {
	return l.maxQueueLength
}

func (l *LayerBase) queueIsFull() bool {
	return len(l.packetQueue) == l.maxQueueLength
}

// BlockQueue stops the layer's queue from draining to lower layers.
func (l *LayerBase) BlockQueue() {
	l.queueBlocked = true
}

// UnblockQueue lets the layer's queue resume draining.
func (l *LayerBase) UnblockQueue() {
	l.queueBlocked = false
	l.sendFromQueue()
}

// QueueIsBlocked reports whether the queue is blocked.
func (l *LayerBase) QueueIsBlocked() bool {
	return l.queueBlocked
}

// BlockUpperQueues blocks the queue of every upper neighbor.
func (l *LayerBase) BlockUpperQueues() {
	for _, upper := range l.upperLayers {
		upper.BlockQueue()
	}
}

// UnblockUpperQueues unblocks upper neighbors until this layer's queue fills
// up again.
func (l *LayerBase) UnblockUpperQueues() {
	for i := 0; !l.queueIsFull() && i < len(l.upperLayers); i++ {
		l.upperLayers[i].UnblockQueue()
	}
}

// SendToQueue appends the packet to the downward queue for the default lower
// layer. A full queue drops the packet and returns false.
func (l *LayerBase) SendToQueue(pkt *Packet) bool {
	return l.SendToQueueOn(pkt, l.defaultLowerIdx)
}

// SendToQueueOn appends the packet to the downward queue addressed to the
// lower layer at lowerIdx.
func (l *LayerBase) SendToQueueOn(pkt *Packet, lowerIdx int) bool {
	wasSuccessful := false
	if !l.queueIsFull() {
		wasSuccessful = true
		l.packetQueue = append(l.packetQueue, queuedPacket{pkt, lowerIdx})
		l.sendFromQueue()
	}

	if l.queueIsFull() {
		l.BlockUpperQueues()
	}

	return wasSuccessful
}

// sendFromQueue drains the queue while no downward hand-off is outstanding
// and the queue is not blocked.
func (l *LayerBase) sendFromQueue() {
	for !l.lowerRecvEventPending && !l.queueBlocked &&
		len(l.packetQueue) > 0 {
		element := l.packetQueue[0]
		l.packetQueue = l.packetQueue[1:]
		l.SendToLayerOn(DirectionLower, element.pkt, element.lowerIdx)
	}

	if !l.queueIsFull() {
		l.UnblockUpperQueues()
	}
}

// SendToLayer schedules the packet to reach the default neighbor in the
// direction after the layer delay.
func (l *LayerBase) SendToLayer(direction Direction, pkt *Packet) bool {
	return l.SendToLayerOn(direction, pkt, l.DefaultLayer(direction))
}

// SendToAllLayers sends the packet to every neighbor in the direction.
func (l *LayerBase) SendToAllLayers(direction Direction, pkt *Packet) bool {
	wasSentToAll := true
	for i := 0; i < l.NumberOfLayers(direction); i++ {
		wasSentToAll = l.SendToLayerOn(direction, pkt, i) && wasSentToAll
	}
	return wasSentToAll
}

// SendToLayerOn schedules the packet to reach the neighbor at
// recvingLayerIdx after the layer delay. Packets sent upward have this
// layer's own payload stripped first.
func (l *LayerBase) SendToLayerOn(
	direction Direction,
	pkt *Packet,
	recvingLayerIdx int,
) bool {
	if pkt == nil {
		log.Panic("cannot send a nil packet")
	}
	if recvingLayerIdx >= l.NumberOfLayers(direction) {
		log.Panic("sending to a layer that does not exist")
	}

	var recvingLayer Layer
	switch direction {
	case DirectionLower:
		recvingLayer = l.lowerLayers[recvingLayerIdx]
	case DirectionUpper:
		pkt.RemoveData(l.self.LayerType())
		recvingLayer = l.upperLayers[recvingLayerIdx]
	}

	l.node.Recorder().RecordPacketSent(
		l.node.CurrentTime(), l.NodeId(), l.self.LayerType(), pkt)

	evt := &layerRecvEvent{
		EventBase:     sim.NewEventBase(),
		sendDirection: direction,
		pkt:           pkt,
		recvingLayer:  recvingLayer,
		sendingLayer:  l.self,
	}

	if direction == DirectionLower {
		l.lowerRecvEventPending = true
	}

	l.node.ScheduleEvent(evt, l.LayerDelay(direction))
	return true
}

// recvFromNeighbor locates the sending neighbor's index and hands the packet
// to the concrete layer's RecvFromLayer.
func (l *LayerBase) recvFromNeighbor(
	direction Direction,
	pkt *Packet,
	sendingLayer Layer,
) bool {
	var layers []Layer
	if direction == DirectionLower {
		layers = l.lowerLayers
	} else {
		layers = l.upperLayers
	}

	for i, candidate := range layers {
		if candidate == sendingLayer {
			l.node.Recorder().RecordPacketRecvd(
				l.node.CurrentTime(), l.NodeId(), l.self.LayerType(), pkt)
			return l.self.RecvFromLayer(direction, pkt, i)
		}
	}

	return false
}

// setLowerRecvEventPending clears or sets the one-outstanding-downward-send
// flag. Clearing it resumes the queue drain.
func (l *LayerBase) setLowerRecvEventPending(pending bool) {
	wasPending := l.lowerRecvEventPending
	l.lowerRecvEventPending = pending
	if wasPending && !pending {
		l.sendFromQueue()
	}
}

// RecvFromLayer passes the packet through to the opposite side's default
// neighbor when one exists. Concrete layers override this to interpose
// their own logic.
func (l *LayerBase) RecvFromLayer(
	direction Direction,
	pkt *Packet,
	_ int,
) bool {
	directionToSend := direction.reverse()
	if l.NumberOfLayers(directionToSend) > 0 {
		l.SendToLayer(directionToSend, pkt)
	}
	return true
}

// layerRecvEvent delivers a packet to the receiving layer after the sending
// layer's delay.
type layerRecvEvent struct {
	*sim.EventBase

	sendDirection Direction
	pkt           *Packet
	recvingLayer  Layer
	sendingLayer  Layer
}

func (e *layerRecvEvent) Execute() {
	recvDirection := e.sendDirection.reverse()
	e.recvingLayer.recvFromNeighbor(recvDirection, e.pkt, e.sendingLayer)

	if e.sendDirection == DirectionLower {
		e.sendingLayer.setLowerRecvEventPending(false)
	}
}
