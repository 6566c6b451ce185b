package stack

import (
	"log"

	"github.com/wisim/rfidsim/sim"
)

// An EventRecorder receives the structured event records that the simulator
// emits: packet sends and receptions, statistics, user-defined notes, and
// debug lines. Rendering is up to the implementation.
type EventRecorder interface {
	RecordPacketSent(now sim.VTimeInSec, node NodeId, layer LayerType, pkt *Packet)
	RecordPacketRecvd(now sim.VTimeInSec, node NodeId, layer LayerType, pkt *Packet)
	RecordStat(now sim.VTimeInSec, node NodeId, key, value string)
	RecordUserDefined(now sim.VTimeInSec, msg string)
	RecordDebug(now sim.VTimeInSec, msg string)
}

// A Node is a stack of layers at a fixed location. It carries the engine
// reference that its layers use to schedule events.
type Node struct {
	id       NodeId
	location Location
	engine   sim.Engine
	recorder EventRecorder
}

// NewNode creates a node.
func NewNode(engine sim.Engine, location Location, id NodeId) *Node {
	if engine == nil {
		log.Panic("node requires an engine")
	}

	return &Node{
		id:       id,
		location: location,
		engine:   engine,
		recorder: nopRecorder{},
	}
}

// ID returns the id of this node.
func (n *Node) ID() NodeId {
	return n.id
}

// Location returns the location of this node.
func (n *Node) Location() Location {
	return n.location
}

// Engine returns the engine that drives this node.
func (n *Node) Engine() sim.Engine {
	return n.engine
}

// CurrentTime returns the current virtual time at the node.
func (n *Node) CurrentTime() sim.VTimeInSec {
	return n.engine.CurrentTime()
}

// ScheduleEvent adds an event to the engine's queue.
func (n *Node) ScheduleEvent(evt sim.Event, delay sim.VTimeInSec) {
	n.engine.Schedule(evt, delay)
}

// CancelEvent removes an event from the engine's queue.
func (n *Node) CancelEvent(evt sim.Event) bool {
	return n.engine.Cancel(evt)
}

// SetRecorder installs the recorder that the node's layers emit records to.
func (n *Node) SetRecorder(r EventRecorder) {
	if r == nil {
		n.recorder = nopRecorder{}
		return
	}
	n.recorder = r
}

// Recorder returns the recorder for this node. It is never nil.
func (n *Node) Recorder() EventRecorder {
	return n.recorder
}

type nopRecorder struct{}

func (nopRecorder) RecordPacketSent(sim.VTimeInSec, NodeId, LayerType, *Packet)  {}
func (nopRecorder) RecordPacketRecvd(sim.VTimeInSec, NodeId, LayerType, *Packet) {}
func (nopRecorder) RecordStat(sim.VTimeInSec, NodeId, string, string)            {}
func (nopRecorder) RecordUserDefined(sim.VTimeInSec, string)                     {}
func (nopRecorder) RecordDebug(sim.VTimeInSec, string)                           {}
