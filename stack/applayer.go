package stack

import (
	"log"

	"github.com/wisim/rfidsim/sim"
)

// An Application is the top of a node's stack. Concrete applications embed
// *ApplicationLayerBase and provide the three handlers.
type Application interface {
	Layer

	// StartHandler runs when the application's start epoch fires.
	StartHandler()

	// StopHandler runs when the application's stop epoch fires.
	StopHandler()

	// HandleRecvdPacket processes a packet that reached the application.
	HandleRecvdPacket(pkt *Packet, sendingLayerIdx int) bool
}

// ApplicationLayerBase implements the common application-layer behavior:
// start/stop epochs and upward packet dispatch.
type ApplicationLayerBase struct {
	*LayerBase

	app       Application
	isRunning bool
}

// NewApplicationLayerBase creates the base state for an application layer.
func NewApplicationLayerBase(app Application, node *Node) *ApplicationLayerBase {
	if app == nil {
		log.Panic("application layer base requires the application")
	}

	a := new(ApplicationLayerBase)
	a.LayerBase = NewLayerBase(app, node)
	a.app = app
	return a
}

// LayerType returns LayerApplication.
func (a *ApplicationLayerBase) LayerType() LayerType {
	return LayerApplication
}

// IsRunning reports whether the application is between its start and stop
// epochs.
func (a *ApplicationLayerBase) IsRunning() bool {
	return a.isRunning
}

// Start schedules the application's start epoch at the given absolute time.
func (a *ApplicationLayerBase) Start(startTime sim.VTimeInSec) {
	delay := startTime - a.Node().CurrentTime()
	if delay < 0 {
		log.Panic("application start time is in the past")
	}

	a.Node().ScheduleEvent(sim.NewFuncEvent(func() {
		a.isRunning = true
		a.app.StartHandler()
	}), delay)
}

// Stop schedules the application's stop epoch at the given absolute time.
func (a *ApplicationLayerBase) Stop(stopTime sim.VTimeInSec) {
	delay := stopTime - a.Node().CurrentTime()
	if delay < 0 {
		log.Panic("application stop time is in the past")
	}

	a.Node().ScheduleEvent(sim.NewFuncEvent(func() {
		a.app.StopHandler()
		a.isRunning = false
	}), delay)
}

// RecvFromLayer dispatches packets arriving from below to the application's
// packet handler. The application layer has no upper neighbors.
func (a *ApplicationLayerBase) RecvFromLayer(
	direction Direction,
	pkt *Packet,
	sendingLayerIdx int,
) bool {
	if direction != DirectionLower {
		log.Panic("application layer cannot receive from above")
	}
	return a.app.HandleRecvdPacket(pkt, sendingLayerIdx)
}
