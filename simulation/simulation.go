// Package simulation assembles simulations: the engine, the statistics
// recorder, the optional monitor, the channel manager, and the node stacks
// of readers and tags.
package simulation

import (
	"fmt"
	"log"

	"github.com/wisim/rfidsim/monitoring"
	"github.com/wisim/rfidsim/rfid"
	"github.com/wisim/rfidsim/rng"
	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
	"github.com/wisim/rfidsim/stats"
	"github.com/wisim/rfidsim/wireless"
)

// A Simulation provides the services required to define and run one
// simulation.
type Simulation struct {
	id string

	engine         sim.Engine
	logger         *stats.Logger
	dataRecorder   stats.DataRecorder
	monitor        *monitoring.Monitor
	channelManager *wireless.ChannelManager

	nodes     []*stack.Node
	nodeIndex map[string]int
}

// ID returns the unique id of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the engine used in the simulation.
func (s *Simulation) Engine() sim.Engine {
	return s.engine
}

// Logger returns the event-record logger of the simulation.
func (s *Simulation) Logger() *stats.Logger {
	return s.logger
}

// DataRecorder returns the statistics recorder, or nil when recording is
// off.
func (s *Simulation) DataRecorder() stats.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// ChannelManager returns the wireless channel manager.
func (s *Simulation) ChannelManager() *wireless.ChannelManager {
	return s.channelManager
}

// AddChannel registers a wireless channel under the given id.
func (s *Simulation) AddChannel(channelId int, channel *wireless.Channel) {
	s.channelManager.AddChannel(channelId, channel)
}

// NewNode creates a node wired to the simulation's engine and recorder and
// registers it with the simulation.
func (s *Simulation) NewNode(
	location stack.Location,
	id stack.NodeId,
) *stack.Node {
	name := id.String()
	if _, exists := s.nodeIndex[name]; exists {
		log.Panic("node " + name + " already registered")
	}

	node := stack.NewNode(s.engine, location, id)
	node.SetRecorder(s.logger)

	s.nodes = append(s.nodes, node)
	s.nodeIndex[name] = len(s.nodes) - 1

	if s.monitor != nil {
		s.monitor.RegisterNode(node)
	}

	return node
}

// NodeByName returns the node with the given id string.
func (s *Simulation) NodeByName(name string) *stack.Node {
	idx, found := s.nodeIndex[name]
	if !found {
		log.Panic("node " + name + " is not registered")
	}
	return s.nodes[idx]
}

// A ReaderStack bundles the layers of one reader node.
type ReaderStack struct {
	Node *stack.Node
	Phy  *wireless.ReaderPhy
	App  *rfid.ReaderApp
	Mac  *rfid.ReaderMac
	Link *stack.LinkLayer
}

// BuildReader assembles a reader node: radio, application, MAC, and link
// layer, attached to the all-readers channel as sender and its regular
// channel as sender and listener.
func (s *Simulation) BuildReader(
	location stack.Location,
	id stack.NodeId,
	allReadersChannel int,
	regularChannel int,
) *ReaderStack {
	node := s.NewNode(location, id)

	phy := wireless.NewReaderPhy(node, s.channelManager)
	if !phy.SetAllSendersChannel(allReadersChannel) {
		log.Panic("the all-readers channel does not exist")
	}
	if !phy.SetRegularChannel(regularChannel) {
		log.Panic("the reader's regular channel does not exist")
	}

	app := rfid.NewReaderApp(node, phy.PhysicalLayer)
	mac := rfid.NewReaderMac(node, app)
	link := stack.NewLinkLayer(node, mac)

	app.InsertLowerLayer(link)
	link.InsertLowerLayer(phy.PhysicalLayer)

	s.logger.RecordUserDefined(s.engine.CurrentTime(), fmt.Sprintf(
		"Reader ID: %s Location: (%g, %g, %g)",
		id, location.X, location.Y, location.Z))

	return &ReaderStack{Node: node, Phy: phy, App: app, Mac: mac, Link: link}
}

// A TagStack bundles the layers of one tag node.
type TagStack struct {
	Node *stack.Node
	Phy  *wireless.TagPhy
	App  *rfid.TagApp
	Mac  *rfid.TagMac
	Link *stack.LinkLayer
}

// BuildTag assembles a tag node: radio, application, MAC, and link layer,
// listening on the all-readers channel. The tag's sending channel locks on
// dynamically when it hears a reader.
func (s *Simulation) BuildTag(
	location stack.Location,
	id stack.NodeId,
	allReadersChannel int,
) *TagStack {
	node := s.NewNode(location, id)

	phy := wireless.NewTagPhy(node, s.channelManager)
	if !phy.SetAllListenersChannel(allReadersChannel) {
		log.Panic("the all-readers channel does not exist")
	}

	app := rfid.NewTagApp(node)
	mac := rfid.NewTagMac(node, app, rng.New("tag-"+id.String()))
	link := stack.NewLinkLayer(node, mac)

	app.InsertLowerLayer(link)
	link.InsertLowerLayer(phy.PhysicalLayer)

	s.logger.RecordUserDefined(s.engine.CurrentTime(), fmt.Sprintf(
		"Tag ID: %s Location: (%g, %g, %g)",
		id, location.X, location.Y, location.Z))

	return &TagStack{Node: node, Phy: phy, App: app, Mac: mac, Link: link}
}

// RunUntil drives the simulation to the stop time and flushes the recorded
// statistics.
func (s *Simulation) RunUntil(stopTime sim.VTimeInSec) {
	s.engine.RunUntil(stopTime)

	if s.dataRecorder != nil {
		s.dataRecorder.Flush()
	}
}

// Terminate closes the simulation's statistics backend.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}
