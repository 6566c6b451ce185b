package wireless

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

func TestSignalDeliveredToCapturedListener(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	manager.AddChannel(0, NewChannel(NewFreeSpace()))

	sender := newTestPhy(t, engine, manager, stack.NewLocation(0, 0, 0), 1)
	manager.AttachAsSender(sender, 0)

	listener := newTestPhy(t, engine, manager, stack.NewLocation(1, 0, 0), 2)
	sink := attachSink(listener)
	manager.AttachAsListener(listener, 0)

	pkt := stack.NewPacket()
	sender.RecvFromLayer(stack.DirectionUpper, pkt, 0)

	engine.RunUntil(10.0)

	if assert.Len(t, sink.received, 1) {
		delivered := sink.received[0]
		// Listener receives a deep copy of the packet, error free.
		assert.NotSame(t, pkt, delivered)
		assert.Equal(t, pkt.UniqueID(), delivered.UniqueID())
		assert.False(t, delivered.HasError())
	}

	// After the signal end, the interference set is empty again.
	assert.InDelta(t, 0.0, listener.CumulativeSignalStrength(), 1e-20)
	assert.Nil(t, listener.PendingSignal())
}

func TestSenderDoesNotHearItself(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	manager.AddChannel(0, NewChannel(NewFreeSpace()))

	sender := newTestPhy(t, engine, manager, stack.NewLocation(0, 0, 0), 1)
	sink := attachSink(sender)
	manager.AttachAsSender(sender, 0)
	manager.AttachAsListener(sender, 0)

	sender.RecvFromLayer(stack.DirectionUpper, stack.NewPacket(), 0)
	engine.RunUntil(10.0)

	assert.Empty(t, sink.received)
}

func TestSignalCarriesChannelId(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	manager.AddChannel(7, NewChannel(NewFreeSpace()))

	sender := newTestPhy(t, engine, manager, stack.NewLocation(0, 0, 0), 1)
	manager.AttachAsSender(sender, 7)

	listener := newTestPhy(t, engine, manager, stack.NewLocation(1, 0, 0), 2)
	attachSink(listener)
	manager.AttachAsListener(listener, 7)

	var seenChannel int
	listener.onErrorFreeSignal = func(sig *CommSignal, _ float64) {
		seenChannel = sig.ChannelId()
	}

	sender.RecvFromLayer(stack.DirectionUpper, stack.NewPacket(), 0)
	engine.RunUntil(10.0)

	assert.Equal(t, 7, seenChannel)
}

func TestCollidingSignalDisplacesWeakPending(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	manager.AddChannel(0, NewChannel(NewFreeSpace()))

	near := newTestPhy(t, engine, manager, stack.NewLocation(0, 0, 0), 1)
	manager.AttachAsSender(near, 0)

	far := newTestPhy(t, engine, manager, stack.NewLocation(100, 0, 0), 2)
	manager.AttachAsSender(far, 0)

	listener := newTestPhy(t, engine, manager, stack.NewLocation(1, 0, 0), 3)
	listener.SetRxThreshold(1e-6)
	sink := attachSink(listener)
	manager.AttachAsListener(listener, 0)

	farPkt := stack.NewPacket()
	nearPkt := stack.NewPacket()

	// The far signal arrives first and is captured; the near, much
	// stronger signal starts shortly after and destroys its SINR.
	far.SetCurrentTxPower(500.0)
	far.RecvFromLayer(stack.DirectionUpper, farPkt, 0)

	engine.Schedule(sim.NewFuncEvent(func() {
		near.RecvFromLayer(stack.DirectionUpper, nearPkt, 0)
	}), farPkt.Duration()/4)

	engine.RunUntil(10.0)

	// Only the near packet survives; its capture replaced the far packet
	// as the pending signal.
	if assert.Len(t, sink.received, 1) {
		assert.Equal(t, nearPkt.UniqueID(), sink.received[0].UniqueID())
	}
}

func TestAttachDetachBookkeeping(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	manager.AddChannel(0, NewChannel(NewFreeSpace()))

	phy := newTestPhy(t, engine, manager, stack.NewLocation(0, 0, 0), 1)

	assert.False(t, manager.AttachAsSender(phy, 99))
	assert.False(t, manager.AttachAsListener(phy, 99))

	assert.True(t, manager.AttachAsSender(phy, 0))
	assert.True(t, manager.AttachAsListener(phy, 0))

	assert.True(t, manager.DetachAsSender(phy, 0))
	assert.False(t, manager.DetachAsSender(phy, 0))
	assert.True(t, manager.DetachAsListener(phy, 0))
	assert.False(t, manager.DetachAsListener(phy, 0))

	assert.True(t, manager.RemoveChannel(0))
	assert.False(t, manager.RemoveChannel(0))
}

func TestTagPhyReflectsReaderSignal(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	manager.AddChannel(0, NewChannel(NewFreeSpace()))
	manager.AddChannel(1, NewChannel(NewFreeSpace()))

	readerNode := stack.NewNode(engine,
		stack.NewLocation(0, 0, 0), stack.NewNodeId(1))
	reader := NewReaderPhy(readerNode, manager)
	attachSink(reader.PhysicalLayer)
	reader.SetAllSendersChannel(0)
	reader.SetRegularChannel(1)

	tagNode := stack.NewNode(engine,
		stack.NewLocation(1, 0, 0), stack.NewNodeId(2))
	tag := NewTagPhy(tagNode, manager)
	tagSink := attachSink(tag.PhysicalLayer)
	tag.SetAllListenersChannel(0)

	reader.RecvFromLayer(stack.DirectionUpper, stack.NewPacket(), 0)
	engine.RunUntil(10.0)

	// The tag heard the reader on the all-readers channel.
	assert.Len(t, tagSink.received, 1)

	// The tag locked onto the reader's regular channel: the signal's
	// channel id is stamped per channel in the sender's attach order,
	// and the regular channel comes last.
	assert.True(t, tag.sendingChannelIsValid)
	assert.Equal(t, 1, tag.sendingChannel)
	assert.Less(t, tag.CurrentTxPower(), 1e-2)
	assert.Greater(t, tag.CurrentTxPower(), 0.0)
}
