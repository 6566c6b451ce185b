package wireless

import (
	"log"

	"github.com/wisim/rfidsim/sim"
)

// The ChannelManager tracks which radios transmit and listen on which
// channels and routes every emitted signal to the listeners that can hear
// it.
type ChannelManager struct {
	engine sim.Engine

	channels  map[int]*Channel
	listeners map[*Channel][]*PhysicalLayer
	senders   map[*PhysicalLayer][]*Channel
}

// NewChannelManager creates a channel manager.
func NewChannelManager(engine sim.Engine) *ChannelManager {
	if engine == nil {
		log.Panic("channel manager requires an engine")
	}

	return &ChannelManager{
		engine:    engine,
		channels:  make(map[int]*Channel),
		listeners: make(map[*Channel][]*PhysicalLayer),
		senders:   make(map[*PhysicalLayer][]*Channel),
	}
}

// AddChannel registers the channel under the given id, replacing any channel
// already registered with that id.
func (m *ChannelManager) AddChannel(channelId int, channel *Channel) {
	if channel == nil {
		log.Panic("cannot add a nil channel")
	}
	m.channels[channelId] = channel
}

// RemoveChannel removes the channel with the given id.
func (m *ChannelManager) RemoveChannel(channelId int) bool {
	if _, found := m.channels[channelId]; !found {
		return false
	}
	delete(m.channels, channelId)
	return true
}

// AttachAsSender adds the radio as a sender on the channel.
func (m *ChannelManager) AttachAsSender(
	phy *PhysicalLayer,
	channelId int,
) bool {
	channel, found := m.channels[channelId]
	if !found {
		return false
	}

	m.senders[phy] = append(m.senders[phy], channel)
	return true
}

// DetachAsSender removes one attachment of the radio as a sender on the
// channel.
func (m *ChannelManager) DetachAsSender(
	phy *PhysicalLayer,
	channelId int,
) bool {
	channel, found := m.channels[channelId]
	if !found {
		return false
	}

	for i, c := range m.senders[phy] {
		if c == channel {
			m.senders[phy] = append(
				m.senders[phy][:i], m.senders[phy][i+1:]...)
			return true
		}
	}
	return false
}

// AttachAsListener adds the radio as a listener of the channel.
func (m *ChannelManager) AttachAsListener(
	phy *PhysicalLayer,
	channelId int,
) bool {
	channel, found := m.channels[channelId]
	if !found {
		return false
	}

	m.listeners[channel] = append(m.listeners[channel], phy)
	return true
}

// DetachAsListener removes one attachment of the radio as a listener of the
// channel.
func (m *ChannelManager) DetachAsListener(
	phy *PhysicalLayer,
	channelId int,
) bool {
	channel, found := m.channels[channelId]
	if !found {
		return false
	}

	for i, listener := range m.listeners[channel] {
		if listener == phy {
			m.listeners[channel] = append(
				m.listeners[channel][:i], m.listeners[channel][i+1:]...)
			return true
		}
	}
	return false
}

// channelId reverse-looks-up the id of a channel. The channel must be
// registered exactly once.
func (m *ChannelManager) channelId(channel *Channel) int {
	found := false
	id := 0
	for candidateId, candidate := range m.channels {
		if candidate == channel {
			if found {
				log.Panic("channel registered under two ids")
			}
			found = true
			id = candidateId
		}
	}
	if !found {
		log.Panic("channel is not registered")
	}
	return id
}

// RecvSignal places a signal emitted by the sender on every channel the
// sender transmits on.
func (m *ChannelManager) RecvSignal(sender *PhysicalLayer, sig *CommSignal) {
	if sender == nil || sig == nil {
		log.Panic("recv signal requires a sender and a signal")
	}

	for _, channel := range m.senders[sender] {
		m.sendSignalOnChannel(sender, sig, channel)
	}
}

// sendSignalOnChannel computes the received strength of the signal for every
// listener of the channel, updates the listeners' interference bookkeeping,
// and schedules the end of the signal at each listener.
func (m *ChannelManager) sendSignalOnChannel(
	sender *PhysicalLayer,
	sig *CommSignal,
	channel *Channel,
) {
	// Let receivers know on which channel the signal travels.
	sig.SetChannelId(m.channelId(channel))

	for _, listener := range m.listeners[channel] {
		if listener == sender {
			continue
		}

		signalStrength := channel.RecvdStrength(sig, listener)

		// If the signal is strong enough, it becomes the packet this
		// radio will receive. Capture is evaluated before the signal
		// joins the cumulative interference.
		if listener.CaptureSignal(signalStrength) {
			listener.SetPendingSignal(sig)
		}

		listener.AddSignal(sig, signalStrength)

		// A previously pending signal may have become too weak now
		// that this signal interferes. If the arriving signal is the
		// pending one, the capture test above already decided.
		if sig != listener.PendingSignal() &&
			listener.PendingSignalIsWeak() {
			listener.ResetPendingSignal()
		}

		// Following the Qualnet model, the packet error probability is
		// re-evaluated at every interference change; errors latch.
		if listener.PendingSignal() != nil &&
			!listener.PendingSignalError() {
			listener.SetPendingSignalError(
				channel.SignalHasError(
					listener.PendingSignalSinr(),
					listener.PendingSignal()))
		}

		evt := &signalEndEvent{
			EventBase: sim.NewEventBase(),
			manager:   m,
			receiver:  listener,
			sig:       sig,
		}
		recvTime := sig.Duration() +
			channel.PropagationDelay(sender, listener)
		m.engine.Schedule(evt, recvTime)
	}
}

// passSignalToReceiver finalizes a signal at a receiver: the captured signal
// is delivered upward as a deep copy, and the signal leaves the interference
// set unconditionally.
func (m *ChannelManager) passSignalToReceiver(
	receiver *PhysicalLayer,
	sig *CommSignal,
) {
	if sig == receiver.PendingSignal() {
		deepCopy := sig.Clone()
		recvdSignalStrength := receiver.PendingSignalStrength()
		receiver.RecvPendingSignal(deepCopy, recvdSignalStrength)
		receiver.ResetPendingSignal()
	}

	receiver.RemoveSignal(sig)
}

// signalEndEvent fires when a signal finishes arriving at one receiver.
type signalEndEvent struct {
	*sim.EventBase

	manager  *ChannelManager
	receiver *PhysicalLayer
	sig      *CommSignal
}

func (e *signalEndEvent) Execute() {
	e.manager.passSignalToReceiver(e.receiver, e.sig)
}
