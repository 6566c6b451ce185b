package wireless

import (
	"fmt"
	"log"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// Radio defaults. The power values follow published reader and tag numbers:
// 30 dBm reader output, 100 to 400 microwatt received power for commercial
// tags, the ns-2 CS/RX ratio and capture threshold, the Qualnet minimum
// signal strength, and EPCglobal rates and spectrum.
const (
	defaultTxPower               = 1.0
	defaultMaxTxPower            = 1.0
	defaultRxThreshold           = 100e-6
	defaultCsThreshold           = 5e-6
	defaultCaptureThreshold      = 10
	defaultMinimumSignalStrength = 7.94e-12
	defaultPhyDataRate           = 128e3
	defaultBandwidth             = 960e6

	radioTemperature   = 290
	radioNoiseFactor   = 10
	boltzmannsConstant = 1.3806503e-23

	physicalQueueLength = 1
)

// The PhysicalLayer is the radio of a node: it turns packets into signals on
// the way down and tracks every signal currently in the air at this receiver
// on the way up.
type PhysicalLayer struct {
	*stack.LayerBase

	manager *ChannelManager

	currentTxPower        float64
	maxTxPower            float64
	rxThreshold           float64
	csThreshold           float64
	captureThreshold      float64
	minimumSignalStrength float64
	dataRate              float64
	bandwidth             float64

	pendingRecvSignalError bool
	signalStrengths        map[*CommSignal]float64
	pendingRecvSignal      *CommSignal

	signalSendingDelay sim.VTimeInSec
	transmittingTimer  *sim.Timer

	// onErrorFreeSignal runs just before an error-free packet is passed
	// upward. The tag radio uses it to lock onto the sender's channel and
	// reflect the received power.
	onErrorFreeSignal func(sig *CommSignal, recvdSignalStrength float64)
}

// NewPhysicalLayer creates a radio attached to the given channel manager.
func NewPhysicalLayer(
	node *stack.Node,
	manager *ChannelManager,
) *PhysicalLayer {
	if manager == nil {
		log.Panic("physical layer requires a channel manager")
	}

	p := new(PhysicalLayer)
	p.LayerBase = stack.NewLayerBase(p, node)
	p.manager = manager
	p.currentTxPower = defaultTxPower
	p.maxTxPower = defaultMaxTxPower
	p.rxThreshold = defaultRxThreshold
	p.csThreshold = defaultCsThreshold
	p.captureThreshold = defaultCaptureThreshold
	p.minimumSignalStrength = defaultMinimumSignalStrength
	p.dataRate = defaultPhyDataRate
	p.bandwidth = defaultBandwidth
	p.signalStrengths = make(map[*CommSignal]float64)
	p.transmittingTimer = sim.NewTimer(node.Engine(), sim.NewNoOpEvent())
	p.SetMaxQueueLength(physicalQueueLength)

	return p
}

// LayerType returns stack.LayerPhysical.
func (p *PhysicalLayer) LayerType() stack.LayerType {
	return stack.LayerPhysical
}

// RecvFromLayer accepts a packet from the link layer, wraps it in a signal
// at the chosen transmit power, and sends it on the medium. The physical
// layer has no lower communication layer; its lower neighbor is a channel.
func (p *PhysicalLayer) RecvFromLayer(
	direction stack.Direction,
	pkt *stack.Packet,
	_ int,
) bool {
	if direction != stack.DirectionUpper {
		log.Panic("physical layer can only receive from above")
	}

	pkt.SetDataRate(p.dataRate)

	signalTxPower := p.currentTxPower
	if pkt.ForceMaxTxPower() {
		signalTxPower = p.maxTxPower
	} else if pkt.TxPower() > 0 {
		signalTxPower = pkt.TxPower()
	}

	p.Node().Recorder().RecordDebug(p.Node().CurrentTime(),
		fmt.Sprintf("phy %s txPower: %v", p.NodeId(), signalTxPower))

	sig := NewCommSignal(
		p.Location(),
		PowerToDecibels(signalTxPower),
		p.Wavelength(),
		p.Gain(),
		pkt,
	)

	return p.SendSignal(sig)
}

// SendSignal schedules the signal to reach the channel manager after the
// signal sending delay.
func (p *PhysicalLayer) SendSignal(sig *CommSignal) bool {
	evt := &signalSendEvent{
		EventBase: sim.NewEventBase(),
		sender:    p,
		sig:       sig,
	}
	p.Node().ScheduleEvent(evt, p.signalSendingDelay)
	return true
}

// signalSendEvent places a signal on the sender's channels.
type signalSendEvent struct {
	*sim.EventBase

	sender *PhysicalLayer
	sig    *CommSignal
}

func (e *signalSendEvent) Execute() {
	p := e.sender
	p.Node().Recorder().RecordPacketSent(p.Node().CurrentTime(),
		p.NodeId(), p.LayerType(), e.sig.Packet())

	if p.transmittingTimer.IsRunning() {
		log.Panic("physical layer is already transmitting")
	}
	p.transmittingTimer.Reschedule(e.sig.Duration())

	p.manager.RecvSignal(p, e.sig)
}

// IsTransmitting reports whether a signal of this layer is on the air.
func (p *PhysicalLayer) IsTransmitting() bool {
	return p.transmittingTimer.IsRunning()
}

// RecvPendingSignal handles the successfully received signal. The caller
// passes a deep copy since the packet is modified locally. Erroneous packets
// are not forwarded upward.
func (p *PhysicalLayer) RecvPendingSignal(
	sig *CommSignal,
	recvdSignalStrength float64,
) bool {
	pkt := sig.Packet()
	pkt.SetHasError(p.pendingRecvSignalError)
	p.Node().Recorder().RecordPacketRecvd(p.Node().CurrentTime(),
		p.NodeId(), p.LayerType(), pkt)

	if pkt.HasError() {
		return true
	}

	if p.onErrorFreeSignal != nil {
		p.onErrorFreeSignal(sig, recvdSignalStrength)
	}

	return p.SendToLayer(stack.DirectionUpper, pkt)
}

// AddSignal records a signal currently being received and its strength at
// this receiver. Signals at or below the minimum strength blend into the
// thermal noise and are not tracked.
func (p *PhysicalLayer) AddSignal(sig *CommSignal, signalStrength float64) {
	if signalStrength > p.minimumSignalStrength {
		p.signalStrengths[sig] = signalStrength
	}
}

// RemoveSignal removes a signal from the interference set.
func (p *PhysicalLayer) RemoveSignal(sig *CommSignal) {
	delete(p.signalStrengths, sig)
}

// CumulativeSignalStrength sums the strengths of all signals currently being
// received by this radio.
func (p *PhysicalLayer) CumulativeSignalStrength() float64 {
	cumulative := 0.0
	for _, strength := range p.signalStrengths {
		cumulative += strength
	}
	return cumulative
}

// NoiseFloor returns the thermal noise floor of the radio in watts.
func (p *PhysicalLayer) NoiseFloor() float64 {
	return radioNoiseFactor * boltzmannsConstant * radioTemperature *
		p.bandwidth
}

// CaptureSignal determines whether a signal of the given strength would be
// captured at this radio. The signal must not yet be in the interference
// set. The strength must strictly exceed the receive threshold and its SINR
// against the current interference and noise must strictly exceed the
// capture threshold.
func (p *PhysicalLayer) CaptureSignal(signalStrength float64) bool {
	if signalStrength <= p.rxThreshold {
		return false
	}

	interferenceFloor := p.CumulativeSignalStrength() + p.NoiseFloor()
	sinr := signalStrength / interferenceFloor
	return sinr > p.captureThreshold
}

// SetPendingSignal selects the signal that would be received if it were to
// end right now.
func (p *PhysicalLayer) SetPendingSignal(sig *CommSignal) {
	if sig == nil {
		log.Panic("pending signal cannot be nil")
	}
	p.pendingRecvSignal = sig
}

// PendingSignal returns the signal that would be received if it were to end
// right now, or nil.
func (p *PhysicalLayer) PendingSignal() *CommSignal {
	return p.pendingRecvSignal
}

// PendingSignalStrength returns the strength of the pending signal at this
// receiver, or zero when there is none. A pending signal must be a member of
// the interference set.
func (p *PhysicalLayer) PendingSignalStrength() float64 {
	if p.pendingRecvSignal == nil {
		return 0
	}

	strength, found := p.signalStrengths[p.pendingRecvSignal]
	if !found {
		log.Panic("pending signal is not in the interference set")
	}
	return strength
}

// PendingSignalSinr returns the SINR of the pending signal. Unlike
// CaptureSignal, the pending signal's own strength is already part of the
// cumulative strength and is subtracted from the interference floor.
func (p *PhysicalLayer) PendingSignalSinr() float64 {
	if p.pendingRecvSignal == nil {
		return 0
	}

	pendingStrength := p.PendingSignalStrength()
	interferenceFloor := (p.CumulativeSignalStrength() - pendingStrength) +
		p.NoiseFloor()
	return pendingStrength / interferenceFloor
}

// PendingSignalIsWeak reports whether the currently pending signal is now
// too weak to be captured, or there is no pending signal.
func (p *PhysicalLayer) PendingSignalIsWeak() bool {
	isWeak := p.PendingSignalStrength() <= p.rxThreshold
	if p.pendingRecvSignal != nil {
		isWeak = isWeak || p.PendingSignalSinr() <= p.captureThreshold
	}
	return isWeak
}

// PendingSignalError reports whether the pending signal will have an error
// upon reception.
func (p *PhysicalLayer) PendingSignalError() bool {
	return p.pendingRecvSignalError
}

// SetPendingSignalError marks whether the pending signal will have an error
// upon reception.
func (p *PhysicalLayer) SetPendingSignalError(hasError bool) {
	p.pendingRecvSignalError = hasError
}

// ResetPendingSignal clears the pending signal and its error flag.
func (p *PhysicalLayer) ResetPendingSignal() {
	p.pendingRecvSignalError = false
	p.pendingRecvSignal = nil
}

// ResetRecvSignals clears the pending signal and the whole interference set.
func (p *PhysicalLayer) ResetRecvSignals() {
	p.ResetPendingSignal()
	p.signalStrengths = make(map[*CommSignal]float64)
}

// ChannelCarrierSensedBusy reports whether the cumulative received strength
// exceeds the carrier sense threshold.
func (p *PhysicalLayer) ChannelCarrierSensedBusy() bool {
	return p.CumulativeSignalStrength() > p.csThreshold
}

// Location returns the geographic location of this radio.
func (p *PhysicalLayer) Location() stack.Location {
	return p.Node().Location()
}

// Gain returns the antenna gain.
func (p *PhysicalLayer) Gain() float64 {
	return 1.0
}

// Wavelength returns the wavelength implied by the current bandwidth.
func (p *PhysicalLayer) Wavelength() float64 {
	return SpeedOfLight / p.bandwidth
}

// SetSignalSendingDelay sets the delay from handing a signal to this layer
// until it reaches the channel.
func (p *PhysicalLayer) SetSignalSendingDelay(delay sim.VTimeInSec) {
	p.signalSendingDelay = delay
}

// SignalSendingDelay returns the delay before signals reach the channel.
func (p *PhysicalLayer) SignalSendingDelay() sim.VTimeInSec {
	return p.signalSendingDelay
}

// SetCurrentTxPower sets the transmit power in watts.
func (p *PhysicalLayer) SetCurrentTxPower(txPower float64) {
	if txPower <= 0 {
		log.Panic("tx power must be positive")
	}
	p.currentTxPower = txPower
}

// CurrentTxPower returns the transmit power in watts.
func (p *PhysicalLayer) CurrentTxPower() float64 {
	return p.currentTxPower
}

// SetMaxTxPower sets the maximum transmit power. The current power is capped
// to the new maximum.
func (p *PhysicalLayer) SetMaxTxPower(txPower float64) {
	if txPower <= 0 {
		log.Panic("max tx power must be positive")
	}
	p.maxTxPower = txPower
	if p.currentTxPower > p.maxTxPower {
		p.currentTxPower = p.maxTxPower
	}
}

// MaxTxPower returns the maximum transmit power in watts.
func (p *PhysicalLayer) MaxTxPower() float64 {
	return p.maxTxPower
}

// SetRxThreshold sets the power threshold for receiving a packet.
func (p *PhysicalLayer) SetRxThreshold(rxThreshold float64) {
	if rxThreshold <= 0 {
		log.Panic("rx threshold must be positive")
	}
	p.rxThreshold = rxThreshold
}

// RxThreshold returns the power threshold for receiving a packet.
func (p *PhysicalLayer) RxThreshold() float64 {
	return p.rxThreshold
}

// SetCsThreshold sets the power threshold for carrier sensing busy.
func (p *PhysicalLayer) SetCsThreshold(csThreshold float64) {
	if csThreshold <= 0 {
		log.Panic("cs threshold must be positive")
	}
	p.csThreshold = csThreshold
}

// CsThreshold returns the power threshold for carrier sensing busy.
func (p *PhysicalLayer) CsThreshold() float64 {
	return p.csThreshold
}

// SetCaptureThreshold sets the SINR ratio required for capture.
func (p *PhysicalLayer) SetCaptureThreshold(captureThreshold float64) {
	if captureThreshold <= 0 {
		log.Panic("capture threshold must be positive")
	}
	p.captureThreshold = captureThreshold
}

// CaptureThreshold returns the SINR ratio required for capture.
func (p *PhysicalLayer) CaptureThreshold() float64 {
	return p.captureThreshold
}

// SetMinimumSignalStrength sets the floor under which signals are absorbed
// into the thermal noise.
func (p *PhysicalLayer) SetMinimumSignalStrength(minimum float64) {
	if minimum <= 0 {
		log.Panic("minimum signal strength must be positive")
	}
	p.minimumSignalStrength = minimum
}

// MinimumSignalStrength returns the floor under which signals are absorbed
// into the thermal noise.
func (p *PhysicalLayer) MinimumSignalStrength() float64 {
	return p.minimumSignalStrength
}

// SetDataRate sets the radio data rate in bps.
func (p *PhysicalLayer) SetDataRate(dataRate float64) {
	if dataRate <= 0 {
		log.Panic("data rate must be positive")
	}
	p.dataRate = dataRate
}

// DataRate returns the radio data rate in bps.
func (p *PhysicalLayer) DataRate() float64 {
	return p.dataRate
}

// SetBandwidth sets the radio bandwidth in Hz.
func (p *PhysicalLayer) SetBandwidth(bandwidth float64) {
	if bandwidth <= 0 {
		log.Panic("bandwidth must be positive")
	}
	p.bandwidth = bandwidth
}

// Bandwidth returns the radio bandwidth in Hz.
func (p *PhysicalLayer) Bandwidth() float64 {
	return p.bandwidth
}
