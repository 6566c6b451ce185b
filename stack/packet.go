package stack

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/wisim/rfidsim/sim"
)

// LayerType classifies the layers of the network stack.
type LayerType int

// The layers of the stack, bottom up.
const (
	LayerPhysical LayerType = iota
	LayerLink
	LayerNetwork
	LayerTransport
	LayerApplication
)

func (t LayerType) String() string {
	switch t {
	case LayerPhysical:
		return "PHY"
	case LayerLink:
		return "LINK"
	case LayerNetwork:
		return "NET"
	case LayerTransport:
		return "TRAN"
	case LayerApplication:
		return "APP"
	}
	return "UNKNOWN"
}

// LayerData is a per-layer payload carried inside a packet.
type LayerData interface {
	SizeInBytes() int
	Clone() LayerData
}

const defaultPacketSizeInBytes = 512
const defaultDataRate = 1e6

var nextPacketID uint64

// A Packet is the unit of data exchanged between nodes. Each layer may attach
// its own payload; lower layers that are unaware of upper-layer formats use
// the destination field instead.
type Packet struct {
	uniqueID        uint64
	dataRate        float64
	txPower         float64
	forceMaxTxPower bool
	hasError        bool
	destination     NodeId
	data            map[LayerType]LayerData
}

// NewPacket creates an empty packet with a fresh unique id.
func NewPacket() *Packet {
	return &Packet{
		uniqueID: atomic.AddUint64(&nextPacketID, 1),
		dataRate: defaultDataRate,
		data:     make(map[LayerType]LayerData),
	}
}

// Clone produces a deep copy of the packet. The per-layer payload map is
// copied payload by payload; the unique id is preserved.
func (p *Packet) Clone() *Packet {
	c := &Packet{
		uniqueID:        p.uniqueID,
		dataRate:        p.dataRate,
		txPower:         p.txPower,
		forceMaxTxPower: p.forceMaxTxPower,
		hasError:        p.hasError,
		destination:     p.destination,
		data:            make(map[LayerType]LayerData, len(p.data)),
	}
	for t, d := range p.data {
		c.data[t] = d.Clone()
	}
	return c
}

// UniqueID returns the monotonically increasing id assigned at construction.
func (p *Packet) UniqueID() uint64 {
	return p.uniqueID
}

// SizeInBytes returns the sum of the present per-layer payload sizes, or the
// default size when the packet carries no payload.
func (p *Packet) SizeInBytes() int {
	if len(p.data) == 0 {
		return defaultPacketSizeInBytes
	}

	size := 0
	for _, d := range p.data {
		size += d.SizeInBytes()
	}
	return size
}

// SizeInBits returns the packet size in bits.
func (p *Packet) SizeInBits() int {
	return p.SizeInBytes() * 8
}

// DataRate returns the rate in bps at which the packet is sent.
func (p *Packet) DataRate() float64 {
	return p.dataRate
}

// SetDataRate sets the rate in bps at which the packet is sent.
func (p *Packet) SetDataRate(dataRate float64) {
	if dataRate <= 0 {
		log.Panic("packet data rate must be positive")
	}
	p.dataRate = dataRate
}

// Duration returns the airtime of the packet.
func (p *Packet) Duration() sim.VTimeInSec {
	return sim.VTimeInSec(float64(p.SizeInBits()) / p.dataRate)
}

// HasError reports whether the packet was received in error.
func (p *Packet) HasError() bool {
	return p.hasError
}

// SetHasError marks whether the packet was received in error.
func (p *Packet) SetHasError(hasError bool) {
	p.hasError = hasError
}

// AddData attaches a deep copy of the payload as the given layer's data.
func (p *Packet) AddData(t LayerType, d LayerData) {
	p.data[t] = d.Clone()
}

// Data returns the payload of the given layer, or nil when absent.
func (p *Packet) Data(t LayerType) LayerData {
	return p.data[t]
}

// RemoveData strips the payload of the given layer.
func (p *Packet) RemoveData(t LayerType) bool {
	if _, ok := p.data[t]; !ok {
		return false
	}
	delete(p.data, t)
	return true
}

// HasUpperLayerData reports whether any layer above t attached data to the
// packet.
func (p *Packet) HasUpperLayerData(t LayerType) bool {
	for u := t + 1; u <= LayerApplication; u++ {
		if _, ok := p.data[u]; ok {
			return true
		}
	}
	return false
}

// Destination returns the destination field of the packet.
func (p *Packet) Destination() NodeId {
	return p.destination
}

// SetDestination sets the destination field of the packet. The field does
// not count towards the packet size.
func (p *Packet) SetDestination(destination NodeId) {
	p.destination = destination
}

// TxPower returns the transmit power override, or zero if the layer's
// current power level should be used.
func (p *Packet) TxPower() float64 {
	return p.txPower
}

// SetTxPower sets the transmit power override. Zero means the layer's
// current power level is used. Superseded by ForceMaxTxPower.
func (p *Packet) SetTxPower(txPower float64) {
	if txPower < 0 {
		log.Panic("packet tx power must not be negative")
	}
	p.txPower = txPower
}

// ForceMaxTxPower reports whether the packet must be transmitted at the
// maximum power available, regardless of TxPower.
func (p *Packet) ForceMaxTxPower() bool {
	return p.forceMaxTxPower
}

// SetForceMaxTxPower marks the packet to be transmitted at maximum power.
func (p *Packet) SetForceMaxTxPower(forceMax bool) {
	p.forceMaxTxPower = forceMax
}

// String renders the packet state for traces.
func (p *Packet) String() string {
	power := fmt.Sprintf("txPower=%v", p.txPower)
	if p.forceMaxTxPower {
		power = "doMaxTxPower=true"
	}
	return fmt.Sprintf(
		"[ packet uniqueId=%d, sizeInBytes=%d, %s, dataRate=%v, hasError=%v ]",
		p.uniqueID, p.SizeInBytes(), power, p.dataRate, p.hasError)
}
