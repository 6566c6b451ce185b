package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedSizeData struct {
	size int
}

func (d *fixedSizeData) SizeInBytes() int {
	return d.size
}

func (d *fixedSizeData) Clone() LayerData {
	c := *d
	return &c
}

func TestPacketDefaultSize(t *testing.T) {
	pkt := NewPacket()

	assert.Equal(t, 512, pkt.SizeInBytes())
	assert.Equal(t, 4096, pkt.SizeInBits())
}

func TestPacketSizeSumsLayerData(t *testing.T) {
	pkt := NewPacket()
	pkt.AddData(LayerLink, &fixedSizeData{size: 18})
	pkt.AddData(LayerApplication, &fixedSizeData{size: 13})

	assert.Equal(t, 31, pkt.SizeInBytes())
}

func TestPacketDuration(t *testing.T) {
	pkt := NewPacket()
	pkt.AddData(LayerLink, &fixedSizeData{size: 16})
	pkt.SetDataRate(128e3)

	assert.InDelta(t, 16.0*8/128e3, float64(pkt.Duration()), 1e-12)
}

func TestPacketUniqueIDsIncrease(t *testing.T) {
	first := NewPacket()
	second := NewPacket()

	assert.Greater(t, second.UniqueID(), first.UniqueID())
}

func TestPacketCloneIsDeep(t *testing.T) {
	pkt := NewPacket()
	pkt.SetDestination(NewNodeId(7))
	pkt.SetTxPower(0.5)
	pkt.AddData(LayerLink, &fixedSizeData{size: 18})

	c := pkt.Clone()

	assert.Equal(t, pkt.UniqueID(), c.UniqueID())
	assert.Equal(t, pkt.SizeInBytes(), c.SizeInBytes())
	assert.True(t, c.Destination().Equal(NewNodeId(7)))

	c.Data(LayerLink).(*fixedSizeData).size = 99
	assert.Equal(t, 18, pkt.Data(LayerLink).(*fixedSizeData).size)
}

func TestPacketRemoveData(t *testing.T) {
	pkt := NewPacket()
	pkt.AddData(LayerLink, &fixedSizeData{size: 18})

	assert.True(t, pkt.RemoveData(LayerLink))
	assert.False(t, pkt.RemoveData(LayerLink))
	assert.Nil(t, pkt.Data(LayerLink))
}

func TestPacketHasUpperLayerData(t *testing.T) {
	pkt := NewPacket()
	pkt.AddData(LayerApplication, &fixedSizeData{size: 13})

	assert.True(t, pkt.HasUpperLayerData(LayerPhysical))
	assert.True(t, pkt.HasUpperLayerData(LayerLink))
	assert.True(t, pkt.HasUpperLayerData(LayerTransport))
	assert.False(t, pkt.HasUpperLayerData(LayerApplication))

	link := NewPacket()
	link.AddData(LayerLink, &fixedSizeData{size: 18})
	assert.True(t, link.HasUpperLayerData(LayerPhysical))
	assert.False(t, link.HasUpperLayerData(LayerLink))
}

func TestPacketTxPowerValidation(t *testing.T) {
	pkt := NewPacket()

	assert.Panics(t, func() { pkt.SetTxPower(-1) })
	assert.Panics(t, func() { pkt.SetDataRate(0) })
}
