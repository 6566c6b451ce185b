package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeIdByteArrayRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xFF, 0x1234, 0xFFFFFF, 1460502, 1 << 40}

	for _, v := range values {
		id := NewNodeId(v)

		buf := make([]byte, 12)
		id.WriteToBytes(buf)

		assert.True(t, NodeIdFromBytes(buf).Equal(id),
			"value %d should round-trip", v)
	}
}

func TestNodeIdRoundTripNarrowArray(t *testing.T) {
	id := NewNodeId(0x00C0FFEE)

	buf := make([]byte, 4)
	id.WriteToBytes(buf)

	assert.True(t, NodeIdFromBytes(buf).Equal(id))
}

func TestNodeIdBroadcastRoundTrip(t *testing.T) {
	buf := make([]byte, 12)
	BroadcastId.WriteToBytes(buf)

	for _, b := range buf {
		assert.Equal(t, byte(0xFF), b)
	}

	assert.True(t, NodeIdFromBytes(buf).IsBroadcast())
}

func TestNodeIdOrdering(t *testing.T) {
	a := NewNodeId(1)
	b := NewNodeId(2)

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
	assert.True(t, a.Less(BroadcastId))
}

func TestNodeIdString(t *testing.T) {
	assert.Equal(t, "42", NewNodeId(42).String())
	assert.Equal(t, "BROADCAST", BroadcastId.String())
}

func TestLocationDistance(t *testing.T) {
	a := NewLocation(0, 0, 0)
	b := NewLocation(3, 4, 0)

	assert.InDelta(t, 5.0, Distance(a, b), 1e-12)
	assert.InDelta(t, 0.0, Distance(a, a), 1e-12)
}
