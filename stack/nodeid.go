package stack

import (
	"log"
	"math"
	"strconv"
)

// A NodeId identifies a node. Tag identifiers are up to 96 bits wide, so the
// value is held as a 64-bit low word and a 32-bit high word. Equality and
// ordering are by numeric value.
type NodeId struct {
	lo uint64
	hi uint32
}

// BroadcastId is the sentinel destination that addresses every node.
var BroadcastId = NodeId{lo: math.MaxUint64, hi: math.MaxUint32}

// NewNodeId creates an id from a numeric value.
func NewNodeId(value uint64) NodeId {
	return NodeId{lo: value}
}

// NodeIdFromBytes builds an id from a little-endian byte array. The zero-th
// element is the least significant byte.
func NodeIdFromBytes(byteArray []byte) NodeId {
	var id NodeId
	for i, b := range byteArray {
		switch {
		case i < 8:
			id.lo |= uint64(b) << (8 * i)
		case i < 12:
			id.hi |= uint32(b) << (8 * (i - 8))
		default:
			if b != 0 {
				log.Panic("node id wider than 96 bits")
			}
		}
	}
	return id
}

// WriteToBytes writes the id to the byte array, least significant byte
// first, zero-filling the remainder. The id must fit in the array.
func (id NodeId) WriteToBytes(byteArray []byte) {
	for i := range byteArray {
		byteArray[i] = 0
	}

	lo := id.lo
	hi := id.hi

	// The broadcast sentinel narrows to the all-ones pattern of the
	// array's width.
	if id == BroadcastId {
		for i := range byteArray {
			byteArray[i] = 0xFF
		}
		return
	}

	i := 0
	for lo > 0 {
		if i >= len(byteArray) {
			log.Panic("node id does not fit the byte array")
		}
		byteArray[i] = byte(lo & 0xFF)
		lo >>= 8
		i++
	}
	i = 8
	for hi > 0 {
		if i >= len(byteArray) {
			log.Panic("node id does not fit the byte array")
		}
		byteArray[i] = byte(hi & 0xFF)
		hi >>= 8
		i++
	}
}

// IsBroadcast reports whether the id is the broadcast sentinel, in either
// its full-width or a narrowed byte-array form.
func (id NodeId) IsBroadcast() bool {
	if id == BroadcastId {
		return true
	}

	// An id read back from an all-ones byte array narrower than 12 bytes
	// still means broadcast.
	switch {
	case id.hi == 0 && id.lo == math.MaxUint32:
		return true
	case id.hi == 0 && id.lo == math.MaxUint64:
		return true
	case id.hi == math.MaxUint32 && id.lo == math.MaxUint64:
		return true
	}
	return false
}

// Equal reports whether two ids have the same numeric value.
func (id NodeId) Equal(rhs NodeId) bool {
	return id.lo == rhs.lo && id.hi == rhs.hi
}

// Less orders ids by numeric value.
func (id NodeId) Less(rhs NodeId) bool {
	if id.hi != rhs.hi {
		return id.hi < rhs.hi
	}
	return id.lo < rhs.lo
}

// String renders the id for traces.
func (id NodeId) String() string {
	if id.IsBroadcast() {
		return "BROADCAST"
	}
	if id.hi == 0 {
		return strconv.FormatUint(id.lo, 10)
	}
	return "0x" + strconv.FormatUint(uint64(id.hi), 16) +
		leftPadHex(strconv.FormatUint(id.lo, 16))
}

func leftPadHex(s string) string {
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
