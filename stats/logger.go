package stats

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

// StatEntry is the row shape of the persisted statistics table.
type StatEntry struct {
	Time  float64
	Node  string
	Key   string
	Value string
}

// PacketEntry is the row shape of the persisted packet-event table.
type PacketEntry struct {
	Time     float64
	Event    string
	Node     string
	Layer    string
	PacketId uint64
	Bytes    int
}

const (
	statsTableName   = "stats"
	packetsTableName = "packet_events"
)

// A Logger renders the simulator's event records as structured logrus lines
// and, when a DataRecorder is attached, persists statistics and packet
// events into its tables.
type Logger struct {
	log *logrus.Logger
	db  DataRecorder
}

// NewLogger creates a logger that writes to stderr at Info level.
func NewLogger() *Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return &Logger{log: l}
}

// SetOutput redirects the rendered log lines.
func (l *Logger) SetOutput(w io.Writer) {
	l.log.SetOutput(w)
}

// SetLevel adjusts the log level. Packet events render at Debug level.
func (l *Logger) SetLevel(level logrus.Level) {
	l.log.SetLevel(level)
}

// AttachDataRecorder persists future statistics and packet events into the
// recorder's tables.
func (l *Logger) AttachDataRecorder(db DataRecorder) {
	db.CreateTable(statsTableName, StatEntry{})
	db.CreateTable(packetsTableName, PacketEntry{})
	l.db = db
}

// RecordPacketSent logs a packet-sent event.
func (l *Logger) RecordPacketSent(
	now sim.VTimeInSec,
	node stack.NodeId,
	layer stack.LayerType,
	pkt *stack.Packet,
) {
	l.recordPacketEvent("packet-sent", now, node, layer, pkt)
}

// RecordPacketRecvd logs a packet-received event.
func (l *Logger) RecordPacketRecvd(
	now sim.VTimeInSec,
	node stack.NodeId,
	layer stack.LayerType,
	pkt *stack.Packet,
) {
	l.recordPacketEvent("packet-received", now, node, layer, pkt)
}

func (l *Logger) recordPacketEvent(
	event string,
	now sim.VTimeInSec,
	node stack.NodeId,
	layer stack.LayerType,
	pkt *stack.Packet,
) {
	l.log.WithFields(logrus.Fields{
		"event":  event,
		"time":   float64(now),
		"node":   node.String(),
		"layer":  layer.String(),
		"packet": pkt.String(),
	}).Debug(event)

	if l.db != nil {
		l.db.InsertData(packetsTableName, PacketEntry{
			Time:     float64(now),
			Event:    event,
			Node:     node.String(),
			Layer:    layer.String(),
			PacketId: pkt.UniqueID(),
			Bytes:    pkt.SizeInBytes(),
		})
	}
}

// RecordStat logs a statistics record.
func (l *Logger) RecordStat(
	now sim.VTimeInSec,
	node stack.NodeId,
	key, value string,
) {
	l.log.WithFields(logrus.Fields{
		"event": "stats",
		"time":  float64(now),
		"node":  node.String(),
		"key":   key,
		"value": value,
	}).Info("stats")

	if l.db != nil {
		l.db.InsertData(statsTableName, StatEntry{
			Time:  float64(now),
			Node:  node.String(),
			Key:   key,
			Value: value,
		})
	}
}

// RecordUserDefined logs a user-defined record.
func (l *Logger) RecordUserDefined(now sim.VTimeInSec, msg string) {
	l.log.WithFields(logrus.Fields{
		"event": "user-defined",
		"time":  float64(now),
	}).Info(msg)
}

// RecordDebug logs a debug record.
func (l *Logger) RecordDebug(now sim.VTimeInSec, msg string) {
	l.log.WithFields(logrus.Fields{
		"event": "debug",
		"time":  float64(now),
	}).Debug(msg)
}
