package rfid

import (
	"fmt"
	"log"
	"math"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
	"github.com/wisim/rfidsim/wireless"
)

// Statistics keys emitted by the reader application.
const (
	tagsReadCountKey           = "tagsReadCount"
	tagsReadCountAtLevelPrefix = "tagsReadCountAtLevel_"
	avgTagReadProcessLatency   = "avgTagReadProcessLatency"
	lastTagReadLatencyKey      = "lastTagReadLatency"
	tagReadProcessLatencyKey   = "tagReadProcessLatency"
	tagReadIdKey               = "tagReadId"
	tagReadPowerLevelKey       = "tagReadPowerLevel"
	tagReadTimeKey             = "tagReadTime"
)

const (
	defaultReadPeriod            = 60.0
	defaultNumPowerControlLevels = 1
)

// ReadTagData records one tag reception at the reader application.
type ReadTagData struct {
	tagId        stack.NodeId
	timeRead     sim.VTimeInSec
	timeReadSent sim.VTimeInSec
}

// TagId returns the id of the tag read.
func (d ReadTagData) TagId() stack.NodeId {
	return d.tagId
}

// TimeRead returns the time the identity arrived.
func (d ReadTagData) TimeRead() sim.VTimeInSec {
	return d.timeRead
}

// TimeReadSent returns the time the READ that triggered the identity was
// sent.
func (d ReadTagData) TimeReadSent() sim.VTimeInSec {
	return d.timeReadSent
}

// ReadLatency returns the time from the READ to the identity's arrival.
func (d ReadTagData) ReadLatency() sim.VTimeInSec {
	return d.timeRead - d.timeReadSent
}

type readAtLevel struct {
	level int
	data  ReadTagData
}

// The ReaderApp issues read cycles and records which tags it heard at which
// power level. The sweep starts at the lowest level and ramps quadratically
// to the radio's maximum, matching the inverse-square path loss.
type ReaderApp struct {
	*stack.ApplicationLayerBase

	physicalLayer *wireless.PhysicalLayer

	readTimer       *sim.Timer
	readPeriod      sim.VTimeInSec
	doRepeatedReads bool
	doReset         bool

	numPowerControlLevels int
	maxTxPower            float64
	currentTxPowerLevel   int

	firstReadSentTime    sim.VTimeInSec
	previousReadSentTime sim.VTimeInSec

	readTags   []readAtLevel
	lastRead   readAtLevel
	readTagIds map[stack.NodeId]bool
}

// NewReaderApp creates the application of an RFID reader.
func NewReaderApp(
	node *stack.Node,
	physicalLayer *wireless.PhysicalLayer,
) *ReaderApp {
	if physicalLayer == nil {
		log.Panic("reader app requires the reader's physical layer")
	}

	a := new(ReaderApp)
	a.ApplicationLayerBase = stack.NewApplicationLayerBase(a, node)
	a.physicalLayer = physicalLayer
	a.readPeriod = defaultReadPeriod
	a.doReset = true
	a.numPowerControlLevels = defaultNumPowerControlLevels
	a.currentTxPowerLevel = defaultNumPowerControlLevels
	a.readTagIds = make(map[stack.NodeId]bool)

	a.readTimer = sim.NewTimer(node.Engine(),
		sim.NewFuncEvent(a.doReadProcess))

	node.Engine().RegisterSimulationEndHandler(a)

	return a
}

// SetReadPeriod sets the period of repeated reads.
func (a *ReaderApp) SetReadPeriod(readPeriod sim.VTimeInSec) {
	a.readPeriod = readPeriod
}

// ReadPeriod returns the period of repeated reads.
func (a *ReaderApp) ReadPeriod() sim.VTimeInSec {
	return a.readPeriod
}

// SetDoRepeatedReads switches between one-shot and repeated reads.
func (a *ReaderApp) SetDoRepeatedReads(doRepeatedReads bool) {
	a.doRepeatedReads = doRepeatedReads
}

// DoRepeatedReads reports whether reads repeat.
func (a *ReaderApp) DoRepeatedReads() bool {
	return a.doRepeatedReads
}

// SetDoReset controls whether a RESET broadcast precedes each read process.
func (a *ReaderApp) SetDoReset(doReset bool) {
	a.doReset = doReset
}

// DoReset reports whether a RESET broadcast precedes each read process.
func (a *ReaderApp) DoReset() bool {
	return a.doReset
}

// SetNumPowerControlLevels sets how many transmit power levels the sweep
// uses. The reader starts at the lowest level and raises it after each
// finished cycle until it reaches the radio's maximum.
func (a *ReaderApp) SetNumPowerControlLevels(numLevels int) {
	if numLevels <= 0 {
		log.Panic("the sweep needs at least one power level")
	}
	a.numPowerControlLevels = numLevels
}

// NumPowerControlLevels returns how many power levels the sweep uses.
func (a *ReaderApp) NumPowerControlLevels() int {
	return a.numPowerControlLevels
}

// NextReadTime returns the absolute time of the next read, or zero when no
// read is pending.
func (a *ReaderApp) NextReadTime() sim.VTimeInSec {
	if !a.readTimer.IsRunning() {
		return 0
	}
	return a.readTimer.TimeRemaining() + a.Node().CurrentTime()
}

// StartHandler begins the read process. The radio's maximum power bounds
// the sweep.
func (a *ReaderApp) StartHandler() {
	a.maxTxPower = a.physicalLayer.MaxTxPower()
	a.doReadProcess()
}

// StopHandler cancels any pending read.
func (a *ReaderApp) StopHandler() {
	a.readTimer.Stop()
}

// HandleRecvdPacket records tag identities the first time each tag id is
// seen.
func (a *ReaderApp) HandleRecvdPacket(pkt *stack.Packet, _ int) bool {
	if !a.IsRunning() {
		return false
	}

	switch data := pkt.Data(stack.LayerApplication).(type) {
	case *TagAppData:
		tagId := data.TagId()
		if !a.readTagIds[tagId] {
			a.readTagIds[tagId] = true
			a.lastRead = readAtLevel{
				level: a.currentTxPowerLevel,
				data: ReadTagData{
					tagId:        tagId,
					timeRead:     a.Node().CurrentTime(),
					timeReadSent: a.previousReadSentTime,
				},
			}
			a.readTags = append(a.readTags, a.lastRead)
		}
		return true
	case *ReaderAppData:
		// Overheard another reader.
		return true
	}

	return false
}

// SignalReadEnd is called by the MAC when the read it was driving finishes.
// The sweep advances to the next power level.
func (a *ReaderApp) SignalReadEnd() {
	a.currentTxPowerLevel++
	a.doNextRead()
}

// doNextRead issues the read at the current sweep level, or schedules the
// next read process when the sweep is complete.
func (a *ReaderApp) doNextRead() {
	if a.currentTxPowerLevel < a.numPowerControlLevels {
		// The quadratic ramp matches a path loss in the square of
		// the distance.
		nextTxPower := a.maxTxPower * math.Pow(
			float64(a.currentTxPowerLevel+1)/
				float64(a.numPowerControlLevels), 2)

		a.Node().Recorder().RecordDebug(a.Node().CurrentTime(),
			fmt.Sprintf("reader %s nextTxPower: %g maxTxPower: %g",
				a.NodeId(), nextTxPower, a.maxTxPower))

		a.previousReadSentTime = a.Node().CurrentTime()
		a.sendReadPacket(nextTxPower)
		return
	}

	if a.doRepeatedReads {
		a.readTimer.Reschedule(a.readPeriod)
	}
}

// doReadProcess runs one full sweep, optionally preceded by a RESET.
func (a *ReaderApp) doReadProcess() {
	if a.doReset {
		a.sendResetPacket()
	}

	if a.numPowerControlLevels <= 0 {
		log.Panic("the sweep needs at least one power level")
	}

	a.firstReadSentTime = a.Node().CurrentTime()
	a.currentTxPowerLevel = 0
	a.doNextRead()
}

func (a *ReaderApp) sendResetPacket() {
	pkt := stack.NewPacket()
	pkt.SetDestination(stack.BroadcastId)

	appData := NewReaderAppData()
	appData.SetAppType(ReaderAppReset)
	appData.SetReaderId(a.NodeId())
	pkt.AddData(stack.LayerApplication, appData)

	a.SendToQueue(pkt)
}

func (a *ReaderApp) sendReadPacket(txPower float64) {
	pkt := stack.NewPacket()
	pkt.SetTxPower(txPower)
	pkt.SetDestination(stack.BroadcastId)

	appData := NewReaderAppData()
	appData.SetAppType(ReaderAppRead)
	appData.SetReaderId(a.NodeId())

	// Only the top level runs its read cycle to completion.
	appData.SetDoEntireReadCycle(pkt.TxPower() == a.maxTxPower)

	pkt.AddData(stack.LayerApplication, appData)

	a.SendToQueue(pkt)
}

// Handle emits the reader application's end-of-run statistics.
func (a *ReaderApp) Handle(now sim.VTimeInSec) {
	rec := a.Node().Recorder()
	nodeId := a.NodeId()

	var readProcessLatencySum sim.VTimeInSec
	for _, r := range a.readTags {
		processLatency := r.data.TimeRead() - a.firstReadSentTime
		readProcessLatencySum += processLatency

		rec.RecordStat(now, nodeId, tagReadIdKey,
			r.data.TagId().String())
		rec.RecordStat(now, nodeId, tagReadPowerLevelKey,
			fmt.Sprintf("%d", r.level+1))
		rec.RecordStat(now, nodeId, tagReadTimeKey,
			fmt.Sprintf("%.8g", float64(r.data.TimeRead())))
		rec.RecordStat(now, nodeId, tagReadProcessLatencyKey,
			fmt.Sprintf("%.8g", float64(processLatency)))
	}

	for level := 0; level < a.numPowerControlLevels; level++ {
		count := 0
		for _, r := range a.readTags {
			if r.level == level {
				count++
			}
		}
		rec.RecordStat(now, nodeId,
			fmt.Sprintf("%s%d", tagsReadCountAtLevelPrefix, level+1),
			fmt.Sprintf("%d", count))
	}

	rec.RecordStat(now, nodeId, tagsReadCountKey,
		fmt.Sprintf("%d", len(a.readTags)))

	readProcessLatencyAvg := 0.0
	if len(a.readTags) > 0 {
		readProcessLatencyAvg = float64(readProcessLatencySum) /
			float64(len(a.readTags))
	}
	rec.RecordStat(now, nodeId, avgTagReadProcessLatency,
		fmt.Sprintf("%.8g", readProcessLatencyAvg))

	var lastReadLatency sim.VTimeInSec
	if len(a.readTags) > 0 {
		lastReadLatency = a.lastRead.data.TimeRead() - a.firstReadSentTime
	}
	rec.RecordStat(now, nodeId, lastTagReadLatencyKey,
		fmt.Sprintf("%.8g", float64(lastReadLatency)))
}

// ReadTags returns every first-seen tag reception. The power level of each
// reception is not included; ReadTagLevels reports it.
func (a *ReaderApp) ReadTags() []ReadTagData {
	out := make([]ReadTagData, 0, len(a.readTags))
	for _, r := range a.readTags {
		out = append(out, r.data)
	}
	return out
}

// ReadTagLevels returns the 1-based power level of each first-seen tag
// reception, keyed by tag id.
func (a *ReaderApp) ReadTagLevels() map[stack.NodeId]int {
	out := make(map[stack.NodeId]int, len(a.readTags))
	for _, r := range a.readTags {
		out[r.data.TagId()] = r.level + 1
	}
	return out
}
