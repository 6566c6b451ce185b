package stats_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisim/rfidsim/stack"
	"github.com/wisim/rfidsim/stats"
)

func setupTestDB(t *testing.T) (stats.DataRecorder, func()) {
	t.Helper()
	dbPath := t.TempDir() + "/stats_test"
	recorder := stats.NewDataRecorder(dbPath)

	cleanup := func() {
		recorder.Close()
		os.Remove(dbPath + ".sqlite3")
	}

	return recorder, cleanup
}

func TestRecorderCreatesTables(t *testing.T) {
	recorder, cleanup := setupTestDB(t)
	defer cleanup()

	recorder.CreateTable("test_table", struct {
		ID   int
		Name string
	}{})

	assert.Contains(t, recorder.ListTables(), "test_table")
}

func TestRecorderInsertAndFlush(t *testing.T) {
	recorder, cleanup := setupTestDB(t)
	defer cleanup()

	type row struct {
		ID   int
		Name string
	}

	recorder.CreateTable("rows", row{})
	recorder.InsertData("rows", row{ID: 1, Name: "first"})
	recorder.InsertData("rows", row{ID: 2, Name: "second"})
	recorder.Flush()
}

func TestRecorderRejectsUnknownTable(t *testing.T) {
	recorder, cleanup := setupTestDB(t)
	defer cleanup()

	assert.Panics(t, func() {
		recorder.InsertData("missing", struct{ ID int }{})
	})
}

func TestRecorderRejectsNestedFields(t *testing.T) {
	recorder, cleanup := setupTestDB(t)
	defer cleanup()

	assert.Panics(t, func() {
		recorder.CreateTable("bad", struct {
			Nested struct{ A int }
		}{})
	})
}

func TestLoggerRendersStatRecords(t *testing.T) {
	logger := stats.NewLogger()

	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.RecordStat(1.5, stack.NewNodeId(3), "tagsReadCount", "2")

	out := buf.String()
	assert.Contains(t, out, "tagsReadCount")
	assert.Contains(t, out, "stats")
}

func TestLoggerPersistsIntoRecorder(t *testing.T) {
	recorder, cleanup := setupTestDB(t)
	defer cleanup()

	logger := stats.NewLogger()
	logger.SetOutput(&bytes.Buffer{})
	logger.AttachDataRecorder(recorder)

	require.Contains(t, recorder.ListTables(), "stats")
	require.Contains(t, recorder.ListTables(), "packet_events")

	logger.RecordStat(2.0, stack.NewNodeId(1), "missedReadTotal", "3")
	logger.RecordPacketSent(2.5, stack.NewNodeId(1),
		stack.LayerPhysical, stack.NewPacket())
	recorder.Flush()
}

func TestLoggerDebugLevelGatesPacketEvents(t *testing.T) {
	logger := stats.NewLogger()

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.InfoLevel)

	logger.RecordPacketSent(1.0, stack.NewNodeId(1),
		stack.LayerPhysical, stack.NewPacket())
	assert.Empty(t, buf.String())

	logger.SetLevel(logrus.DebugLevel)
	logger.RecordPacketSent(1.0, stack.NewNodeId(1),
		stack.LayerPhysical, stack.NewPacket())
	assert.Contains(t, buf.String(), "packet-sent")
}
