package simulation

import (
	"github.com/rs/xid"

	"github.com/wisim/rfidsim/monitoring"
	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stats"
	"github.com/wisim/rfidsim/wireless"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	dataRecording  bool
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithMonitoring turns the monitoring web server on.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithDataRecording persists statistics into a SQLite database.
func (b Builder) WithDataRecording() Builder {
	b.dataRecording = true
	return b
}

// WithOutputFileName sets the custom output file name for the data
// recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
	if !b.dataRecording && b.outputFileName != "" {
		panic("output file cannot be set when data recording is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		nodeIndex: make(map[string]int),
	}

	s.id = xid.New().String()

	engine := sim.NewSerialEngine()
	s.engine = engine

	s.logger = stats.NewLogger()

	if b.dataRecording {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "rfidsim_" + s.id
		}
		s.dataRecorder = stats.NewDataRecorder(outputPath)
		s.logger.AttachDataRecorder(s.dataRecorder)
	}

	s.channelManager = wireless.NewChannelManager(engine)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(engine)
		s.monitor.StartServer()
	}

	return s
}
