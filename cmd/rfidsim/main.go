// The rfidsim command runs RFID network simulations described by YAML
// scenario files.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/simulation"
)

var (
	flagMonitor     bool
	flagMonitorPort int
	flagRecord      bool
	flagOutput      string
	flagDebug       bool
	flagOpen        bool
)

var rootCmd = &cobra.Command{
	Use:   "rfidsim",
	Short: "A discrete-event simulator for passive RFID networks",
}

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Run the simulation described by a scenario file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().BoolVar(&flagMonitor, "monitor", false,
		"serve the monitoring API while the simulation runs")
	runCmd.Flags().IntVar(&flagMonitorPort, "monitor-port", 0,
		"port of the monitoring server (random when 0)")
	runCmd.Flags().BoolVar(&flagOpen, "open", false,
		"open the monitoring dashboard in the browser")
	runCmd.Flags().BoolVar(&flagRecord, "record", false,
		"persist statistics into a SQLite database")
	runCmd.Flags().StringVar(&flagOutput, "output", "",
		"output file name for the statistics database")
	runCmd.Flags().BoolVar(&flagDebug, "debug", false,
		"log per-packet events")

	rootCmd.AddCommand(runCmd)
}

func runScenario(_ *cobra.Command, args []string) error {
	scn, err := simulation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	builder := simulation.MakeBuilder()
	if flagMonitor {
		builder = builder.WithMonitoring()
		if flagMonitorPort > 0 {
			builder = builder.WithMonitorPort(flagMonitorPort)
		}
	}
	if flagRecord {
		builder = builder.WithDataRecording()
		if flagOutput != "" {
			builder = builder.WithOutputFileName(flagOutput)
		}
	}

	s := builder.Build()
	defer s.Terminate()

	if flagDebug {
		s.Logger().SetLevel(logrus.DebugLevel)
	}

	if err := scn.Apply(s); err != nil {
		return err
	}

	if flagOpen && s.Monitor() != nil {
		s.Monitor().OpenDashboard()
	}

	s.RunUntil(sim.VTimeInSec(scn.StopTime))

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
