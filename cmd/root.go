package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/cloudsim-go/cloudsim/sim"
	"github.com/cloudsim-go/cloudsim/sim/trace"
)

var (
	// CLI flags for kernel configs
	configPath           string  // Optional YAML kernel config file
	logLevel             string  // Log verbosity level
	minTimeBetweenEvents float64 // Epsilon spacing between accepted events per destination
	terminateAt          float64 // Scheduled termination time (0 = run to drain)
	rounds               int     // Ping-pong rounds in the demo scenario
	interval             float64 // Simulated seconds between pings
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cloudsim",
	Short: "Discrete-event simulation kernel for cloud resource-management studies",
}

// runCmd executes the demo scenario using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ping-pong demo scenario",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := sim.DefaultKernelConfig()
		if configPath != "" {
			loaded, err := sim.LoadKernelConfig(configPath)
			if err != nil {
				logrus.Fatalf("Invalid kernel config: %v", err)
			}
			cfg = loaded
		}
		if minTimeBetweenEvents > 0 {
			cfg.MinTimeBetweenEvents = minTimeBetweenEvents
		}
		if terminateAt > 0 {
			cfg.TerminateAt = terminateAt
		}
		logLevel = effectiveLogLevel(cfg.LogLevel, logLevel, cmd.Flags().Changed("log"))

		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid kernel config: %v", err)
		}

		logrus.Infof("Starting kernel with epsilon=%g, terminate_at=%g, rounds=%d",
			cfg.MinTimeBetweenEvents, cfg.TerminateAt, rounds)

		kernel := sim.NewKernel(cfg)
		runTrace := trace.NewRunTrace()
		kernel.SetOnEventProcessed(func(ev *sim.Event) {
			runTrace.Record(trace.DispatchRecord{
				Clock:       kernel.Clock(),
				Source:      ev.Source(),
				Destination: ev.Destination(),
				Tag:         ev.Tag(),
				Kind:        ev.Kind().String(),
			})
		})

		buildPingPongScenario(kernel, rounds, interval)

		finalClock, err := kernel.Start()
		if err != nil {
			logrus.Fatalf("Simulation failed to start: %v", err)
		}

		summary := trace.Summarize(runTrace)
		logrus.Infof("Run %s: %d events dispatched, final clock %g",
			runTrace.RunID, summary.TotalDispatches, finalClock)
		if kernel.NumberOfUsers() != 0 {
			logrus.Warnf("%d broker-class actors never reported completion", kernel.NumberOfUsers())
		}

		logrus.Info("Simulation complete.")
	},
}

// effectiveLogLevel resolves the log level between the config file and the
// --log flag. An explicitly set flag always wins, even when it repeats the
// flag's default value.
func effectiveLogLevel(cfgLevel, flagLevel string, flagSet bool) string {
	if cfgLevel != "" && !flagSet {
		return cfgLevel
	}
	return flagLevel
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML kernel config file")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().Float64Var(&minTimeBetweenEvents, "min-time-between-events", 0, "Minimum spacing between accepted events per destination")
	runCmd.Flags().Float64Var(&terminateAt, "until", 0, "Terminate once the clock reaches this time (0 = run to drain)")
	runCmd.Flags().IntVar(&rounds, "rounds", 10, "Ping-pong rounds in the demo scenario")
	runCmd.Flags().Float64Var(&interval, "interval", 1.0, "Simulated seconds between pings")

	rootCmd.AddCommand(runCmd)
}
