package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tlmbridge/config"
	"github.com/sarchlab/tlmbridge/platform"
	"github.com/sarchlab/tlmbridge/sim"
)

type runOptions struct {
	traceDB     string
	monitorPort int
	monitor     bool
	openBrowser bool
	logEvents   bool
	parallelIDs bool
	preload     bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge until all requests complete.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}

			opts.apply(cmd, cfg)

			return runPlatform(cmd.OutOrStdout(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.traceDB, "trace", "",
		"record task traces into the given SQLite file (without extension)")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"serve the monitoring web page while running")
	flags.IntVar(&opts.monitorPort, "monitor-port", 0,
		"port of the monitoring server (random when 0)")
	flags.BoolVar(&opts.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	flags.BoolVar(&opts.logEvents, "log-events", false,
		"print every simulation event")
	flags.BoolVar(&opts.parallelIDs, "parallel-ids", false,
		"generate xid transaction ids instead of sequential numbers")
	flags.BoolVar(&opts.preload, "preload", false,
		"fill memory through the functional path before the run")

	return cmd
}

func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("trace") {
		cfg.TraceDB = o.traceDB
	}

	if flags.Changed("monitor") {
		cfg.Monitor.Enabled = o.monitor
	}

	if flags.Changed("monitor-port") {
		cfg.Monitor.Enabled = true
		cfg.Monitor.Port = o.monitorPort
	}

	if flags.Changed("open-browser") {
		cfg.Monitor.OpenBrowser = o.openBrowser
	}

	if flags.Changed("log-events") {
		cfg.LogEvents = o.logEvents
	}

	if flags.Changed("parallel-ids") {
		cfg.ParallelIDs = o.parallelIDs
	}

	if flags.Changed("preload") {
		cfg.Traffic.Preload = o.preload
	}
}

func runPlatform(out io.Writer, cfg *config.Config) error {
	p, err := platform.Build(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if port := p.StartMonitor(); port != 0 {
		fmt.Fprintf(out, "Monitoring simulation with http://localhost:%d\n",
			port)
	}

	stats, runErr := p.Run()
	printStats(out, cfg, stats, p.LatencyTracer.AverageTime())

	return runErr
}

func printStats(
	out io.Writer,
	cfg *config.Config,
	stats platform.Stats,
	reqLatency sim.VTimeInSec,
) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "platform\t%s\n", cfg.Name)
	fmt.Fprintf(w, "channels\t%d\n", cfg.Channels)
	fmt.Fprintf(w, "system port\t%t\n", cfg.SystemPort)
	fmt.Fprintf(w, "end time (ns)\t%.3f\n", float64(stats.EndTime/sim.Nanosecond))
	fmt.Fprintf(w, "traffic cycles\t%d\n", stats.Cycles)
	fmt.Fprintf(w, "preloaded bytes\t%d\n", stats.PreloadedBytes)
	fmt.Fprintf(w, "issued\t%d\n", stats.Issued)
	fmt.Fprintf(w, "completed\t%d\n", stats.Completed)
	fmt.Fprintf(w, "refused\t%d\n", stats.Refused)
	fmt.Fprintf(w, "retry invitations\t%d\n", stats.RetryInvitations)
	fmt.Fprintf(w, "refused responses\t%d\n", stats.RespRefused)
	fmt.Fprintf(w, "average latency (ns)\t%.3f\n",
		float64(stats.AverageLatency/sim.Nanosecond))
	fmt.Fprintf(w, "bridge latency (ns)\t%.3f\n",
		float64(reqLatency/sim.Nanosecond))
	fmt.Fprintf(w, "transactions allocated\t%d\n", stats.Allocated)
	fmt.Fprintf(w, "transactions leaked\t%d\n", stats.LiveTransactions)

	for _, step := range stats.Steps {
		fmt.Fprintf(w, "step %s\t%d\n", step.Name, step.Count)
	}
}
