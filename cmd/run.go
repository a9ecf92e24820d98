package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/encodeous/sensornet/core"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Long:  `Generates the scenario's network, converges it, and simulates every time step. A summary is printed at the end.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := core.ReadScenario(scenarioPath)
		if err != nil {
			panic(err)
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed, _ = cmd.Flags().GetUint64("seed")
		}
		if cmd.Flags().Changed("optimized") {
			cfg.Protocol.Optimized, _ = cmd.Flags().GetBool("optimized")
		}
		if cmd.Flags().Changed("workers") {
			cfg.Protocol.Workers, _ = cmd.Flags().GetInt("workers")
		}
		if logPath, _ := cmd.Flags().GetString("log"); logPath != "" {
			cfg.LogPath = logPath
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}
		metricsAddr, _ := cmd.Flags().GetString("metrics")

		stats, err := core.Start(*cfg, core.StartOptions{
			Level:       level,
			MetricsAddr: metricsAddr,
		})
		if stats != nil {
			printSummary(stats)
			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if werr := core.WriteStats(out, stats); werr != nil {
					panic(werr)
				}
			}
		}
		if err != nil {
			fmt.Println("Error:", err.Error())
			os.Exit(1)
		}
	},
	GroupID: "sim",
}

func printSummary(s *core.SimStats) {
	m := s.Messages
	pct := func(v uint64) float64 {
		if m.Total == 0 {
			return 0
		}
		return float64(v) / float64(m.Total) * 100
	}
	fmt.Printf("Run %s (seed %d, %d nodes, %d steps)\n", s.RunId, s.Seed, s.Nodes, s.Steps)
	fmt.Printf("  Initial convergence:   %d iterations\n", s.InitialIterations)
	fmt.Printf("  Topology changes:      %d removed, %d added, %d reconvergence iterations\n", s.LinksRemoved, s.LinksAdded, s.ReconvergenceIterations)
	fmt.Printf("  Transmissions:         %d/%d delivered (%.2f%%)\n", s.Delivered, s.Requests, s.SuccessRate()*100)
	fmt.Printf("  Average delay:         %.4f over %.2f hops\n", s.AverageDelay(), s.AverageHops())
	for kind, n := range s.Failures {
		fmt.Printf("  Failed (%s): %d\n", kind, n)
	}
	fmt.Printf("  %-22s %8d %7.2f%%\n", "Hello messages", m.Hello, pct(m.Hello))
	fmt.Printf("  %-22s %8d %7.2f%%\n", "Topology messages", m.Topology, pct(m.Topology))
	fmt.Printf("  %-22s %8d %7.2f%%\n", "Route discovery", m.RouteDiscovery, pct(m.RouteDiscovery))
	fmt.Printf("  %-22s %8d %7.2f%%\n", "Data packets", m.DataPackets, pct(m.DataPackets))
	fmt.Printf("  Protocol efficiency:   %.4f\n", s.Efficiency)
	fmt.Printf("  Routing connectivity:  %.2f%%\n", s.Connectivity*100)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().String("log", "", "Also write logs to this file")
	runCmd.Flags().StringP("out", "o", "", "Write the run statistics as yaml to this file")
	runCmd.Flags().String("metrics", "", "Serve prometheus and expvar metrics on this address, e.g. 127.0.0.1:9100")
	runCmd.Flags().Uint64("seed", 0, "Override the scenario seed")
	runCmd.Flags().Bool("optimized", false, "Reconverge incrementally after topology changes")
	runCmd.Flags().Int("workers", 0, "Worker pool size for each protocol phase")
}
