package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/encodeous/sensornet/core"
	"github.com/encodeous/sensornet/state"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes [src dst]",
	Short: "Converge the scenario's initial network and print its routing tables",
	Long: `Converges the scenario's initial network and prints every node's routing table.
When a source and destination are given, the resolved path between them is printed instead.`,
	Args: cobra.MatchAll(func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or a source and destination, got %d", len(args))
		}
		return nil
	}),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := core.ReadScenario(scenarioPath)
		if err != nil {
			panic(err)
		}
		if err = state.ScenarioValidator(cfg); err != nil {
			fmt.Println("Invalid scenario:", err.Error())
			os.Exit(1)
		}
		sim := core.NewSimulation(*cfg, nil)
		if err = sim.Setup(); err != nil {
			fmt.Println("Error:", err.Error())
			os.Exit(1)
		}

		if len(args) == 2 {
			src, dst, err := parsePair(args)
			if err != nil {
				fmt.Println("Error:", err.Error())
				os.Exit(1)
			}
			tx, err := core.ResolvePath(sim.Net, src, dst)
			if err != nil {
				fmt.Println("Error:", err.Error())
				os.Exit(1)
			}
			fmt.Printf("%v (delay %.4f, %d hops)\n", tx.Path, tx.Delay, tx.Hops())
			return
		}

		fmt.Printf("Converged in %d iterations\n", sim.Stats().InitialIterations)
		for _, node := range sim.Net.Nodes() {
			fmt.Printf("Node %d (%d neighbours):\n", node.Id, node.Degree())
			fmt.Println(node.StringRoutes())
		}
	},
	GroupID: "sim",
}

func parsePair(args []string) (state.NodeId, state.NodeId, error) {
	src, err := strconv.Atoi(args[0])
	if err != nil {
		return state.None, state.None, fmt.Errorf("invalid source %q: %w", args[0], err)
	}
	dst, err := strconv.Atoi(args[1])
	if err != nil {
		return state.None, state.None, fmt.Errorf("invalid destination %q: %w", args[1], err)
	}
	return state.NodeId(src), state.NodeId(dst), nil
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
