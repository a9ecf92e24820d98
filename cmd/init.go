package cmd

import (
	"fmt"
	"os"

	"github.com/encodeous/sensornet/core"
	"github.com/encodeous/sensornet/state"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Write a default scenario",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := state.DefaultScenario()
		if len(args) == 1 {
			cfg.Name = args[0]
		}
		if seed, _ := cmd.Flags().GetUint64("seed"); cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}
		if nodes, _ := cmd.Flags().GetInt("nodes"); cmd.Flags().Changed("nodes") {
			cfg.Topology.Nodes = nodes
		}
		if err := state.ScenarioValidator(&cfg); err != nil {
			fmt.Printf("Invalid scenario: %v\n", err)
			os.Exit(-1)
		}

		if _, err := os.Stat(scenarioPath); err == nil {
			if force, _ := cmd.Flags().GetBool("force"); !force {
				fmt.Printf("%s already exists, use --force to overwrite it\n", scenarioPath)
				os.Exit(-1)
			}
		}
		err := core.WriteScenario(scenarioPath, &cfg)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Wrote scenario %s to %s\n", cfg.Name, scenarioPath)
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Uint64("seed", 0, "random seed")
	initCmd.Flags().IntP("nodes", "n", 0, "number of nodes")
	initCmd.Flags().BoolP("force", "f", false, "overwrite an existing scenario")
}
