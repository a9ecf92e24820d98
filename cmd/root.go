package cmd

import (
	"os"

	"github.com/encodeous/sensornet/state"
	"github.com/spf13/cobra"
)

var scenarioPath = state.DefaultScenarioPath

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sensornet",
	Short: "Wireless sensor network routing simulator",
	Long: `sensornet simulates a wireless sensor network running a distance-vector routing protocol.
Links fail and appear over time, the network reconverges, and every transmission is routed over the current tables.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "init",
		Title: "Create Scenarios",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", scenarioPath, "scenario config")
}
