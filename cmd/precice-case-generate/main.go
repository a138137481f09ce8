package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	outputDir string
	version   = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "precice-case-generate <topology.yaml>",
	Short: "Compile a topology description into a runnable preCICE case",
	Long: `precice-case-generate reads a topology YAML file describing coupled solvers,
the data they exchange, and the boundary patches involved, and emits a complete
preCICE XML configuration plus per-participant adapter-configuration JSON and
run/clean scripts.`,
	Args:    cobra.ExactArgs(1),
	Version: version,
	RunE:    runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "tool config file (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory in which to write _generated/")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
