package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "reliasim",
	Short:   "Monte-Carlo reliability simulator for erasure-coded storage",
	Long:    `reliasim estimates probability-of-data-loss and related reliability metrics for an erasure-coded, rack/node/disk-structured storage cluster via Monte-Carlo and importance-sampling simulation.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug-level) logging")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
