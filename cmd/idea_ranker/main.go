// Package main provides the idea_ranker CLI: the HTTP API server and one-shot ranking runs.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "idea_ranker",
	Short: "Rank product ideas against resource constraints",
	Long: "idea_ranker evaluates a catalog of product ideas against engineering hours, budget, teams, " +
		"timeline and priority focus with a two-phase LLM evaluation, then asks the model for the top ideas.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
