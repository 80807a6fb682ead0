package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/idea-prioritizer/internal/observability"
	"github.com/jonathan/idea-prioritizer/internal/pipeline"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run the pipeline once and print the top ideas",
	Long:  "Evaluates every catalog idea against the given constraints and prints the ranked ideas as JSON.",
	RunE:  runRank,
}

var (
	rankEngHours string
	rankBudget   string
	rankTeams    string
	rankTimeline string
	rankFocus    string
	rankOutput   string
	rankVerbose  bool
)

func init() {
	rankCmd.Flags().StringVar(&rankEngHours, "eng-hours", "", "Available engineering hours, e.g. 150-300")
	rankCmd.Flags().StringVar(&rankBudget, "budget", "", "Available budget, e.g. 10000-20000")
	rankCmd.Flags().StringVar(&rankTeams, "teams", "", "Number of available teams")
	rankCmd.Flags().StringVar(&rankTimeline, "timeline", "", "Expected timeline in weeks, e.g. 4-6")
	rankCmd.Flags().StringVar(&rankFocus, "focus", "", "Priority focus area, e.g. Customer Experience")
	rankCmd.Flags().StringVarP(&rankOutput, "out", "o", "", "Write ranked ideas to this file instead of stdout")
	rankCmd.Flags().BoolVarP(&rankVerbose, "verbose", "v", false, "Print each evaluation to stderr as it completes")

	rootCmd.AddCommand(rankCmd)
}

func rankConstraints() types.Constraints {
	return types.Constraints{
		EngineeringHours: rankEngHours,
		Budget:           rankBudget,
		TeamCount:        rankTeams,
		Timeline:         rankTimeline,
		PriorityFocus:    rankFocus,
	}
}

func runRank(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var printer *observability.Printer
	var observers []pipeline.Observer
	if rankVerbose {
		printer = observability.NewPrinter(cmd.ErrOrStderr())
		observers = append(observers, printer)
	}

	a, err := newApp(ctx, cfg, nil, observers...)
	if err != nil {
		return err
	}
	defer a.Close()

	constraints := rankConstraints()
	if printer != nil {
		printer.PrintConstraints(constraints)
	}

	result, err := a.pipeline.Run(ctx, constraints)
	if err != nil {
		return err
	}
	if printer != nil {
		printer.PrintRanked(result.Ranked)
	}
	if result.RankingErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: ranking degraded: %v\n", result.RankingErr)
	}

	return writeJSON(cmd, rankOutput, result.Ranked)
}

func writeJSON(cmd *cobra.Command, path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	out = append(out, '\n')

	if path == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
