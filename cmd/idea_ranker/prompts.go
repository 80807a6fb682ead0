package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/idea-prioritizer/internal/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect the embedded prompt templates",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		keys, err := prompts.List(prompts.EvaluationFile)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print one prompt template with its placeholders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		template, err := prompts.Get(prompts.EvaluationFile, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), template)
		return nil
	},
}

func init() {
	promptsCmd.AddCommand(promptsListCmd, promptsShowCmd)
	rootCmd.AddCommand(promptsCmd)
}
