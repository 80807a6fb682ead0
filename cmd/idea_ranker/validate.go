package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/idea-prioritizer/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against an embedded schema",
	Long: fmt.Sprintf("Checks a JSON file against one of the embedded schemas (%s, %s), "+
		"for example the output of rank --out.", schemas.RankedIdeas, schemas.Catalog),
	RunE: runValidate,
}

var (
	validateSchema string
	validateJSON   string
)

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", schemas.RankedIdeas, "Schema name")
	validateCmd.Flags().StringVarP(&validateJSON, "json", "j", "", "Path to the JSON file (required)")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	err := schemas.ValidateFile(validateSchema, validateJSON)
	if err == nil {
		fmt.Fprintf(out, "Validation passed: %s matches %s\n", validateJSON, validateSchema)
		return nil
	}

	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(out, "Validation failed:")
		for _, fe := range ve.Errors {
			fmt.Fprintf(out, "  %s: %s\n", fe.Field, fe.Message)
		}
	}
	return err
}
