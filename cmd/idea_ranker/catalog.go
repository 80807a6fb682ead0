package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/idea-prioritizer/internal/catalog"
	"github.com/jonathan/idea-prioritizer/internal/db"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage the idea catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured catalog as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		source, closeCatalog, err := openCatalog(cmd.Context(), cfg.Catalog)
		if err != nil {
			return err
		}
		defer closeCatalog()

		ideas, err := source.LoadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd, "", ideas)
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a catalog JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ideas, err := (&catalog.FileSource{Path: args[0]}).LoadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d ideas OK\n", args[0], len(ideas))
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a catalog JSON file into the ideas table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Catalog.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}

		ideas, err := (&catalog.FileSource{Path: args[0]}).LoadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		database, err := db.Connect(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := database.UpsertIdeas(ctx, ideas); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d ideas\n", len(ideas))
		return nil
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <idea-id>",
	Short: "Remove one idea from the ideas table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("idea id must be an integer: %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Catalog.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}

		ctx := cmd.Context()
		database, err := db.Connect(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.DeleteIdea(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted idea %d\n", id)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd, catalogValidateCmd, catalogImportCmd, catalogDeleteCmd)
	rootCmd.AddCommand(catalogCmd)
}
