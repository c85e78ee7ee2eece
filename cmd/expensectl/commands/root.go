// Package commands implements expensectl, an offline tool for checking
// expense drafts and preparing their submission payloads.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/garyjia/expense-intake/internal/validation"
)

// NewRootCommand builds the expensectl command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "expensectl",
		Short: "Check and prepare expense drafts",
		Long: `expensectl works on expense drafts stored as YAML or JSON files.
It validates them with the same rules as the form, prepares the payload the
platform would receive and exports a spreadsheet summary.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("require-category", false, "Require an accounting category when the expense type supports one")

	root.AddCommand(newValidateCommand())
	root.AddCommand(newPrepareCommand())
	root.AddCommand(newCompareCommand())
	root.AddCommand(newExportCommand())
	root.AddCommand(newMigrateCommand())
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func policyFlags(cmd *cobra.Command) validation.Policy {
	requireCategory, _ := cmd.Flags().GetBool("require-category")
	return validation.Policy{RequireAccountingCategory: requireCategory}
}
