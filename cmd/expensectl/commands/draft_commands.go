package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/expense-intake/internal/infrastructure/export"
	"github.com/garyjia/expense-intake/internal/ocr"
	"github.com/garyjia/expense-intake/internal/submission"
	"github.com/garyjia/expense-intake/internal/validation"
)

// ErrInvalidDraft is returned when a draft fails validation
var ErrInvalidDraft = errors.New("draft is invalid")

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <draft-file>",
		Short: "Validate a draft and print its field errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := LoadDraft(args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")

			errs := validation.Validate(draft, validation.ContextFor(draft, policyFlags(cmd)))
			if errs == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "draft is valid")
				return nil
			}
			if err := writeAs(cmd.OutOrStdout(), format, errs); err != nil {
				return err
			}
			return fmt.Errorf("%w: %d field(s) with errors", ErrInvalidDraft, len(errs.Paths()))
		},
	}
	cmd.Flags().StringP("format", "f", "yaml", "Output format (yaml or json)")
	return cmd
}

func newPrepareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare <draft-file>",
		Short: "Print the submission payload of a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := LoadDraft(args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			force, _ := cmd.Flags().GetBool("force")

			if !force {
				if errs := validation.Validate(draft, validation.ContextFor(draft, policyFlags(cmd))); errs != nil {
					return &validation.Error{Errors: errs}
				}
			}
			return writeAs(cmd.OutOrStdout(), format, submission.Prepare(draft))
		},
	}
	cmd.Flags().StringP("format", "f", "json", "Output format (yaml or json)")
	cmd.Flags().Bool("force", false, "Prepare the payload even when the draft is invalid")
	return cmd
}

func newCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <draft-file>",
		Short: "Compare item fields with their parsed receipts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := LoadDraft(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			comparisons := ocr.CompareAll(draft.Items)
			mismatches := 0
			for i, c := range comparisons {
				if !c.HasMismatch() {
					continue
				}
				mismatches++
				fmt.Fprintf(out, "item %d (%s):\n", i+1, draft.Items[i].ID)
				if err := writeYAML(out, c); err != nil {
					return err
				}
			}
			if mismatches == 0 {
				fmt.Fprintln(out, "no mismatches")
			}
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <draft-file>",
		Short: "Write a spreadsheet summary of a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := LoadDraft(args[0])
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()

			exporter := export.NewSummaryExporter(zap.NewNop())
			if err := exporter.Write(f, submission.Prepare(draft)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "summary written to %s\n", output)
			return f.Close()
		},
	}
	cmd.Flags().StringP("output", "o", "expense.xlsx", "Output file")
	return cmd
}
