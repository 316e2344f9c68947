package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/slideboard-dev/reconcile/internal/auditlog"
	"github.com/slideboard-dev/reconcile/internal/config"
	"github.com/slideboard-dev/reconcile/internal/model"
	"github.com/slideboard-dev/reconcile/internal/report"
	"github.com/slideboard-dev/reconcile/internal/review"
)

func newReviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Apply operator overrides to a finished run",
	}

	cmd.AddCommand(newReviewActionCommand(
		"match",
		"Force-match an unmatched system item with an unmatched external item",
		review.ActionManualMatch,
		review.ManualMatch,
	))
	cmd.AddCommand(newReviewActionCommand(
		"unmatch",
		"Dissolve a matched pair back into the unmatched lists",
		review.ActionUnmatch,
		review.Unmatch,
	))
	cmd.AddCommand(newReviewActionCommand(
		"clear",
		"Clear a flagged pair as a normal match",
		review.ActionMarkNormal,
		review.MarkNormal,
	))

	return cmd
}

func newReviewActionCommand(use, short, action string, apply func(model.Result, string, string) (model.Result, error)) *cobra.Command {
	var reportPath string
	var systemID string
	var externalID string
	var operator string
	var reason string
	var root string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.ReadFile(reportPath)
			if err != nil {
				return err
			}

			res, err := apply(rep.Result, systemID, externalID)
			if err != nil {
				return err
			}
			rep.Result = res

			f, err := os.Create(reportPath)
			if err != nil {
				return fmt.Errorf("rewriting report: %w", err)
			}
			defer f.Close()
			if err := report.WriteJSON(f, rep); err != nil {
				return err
			}

			if operator == "" {
				// Fall back to the workspace config so the log never
				// attributes an action to nobody on a set-up workspace.
				if cfg, err := config.Load(filepath.Join(root, "reconcile.yaml")); err == nil {
					operator = cfg.Operator
				}
			}

			entry := auditlog.Entry{
				Timestamp:  time.Now(),
				Operator:   operator,
				Action:     action,
				RunID:      rep.RunID,
				SystemID:   systemID,
				ExternalID: externalID,
				Reason:     reason,
			}
			if err := auditlog.Append(root, []auditlog.Entry{entry}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: system %s / external %s on %s\n", action, systemID, externalID, rep.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "report JSON path (required)")
	_ = cmd.MarkFlagRequired("report")
	cmd.Flags().StringVar(&systemID, "system", "", "system item ID (required)")
	_ = cmd.MarkFlagRequired("system")
	cmd.Flags().StringVar(&externalID, "external", "", "external item ID (required)")
	_ = cmd.MarkFlagRequired("external")
	cmd.Flags().StringVar(&operator, "operator", "", "operator recorded in the review log")
	cmd.Flags().StringVar(&reason, "reason", "", "free-form justification for the log")
	cmd.Flags().StringVar(&root, "root", ".", "workspace root holding the review log")

	return cmd
}
