package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slideboard-dev/reconcile/internal/rules"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect matching rule sets",
	}

	cmd.AddCommand(newRulesValidateCommand())

	return cmd
}

func newRulesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules.yaml>",
		Short: "Check a rule set without running a reconciliation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, rejected, err := rules.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range built {
				base := r.Base()
				fmt.Fprintf(out, "ok: %s (%s, priority %d)\n", base.ID, r.Type(), base.Priority)
			}
			for _, rej := range rejected {
				fmt.Fprintf(out, "invalid: %s: %s\n", rej.RuleID, rej.Reason)
			}

			if len(rejected) > 0 {
				return fmt.Errorf("%d invalid rule(s)", len(rejected))
			}
			return nil
		},
	}
}
