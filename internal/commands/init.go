package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/slideboard-dev/reconcile/internal/config"
)

const sampleRules = `rules:
  - id: order-exact
    name: Match by order number
    type: order
    priority: 1
    enabled: true
    amount_tolerance: "0.01"
`

func newInitCommand() *cobra.Command {
	var operator string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a reconciliation workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, operator)
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "operator recorded on manual review actions")

	return cmd
}

func runInit(cmd *cobra.Command, dir, operator string) error {
	// Create directory structure.
	dirs := []string{
		"ledgers",
		"reports",
		"logs",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write reconcile.yaml.
	cfg := config.Default(operator)
	if err := config.Save(filepath.Join(dir, "reconcile.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write a starter rule set.
	if err := os.WriteFile(filepath.Join(dir, "rules.yaml"), []byte(sampleRules), 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized reconciliation workspace at %s\n", dir)
	return nil
}
