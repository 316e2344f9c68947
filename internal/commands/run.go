package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/slideboard-dev/reconcile/internal/config"
	"github.com/slideboard-dev/reconcile/internal/engine"
	"github.com/slideboard-dev/reconcile/internal/id"
	"github.com/slideboard-dev/reconcile/internal/ledger"
	"github.com/slideboard-dev/reconcile/internal/model"
	"github.com/slideboard-dev/reconcile/internal/report"
	"github.com/slideboard-dev/reconcile/internal/rules"
)

func newRunCommand() *cobra.Command {
	var systemPath string
	var externalPath string
	var rulesPath string
	var configPath string
	var outDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile a system ledger export against an external one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, systemPath, externalPath, rulesPath, configPath, outDir)
		},
	}

	cmd.Flags().StringVar(&systemPath, "system", "", "system ledger CSV (required)")
	_ = cmd.MarkFlagRequired("system")
	cmd.Flags().StringVar(&externalPath, "external", "", "external ledger CSV (required)")
	_ = cmd.MarkFlagRequired("external")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rules YAML (required)")
	_ = cmd.MarkFlagRequired("rules")
	cmd.Flags().StringVar(&configPath, "config", "", "reconcile.yaml path")
	cmd.Flags().StringVar(&outDir, "out", ".", "output root for reports")

	return cmd
}

func runReconcile(cmd *cobra.Command, systemPath, externalPath, rulesPath, configPath, outDir string) error {
	cfg := config.Default("")
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	registry := ledger.DefaultRegistry()
	sysItems, err := parseLedger(cmd, registry, cfg.Ledgers.SystemFormat, systemPath)
	if err != nil {
		return err
	}
	extItems, err := parseLedger(cmd, registry, cfg.Ledgers.ExternalFormat, externalPath)
	if err != nil {
		return err
	}

	ruleSet, loadRejected, err := rules.Load(rulesPath)
	if err != nil {
		return err
	}

	res := engine.ExecuteWithOptions(sysItems, extItems, ruleSet, engine.Options{
		AcceptFloor:    cfg.Thresholds.AcceptFloor,
		SuspicionFloor: cfg.Thresholds.SuspicionFloor,
	})
	// Rules that failed YAML construction never reached the engine; fold
	// them into the run's reject list so the report shows both kinds.
	res.RejectedRules = append(loadRejected, res.RejectedRules...)

	now := time.Now()
	runID := id.FormatRunID(now)
	jsonPath, csvPath, err := report.WriteFiles(outDir, runID, res, now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", runID)
	fmt.Fprintf(out, "  matched:            %d\n", len(res.Matched))
	fmt.Fprintf(out, "  flagged for review: %d\n", len(res.Flagged))
	fmt.Fprintf(out, "  unmatched system:   %d\n", len(res.UnmatchedSystem))
	fmt.Fprintf(out, "  unmatched external: %d\n", len(res.UnmatchedExternal))
	fmt.Fprintf(out, "  rejected items:     %d\n", len(res.RejectedItems))
	fmt.Fprintf(out, "  rejected rules:     %d\n", len(res.RejectedRules))
	fmt.Fprintf(out, "  match rate:         %.1f%%\n", res.Statistics.MatchRate*100)
	fmt.Fprintf(out, "  matched amount:     %s\n", res.Statistics.TotalMatchedAmount.StringFixed(2))
	fmt.Fprintf(out, "Report:  %s\n", jsonPath)
	fmt.Fprintf(out, "Summary: %s\n", csvPath)
	return nil
}

func parseLedger(cmd *cobra.Command, registry *ledger.Registry, format, path string) ([]model.Item, error) {
	p := registry.Get(format)
	if p == nil {
		return nil, fmt.Errorf("unknown ledger format %q", format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	items, rejected, err := p.Parse(f)
	if err != nil {
		return nil, err
	}
	for _, rej := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s line %d: %s\n", path, rej.Line, rej.Reason)
	}
	return items, nil
}
