// Package report serializes reconciliation results: a JSON document
// for archival and a flat CSV summary for download. Row order follows
// the result, so identical runs export identical files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// Report is the JSON document written for one run.
type Report struct {
	RunID       string       `json:"runId"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Result      model.Result `json:"result"`
}

// SummaryHeader is the CSV header for the summary export.
const SummaryHeader = "bucket,system_id,external_id,order_no,system_amount,external_amount,rule_id,score,reasons"

const summaryNumFields = 9

// WriteJSON writes the report document, indented for human review.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes one row per pair, leftover item, and reject.
func WriteSummaryCSV(w io.Writer, res model.Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(SummaryHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, p := range res.Matched {
		row := newRow("matched")
		row[1] = p.System.ID
		row[2] = p.External.ID
		row[3] = p.System.OrderNo
		row[4] = p.System.Amount.StringFixed(2)
		row[5] = p.External.Amount.StringFixed(2)
		row[6] = p.RuleID
		row[7] = formatScore(p.Score)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing matched row: %w", err)
		}
	}

	for _, p := range res.Flagged {
		row := newRow("flagged")
		row[1] = p.System.ID
		row[2] = p.External.ID
		row[3] = p.System.OrderNo
		row[4] = p.System.Amount.StringFixed(2)
		row[5] = p.External.Amount.StringFixed(2)
		row[7] = formatScore(p.Score)
		row[8] = strings.Join(p.Reasons, "; ")
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing flagged row: %w", err)
		}
	}

	for _, it := range res.UnmatchedSystem {
		row := newRow("unmatched_system")
		row[1] = it.ID
		row[3] = it.OrderNo
		row[4] = it.Amount.StringFixed(2)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing unmatched system row: %w", err)
		}
	}

	for _, it := range res.UnmatchedExternal {
		row := newRow("unmatched_external")
		row[2] = it.ID
		row[3] = it.OrderNo
		row[5] = it.Amount.StringFixed(2)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing unmatched external row: %w", err)
		}
	}

	for _, rej := range res.RejectedItems {
		row := newRow("rejected")
		if rej.Item.Source == model.SourceExternal {
			row[2] = rej.Item.ID
		} else {
			row[1] = rej.Item.ID
		}
		row[3] = rej.Item.OrderNo
		row[8] = rej.Reason
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing rejected row: %w", err)
		}
	}

	return cw.Error()
}

// WriteFiles writes <runID>.json and <runID>-summary.csv under
// <root>/reports/ and returns both paths.
func WriteFiles(root, runID string, res model.Result, generatedAt time.Time) (jsonPath, csvPath string, err error) {
	dir := filepath.Join(root, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating reports dir: %w", err)
	}

	jsonPath = filepath.Join(dir, runID+".json")
	jf, err := os.Create(jsonPath)
	if err != nil {
		return "", "", fmt.Errorf("creating report: %w", err)
	}
	defer jf.Close()
	if err := WriteJSON(jf, Report{RunID: runID, GeneratedAt: generatedAt, Result: res}); err != nil {
		return "", "", err
	}

	csvPath = filepath.Join(dir, runID+"-summary.csv")
	cf, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("creating summary: %w", err)
	}
	defer cf.Close()
	if err := WriteSummaryCSV(cf, res); err != nil {
		return "", "", err
	}

	return jsonPath, csvPath, nil
}

// ReadFile loads a previously written JSON report, e.g. for manual
// review edits.
func ReadFile(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("reading report: %w", err)
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Report{}, fmt.Errorf("parsing report: %w", err)
	}
	return rep, nil
}

func newRow(bucket string) []string {
	row := make([]string, summaryNumFields)
	row[0] = bucket
	return row
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 4, 64)
}
