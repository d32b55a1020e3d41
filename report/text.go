package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/charles-forsyth/Skywalker/types"
)

// TextReporter generates human-readable text reports.
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{writer: w}
}

// Generate writes the full report.
func (r *TextReporter) Generate(data Data) error {
	fmt.Fprintf(r.writer, "Skywalker Fleet Report\n")
	fmt.Fprintf(r.writer, "======================\n\n")
	fmt.Fprintf(r.writer, "Scan Time: %s\n\n", data.Timestamp.Format("2006-01-02 15:04:05"))

	r.printSummary(data)
	r.printFailures(data)
	if data.Findings != nil {
		r.printFindings(data)
	}

	return nil
}

func (r *TextReporter) printSummary(data Data) {
	summary := data.Result.Summary

	fmt.Fprintf(r.writer, "Summary\n")
	fmt.Fprintf(r.writer, "-------\n")
	fmt.Fprintf(r.writer, "Projects: %d\n", len(data.Result.Projects()))
	fmt.Fprintf(r.writer, "Units Scanned: %d of %d", summary.Succeeded, summary.Attempted)
	if summary.Failed > 0 {
		fmt.Fprintf(r.writer, " (%s)", color.RedString("%d failed", summary.Failed))
	}
	fmt.Fprintf(r.writer, "\n")
	fmt.Fprintf(r.writer, "Resources: %d\n", summary.RecordCount)
	if summary.Retried > 0 {
		fmt.Fprintf(r.writer, "Retries: %d\n", summary.Retried)
	}
	if summary.ValidationErrors > 0 {
		fmt.Fprintf(r.writer, "%s: %d\n",
			color.YellowString("Validation Errors"), summary.ValidationErrors)
	}
	fmt.Fprintf(r.writer, "\n")
}

func (r *TextReporter) printFailures(data Data) {
	if len(data.Result.Failures) == 0 {
		return
	}

	fmt.Fprintf(r.writer, "Failed Units\n")
	fmt.Fprintf(r.writer, "------------\n")
	for _, failure := range data.Result.Failures {
		fmt.Fprintf(r.writer, "  %s  %s  %s\n",
			failure.Scope.Key(),
			color.RedString(string(failure.Failure.Class)),
			failure.Failure.Message)
	}
	fmt.Fprintf(r.writer, "\n")
}

func (r *TextReporter) printFindings(data Data) {
	if len(data.Findings) == 0 {
		fmt.Fprintf(r.writer, "%s\n", color.GreenString("No zombies found. Fleet is clean."))
		return
	}

	findings := append([]types.ZombieFinding(nil), data.Findings...)
	// Most expensive first
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].EstimatedMonthlyCost > findings[j].EstimatedMonthlyCost
	})

	fmt.Fprintf(r.writer, "Zombies (Est. Waste: %s/mo)\n",
		color.RedString("$%.2f", data.TotalWaste()))
	fmt.Fprintf(r.writer, "---------------------------------\n")
	for _, f := range findings {
		fmt.Fprintf(r.writer, "  %-18s %-24s %-40s $%8.2f  %s\n",
			f.Category,
			f.Resource.ProjectID,
			f.Resource.Identifier,
			f.EstimatedMonthlyCost,
			joinEvidence(f.Evidence))
	}
}

func joinEvidence(evidence []string) string {
	out := ""
	for i, e := range evidence {
		if i > 0 {
			out += "; "
		}
		out += e
	}
	return out
}
