package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/complyscan/grc-engine/internal/scoring"
)

// Scorecard renders a human-readable terminal scorecard: one table row per
// regulation plus the top five gaps.
func Scorecard(w io.Writer, result *scoring.ScanResult) {
	fmt.Fprintf(w, "\nGRC Engine v%s - Compliance Scorecard\n\n", Version)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Regulation", "Score", "Bar", "Critical", "Matched", "Total"})
	table.SetBorder(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, reg := range sortedRegulations(result.Scores) {
		score := result.Scores[reg]
		table.Append([]string{
			reg,
			fmt.Sprintf("%.0f%%", score.Pct),
			coverageBar(score.Pct),
			fmt.Sprintf("%.0f%%", score.CriticalPct),
			fmt.Sprintf("%d", score.Matched),
			fmt.Sprintf("%d", score.Total),
		})
	}
	table.Render()

	if gaps := topGaps(result.Gaps, 5); len(gaps) > 0 {
		fmt.Fprintf(w, "\nTop Gaps:\n")
		for i, gap := range gaps {
			sev := ""
			if gap.Severity == scoring.SeverityCritical {
				sev = " (critical)"
			}
			desc := gap.Description
			if desc == "" {
				desc = gap.Label
			}
			fmt.Fprintf(w, "  %d. %s%s - %s\n", i+1, gap.ControlID, sev, desc)
		}
	}

	fmt.Fprintf(w, "\nScanned %d files | %s\n\n", result.FilesScanned, result.Target)
}

// coverageBar renders a ten-segment progress bar for a 0-100 score.
func coverageBar(pct float64) string {
	filled := int(pct / 10)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}
