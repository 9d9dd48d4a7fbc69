package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/complyscan/grc-engine/internal/scoring"
)

// Markdown generates a Markdown compliance report with a score table and the
// top ten gaps, critical gaps first.
func Markdown(result *scoring.ScanResult) string {
	ts := "N/A"
	if len(result.Timestamp) >= 10 {
		ts = result.Timestamp[:10]
	}

	var b strings.Builder
	b.WriteString("# GRC Compliance Report\n")
	fmt.Fprintf(&b, "**Scanned:** %s (%d files) | %s\n\n", result.Target, result.FilesScanned, ts)
	b.WriteString("| Regulation | Score | Critical | Matched | Total |\n")
	b.WriteString("| ---------- | ----- | -------- | ------- | ----- |\n")

	for _, reg := range sortedRegulations(result.Scores) {
		score := result.Scores[reg]
		fmt.Fprintf(&b, "| %s | %.0f%% | %.0f%% | %d | %d |\n",
			reg, score.Pct, score.CriticalPct, score.Matched, score.Total)
	}

	if len(result.Gaps) > 0 {
		b.WriteString("\n## Top Gaps\n")
		for i, gap := range topGaps(result.Gaps, 10) {
			sev := ""
			if gap.Severity == scoring.SeverityCritical {
				sev = " (critical)"
			}
			desc := gap.Description
			if desc == "" {
				desc = gap.Label
			}
			fmt.Fprintf(&b, "%d. **%s**%s - %s\n", i+1, gap.ControlID, sev, desc)
		}
	}

	b.WriteString("\n")
	return b.String()
}

// sortedRegulations returns score map keys in lexicographic order.
func sortedRegulations(scores map[string]scoring.Score) []string {
	regs := make([]string, 0, len(scores))
	for reg := range scores {
		regs = append(regs, reg)
	}
	sort.Strings(regs)
	return regs
}

// topGaps returns up to n gaps. The gap list is already sorted
// critical-first, so a prefix is the ranked top-N.
func topGaps(gaps []scoring.Gap, n int) []scoring.Gap {
	if len(gaps) <= n {
		return gaps
	}
	return gaps[:n]
}
