package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/complyscan/grc-engine/internal/scanner"
	"github.com/complyscan/grc-engine/internal/scoring"
)

func sampleResult() *scoring.ScanResult {
	return &scoring.ScanResult{
		Target:       "/repo",
		FilesScanned: 42,
		Scores: map[string]scoring.Score{
			"DORA":     {Pct: 65.0, Matched: 1, Total: 2, CriticalPct: 100.0},
			"ISO27001": {Pct: 30.0, Matched: 0, Total: 1, CriticalPct: 100.0},
		},
		Gaps: []scoring.Gap{
			{ControlID: "DORA:Article_9", Regulation: "DORA", Severity: "critical", Label: "Incident response"},
			{ControlID: "ISO27001:A.9", Regulation: "ISO27001", Severity: "normal", Label: "Access control", Description: "RBAC enforced"},
		},
		Matches: []scanner.Match{
			{ControlID: "DORA:Article_5", PatternID: "p1", Label: "Risk", File: "app.py", MatchCount: 3, Line: 1},
		},
		Timestamp: "2026-08-30T12:00:00Z",
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleResult())
	if err != nil {
		t.Fatalf("JSON rendering failed: %v", err)
	}

	var report map[string]interface{}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	for _, key := range []string{"grc_engine_version", "timestamp", "target", "files_scanned", "scores", "gaps", "matches"} {
		if _, ok := report[key]; !ok {
			t.Errorf("Missing key %q", key)
		}
	}

	scores := report["scores"].(map[string]interface{})
	dora := scores["DORA"].(map[string]interface{})
	if dora["pct"].(float64) != 65.0 {
		t.Errorf("Wrong DORA pct: %v", dora["pct"])
	}
	if dora["critical_pct"].(float64) != 100.0 {
		t.Errorf("Wrong DORA critical_pct: %v", dora["critical_pct"])
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResult())

	if !strings.Contains(md, "# GRC Compliance Report") {
		t.Error("Missing title")
	}
	if !strings.Contains(md, "| DORA | 65% | 100% | 1 | 2 |") {
		t.Errorf("Missing DORA row:\n%s", md)
	}
	if !strings.Contains(md, "## Top Gaps") {
		t.Error("Missing gaps section")
	}
	// Critical gap is listed first
	critIdx := strings.Index(md, "DORA:Article_9")
	normIdx := strings.Index(md, "ISO27001:A.9")
	if critIdx < 0 || normIdx < 0 || critIdx > normIdx {
		t.Error("Critical gap should be listed before normal gap")
	}
	if !strings.Contains(md, "(42 files)") {
		t.Error("Missing files scanned count")
	}
}

func TestScorecard(t *testing.T) {
	var buf bytes.Buffer
	Scorecard(&buf, sampleResult())
	out := buf.String()

	if !strings.Contains(out, "DORA") || !strings.Contains(out, "ISO27001") {
		t.Errorf("Missing regulation rows:\n%s", out)
	}
	if !strings.Contains(out, "Top Gaps:") {
		t.Error("Missing gap listing")
	}
	if !strings.Contains(out, "Scanned 42 files") {
		t.Error("Missing footer")
	}
}

func TestCoverageBar(t *testing.T) {
	cases := []struct {
		pct    float64
		filled int
	}{
		{0, 0},
		{35, 3},
		{100, 10},
		{250, 10},
	}
	for _, c := range cases {
		bar := coverageBar(c.pct)
		if got := strings.Count(bar, "█"); got != c.filled {
			t.Errorf("coverageBar(%.0f): expected %d filled segments, got %d", c.pct, c.filled, got)
		}
	}
}
