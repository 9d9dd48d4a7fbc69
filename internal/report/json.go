// Package report renders scan results as terminal scorecards, JSON, and
// Markdown.
package report

import (
	"encoding/json"
	"time"

	"github.com/complyscan/grc-engine/internal/scanner"
	"github.com/complyscan/grc-engine/internal/scoring"
)

// Version is the report schema version embedded in JSON output.
const Version = "0.1.0"

// jsonReport is the versioned wire format consumed by CI pipelines and
// dashboards.
type jsonReport struct {
	Version      string                   `json:"grc_engine_version"`
	Timestamp    string                   `json:"timestamp"`
	Target       string                   `json:"target"`
	FilesScanned int                      `json:"files_scanned"`
	Scores       map[string]scoring.Score `json:"scores"`
	Gaps         []scoring.Gap            `json:"gaps"`
	Matches      []scanner.Match          `json:"matches"`
}

// JSON serializes a scan result to the versioned JSON report format.
func JSON(result *scoring.ScanResult) ([]byte, error) {
	ts := result.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	report := jsonReport{
		Version:      Version,
		Timestamp:    ts,
		Target:       result.Target,
		FilesScanned: result.FilesScanned,
		Scores:       result.Scores,
		Gaps:         result.Gaps,
		Matches:      result.Matches,
	}
	return json.MarshalIndent(report, "", "  ")
}
