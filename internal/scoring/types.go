package scoring

import "github.com/complyscan/grc-engine/internal/scanner"

// Severity levels for gaps.
const (
	SeverityCritical = "critical"
	SeverityNormal   = "normal"
)

// Score is the compliance score for a single regulation.
type Score struct {
	Pct         float64 `json:"pct"`
	Matched     int     `json:"matched"`
	Total       int     `json:"total"`
	CriticalPct float64 `json:"critical_pct"`
}

// Gap is a control with zero detected matches in the current scan.
type Gap struct {
	ControlID   string `json:"control_id"`
	Regulation  string `json:"regulation"`
	Severity    string `json:"severity"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ScanResult is the complete outcome of one scan: the unit handed to
// reporting and evidence persistence. Immutable after construction.
type ScanResult struct {
	Target       string           `json:"target"`
	FilesScanned int              `json:"files_scanned"`
	Scores       map[string]Score `json:"scores"`
	Gaps         []Gap            `json:"gaps"`
	Matches      []scanner.Match  `json:"matches"`
	Timestamp    string           `json:"timestamp"`
}
