package scanner

import "time"

// Match is a single compliance pattern hit in one source file.
type Match struct {
	ControlID  string `json:"control_id"`
	PatternID  string `json:"pattern_id"`
	Label      string `json:"label"`
	File       string `json:"file"`
	MatchCount int    `json:"match_count"`
	Line       int    `json:"line"`
}

// WalkResult is the aggregated outcome of one directory traversal.
//
// Err is set (and everything else left empty) when the root is not a
// directory; budget exhaustion is not an error, it just yields a partial
// result.
type WalkResult struct {
	FilesScanned      int      `json:"files_scanned"`
	TotalMatches      int      `json:"total_matches"`
	Matches           []Match  `json:"matches"`
	MatchedControls   []string `json:"matched_controls"`
	UnmatchedControls []string `json:"unmatched_controls"`
	CoveragePct       float64  `json:"coverage_pct"`
	Err               string   `json:"error,omitempty"`
}

// Options bounds a directory traversal.
type Options struct {
	Extensions  []string // allowed file extensions, with leading dot
	ExcludeDirs []string // directory names pruned from traversal
	MaxFiles    int
	MaxDuration time.Duration
}

// DefaultExtensions covers the common source and config formats.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".go", ".yaml", ".yml", ".tf",
}

// DefaultExcludeDirs are VCS, build, and dependency directories that never
// hold first-party compliance evidence.
var DefaultExcludeDirs = []string{
	".git", "__pycache__", "node_modules", ".venv", "venv",
	".tox", ".mypy_cache", ".pytest_cache", "dist", "build", ".eggs",
}

// DefaultOptions returns the standard traversal bounds.
func DefaultOptions() Options {
	return Options{
		Extensions:  DefaultExtensions,
		ExcludeDirs: DefaultExcludeDirs,
		MaxFiles:    10000,
		MaxDuration: 300 * time.Second,
	}
}
