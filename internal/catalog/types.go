package catalog

import "regexp"

// Pattern is a single compliance detection rule from the catalog.
//
// Many patterns may share a control_id (several detection strategies for one
// control). Regulation membership is derived per pattern, so one control can
// legitimately count toward two regulations at once; this mirrors how the
// catalog data is authored and is worth confirming with the data owners
// before changing.
type Pattern struct {
	PatternID      string `json:"pattern_id" yaml:"pattern_id"`
	ControlID      string `json:"control_id" yaml:"control_id"`
	Regulation     string `json:"regulation" yaml:"regulation"`
	Label          string `json:"label" yaml:"label"`
	Description    string `json:"description" yaml:"description"`
	Language       string `json:"language" yaml:"language"`
	DetectionRegex string `json:"detection_regex" yaml:"detection_regex"`
	ExampleCode    string `json:"example_code,omitempty" yaml:"example_code,omitempty"`
}

// Catalog is the immutable set of compliance patterns for one scan
// invocation, together with the critical-control set. It is loaded once,
// passed explicitly to the scanner and scoring engine, and discarded after
// the scan; there is no process-wide cache.
type Catalog struct {
	patterns []Pattern
	compiled []*regexp.Regexp // aligned with patterns; nil means the pattern is inert
	critical map[string]struct{}
}

// LoadOptions controls catalog loading.
type LoadOptions struct {
	PatternsPath         string
	CriticalControlsPath string

	// Regulation, when set, keeps only patterns for that regulation.
	Regulation string
}
