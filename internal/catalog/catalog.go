package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Load reads the pattern catalog and critical-control set from disk.
//
// Patterns with a missing or invalid detection regex are kept but inert: they
// never match, and load succeeds anyway. A compliance scan over a messy
// catalog should degrade, not fail.
func Load(opts LoadOptions, logger *zap.Logger) (*Catalog, error) {
	patterns, err := readPatterns(opts.PatternsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	if opts.Regulation != "" {
		filtered := patterns[:0]
		for _, p := range patterns {
			if p.Regulation == opts.Regulation {
				filtered = append(filtered, p)
			}
		}
		patterns = filtered
	}

	critical, err := readCriticalControls(opts.CriticalControlsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load critical controls: %w", err)
	}

	compiled := make([]*regexp.Regexp, len(patterns))
	inert := 0
	for i, p := range patterns {
		if p.DetectionRegex == "" {
			logger.Warn("Pattern has no detection regex, treating as inert",
				zap.String("pattern_id", p.PatternID))
			inert++
			continue
		}
		// Case-insensitive, multiline semantics for every detection expression
		re, err := regexp.Compile("(?im)" + p.DetectionRegex)
		if err != nil {
			logger.Warn("Invalid regex in pattern, treating as inert",
				zap.String("pattern_id", p.PatternID),
				zap.String("regex", p.DetectionRegex),
				zap.Error(err))
			inert++
			continue
		}
		compiled[i] = re
	}

	logger.Info("Pattern catalog loaded",
		zap.String("path", opts.PatternsPath),
		zap.Int("patterns", len(patterns)),
		zap.Int("inert", inert),
		zap.Int("critical_controls", len(critical)))

	return &Catalog{
		patterns: patterns,
		compiled: compiled,
		critical: critical,
	}, nil
}

// readPatterns parses a JSON or YAML pattern file based on its extension.
func readPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var patterns []Pattern
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &patterns); err != nil {
			return nil, fmt.Errorf("failed to parse YAML patterns: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &patterns); err != nil {
			return nil, fmt.Errorf("failed to parse JSON patterns: %w", err)
		}
	}
	return patterns, nil
}

// readCriticalControls parses the critical control ID list.
func readCriticalControls(path string) (map[string]struct{}, error) {
	critical := make(map[string]struct{})
	if path == "" {
		return critical, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return critical, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse critical controls: %w", err)
	}

	for _, id := range ids {
		critical[id] = struct{}{}
	}
	return critical, nil
}

// Patterns returns the catalog's patterns in input order.
func (c *Catalog) Patterns() []Pattern {
	return c.patterns
}

// Regex returns the compiled detection expression for the pattern at index i,
// or nil when the pattern is inert.
func (c *Catalog) Regex(i int) *regexp.Regexp {
	return c.compiled[i]
}

// Len returns the number of patterns in the catalog.
func (c *Catalog) Len() int {
	return len(c.patterns)
}

// IsCritical reports whether a control is in the critical set.
func (c *Catalog) IsCritical(controlID string) bool {
	_, ok := c.critical[controlID]
	return ok
}

// CriticalCount returns the size of the critical-control set.
func (c *Catalog) CriticalCount() int {
	return len(c.critical)
}

// Controls returns the set of distinct control IDs declared by any pattern.
func (c *Catalog) Controls() map[string]struct{} {
	controls := make(map[string]struct{})
	for _, p := range c.patterns {
		if p.ControlID != "" {
			controls[p.ControlID] = struct{}{}
		}
	}
	return controls
}

// Regulations returns the sorted distinct regulations in the catalog.
func (c *Catalog) Regulations() []string {
	seen := make(map[string]struct{})
	for _, p := range c.patterns {
		if p.Regulation != "" {
			seen[p.Regulation] = struct{}{}
		}
	}

	regs := make([]string, 0, len(seen))
	for reg := range seen {
		regs = append(regs, reg)
	}
	sort.Strings(regs)
	return regs
}

// ControlPatterns returns all patterns declared for a control ID, in input order.
func (c *Catalog) ControlPatterns(controlID string) []Pattern {
	var out []Pattern
	for _, p := range c.patterns {
		if p.ControlID == controlID {
			out = append(out, p)
		}
	}
	return out
}

// FromPatterns builds a catalog directly from in-memory patterns. Intended
// for callers that assemble patterns programmatically (and for tests).
func FromPatterns(patterns []Pattern, critical []string, logger *zap.Logger) *Catalog {
	criticalSet := make(map[string]struct{}, len(critical))
	for _, id := range critical {
		criticalSet[id] = struct{}{}
	}

	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		if p.DetectionRegex == "" {
			continue
		}
		re, err := regexp.Compile("(?im)" + p.DetectionRegex)
		if err != nil {
			logger.Warn("Invalid regex in pattern, treating as inert",
				zap.String("pattern_id", p.PatternID),
				zap.Error(err))
			continue
		}
		compiled[i] = re
	}

	return &Catalog{
		patterns: patterns,
		compiled: compiled,
		critical: criticalSet,
	}
}
