// Package scoring turns raw scan output into per-regulation compliance
// scores and a ranked gap list.
package scoring

import (
	"math"
	"sort"

	"github.com/complyscan/grc-engine/internal/catalog"
	"github.com/complyscan/grc-engine/internal/scanner"
)

// First-scan weights: with no evidence history, a score is completeness
// blended with critical-control coverage.
const (
	weightCompleteness     = 0.70
	weightCriticalCoverage = 0.30
)

// Full weights for the history-aware mode. Freshness and remediation
// velocity need longitudinal evidence from at least two recorded scans, so
// this mode is declared here but not yet exercised.
const (
	fullWeightCompleteness = 0.40
	fullWeightFreshness    = 0.25
	fullWeightCritical     = 0.20
	fullWeightRemediation  = 0.15
)

// Calculate computes per-regulation scores and the gap list from a walk
// result.
//
// A regulation with zero critical controls scores 100 on the critical axis:
// it has no critical obligations to miss. Gaps are ordered critical-first,
// then ascending by control ID.
func Calculate(raw *scanner.WalkResult, cat *catalog.Catalog) (map[string]Score, []Gap, []scanner.Match) {
	matchedControls := make(map[string]struct{}, len(raw.MatchedControls))
	for _, id := range raw.MatchedControls {
		matchedControls[id] = struct{}{}
	}

	matches := raw.Matches
	if matches == nil {
		matches = []scanner.Match{}
	}

	// Group patterns by regulation, preserving input order within each group
	byReg := make(map[string][]catalog.Pattern)
	for _, p := range cat.Patterns() {
		reg := p.Regulation
		if reg == "" {
			reg = "Unknown"
		}
		byReg[reg] = append(byReg[reg], p)
	}

	regs := make([]string, 0, len(byReg))
	for reg := range byReg {
		regs = append(regs, reg)
	}
	sort.Strings(regs)

	scores := make(map[string]Score, len(byReg))
	gaps := []Gap{}

	for _, reg := range regs {
		regPatterns := byReg[reg]

		regControls := make(map[string]struct{})
		// First pattern in input order supplies the gap label/description
		firstPattern := make(map[string]catalog.Pattern)
		for _, p := range regPatterns {
			if p.ControlID == "" {
				continue
			}
			regControls[p.ControlID] = struct{}{}
			if _, seen := firstPattern[p.ControlID]; !seen {
				firstPattern[p.ControlID] = p
			}
		}

		var matched, criticalTotal, criticalMatched int
		var unmatched []string
		for id := range regControls {
			_, hit := matchedControls[id]
			if hit {
				matched++
			} else {
				unmatched = append(unmatched, id)
			}
			if cat.IsCritical(id) {
				criticalTotal++
				if hit {
					criticalMatched++
				}
			}
		}

		total := len(regControls)
		completeness := 0.0
		if total > 0 {
			completeness = float64(matched) / float64(total) * 100
		}

		criticalPct := 100.0
		if criticalTotal > 0 {
			criticalPct = float64(criticalMatched) / float64(criticalTotal) * 100
		}

		pct := weightCompleteness*completeness + weightCriticalCoverage*criticalPct

		scores[reg] = Score{
			Pct:         round1(pct),
			Matched:     matched,
			Total:       total,
			CriticalPct: round1(criticalPct),
		}

		sort.Strings(unmatched)
		for _, id := range unmatched {
			severity := SeverityNormal
			if cat.IsCritical(id) {
				severity = SeverityCritical
			}
			info := firstPattern[id]
			gaps = append(gaps, Gap{
				ControlID:   id,
				Regulation:  reg,
				Severity:    severity,
				Label:       info.Label,
				Description: info.Description,
			})
		}
	}

	// Critical gaps first, then lexicographic by control ID within each tier
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Severity != gaps[j].Severity {
			return gaps[i].Severity == SeverityCritical
		}
		return gaps[i].ControlID < gaps[j].ControlID
	})

	return scores, gaps, matches
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
