package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/complyscan/grc-engine/internal/catalog"
)

// Walker traverses a directory tree and runs the file matcher over every
// eligible file, within file-count and wall-clock budgets.
type Walker struct {
	opts   Options
	logger *zap.Logger
}

// NewWalker creates a walker. Zero-valued option fields fall back to
// DefaultOptions.
func NewWalker(opts Options, logger *zap.Logger) *Walker {
	defaults := DefaultOptions()
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaults.Extensions
	}
	if len(opts.ExcludeDirs) == 0 {
		opts.ExcludeDirs = defaults.ExcludeDirs
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaults.MaxFiles
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = defaults.MaxDuration
	}
	return &Walker{opts: opts, logger: logger}
}

// Walk scans every eligible file under root against the catalog.
//
// Budget exhaustion and context cancellation stop traversal early and return
// the partial result accumulated so far. The only error condition is a root
// that is not a directory, reported through WalkResult.Err so automated
// pipelines degrade instead of failing.
func (w *Walker) Walk(ctx context.Context, root string, cat *catalog.Catalog) *WalkResult {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return &WalkResult{
			Err:               fmt.Sprintf("not a directory: %s", root),
			Matches:           []Match{},
			MatchedControls:   []string{},
			UnmatchedControls: []string{},
		}
	}

	exclude := make(map[string]struct{}, len(w.opts.ExcludeDirs))
	for _, d := range w.opts.ExcludeDirs {
		exclude[d] = struct{}{}
	}
	exts := make(map[string]struct{}, len(w.opts.Extensions))
	for _, e := range w.opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}

	var allMatches []Match
	filesScanned := 0
	started := time.Now()

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// The time budget is checked at each directory boundary
			if time.Since(started) > w.opts.MaxDuration {
				w.logger.Warn("Time budget exhausted, stopping traversal",
					zap.Duration("budget", w.opts.MaxDuration),
					zap.Int("files_scanned", filesScanned))
				return fs.SkipAll
			}
			if err := ctx.Err(); err != nil {
				return fs.SkipAll
			}
			if path != root {
				if _, excluded := exclude[d.Name()]; excluded {
					return fs.SkipDir
				}
			}
			return nil
		}

		// WalkDir never follows symlinks; they surface as non-directory
		// entries and are skipped outright, symlinked directories included.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if _, allowed := exts[strings.ToLower(filepath.Ext(path))]; !allowed {
			return nil
		}

		if filesScanned >= w.opts.MaxFiles {
			w.logger.Warn("File budget exhausted, stopping traversal",
				zap.Int("budget", w.opts.MaxFiles))
			return fs.SkipAll
		}

		filesScanned++
		allMatches = append(allMatches, MatchFile(path, cat)...)
		return nil
	})
	if walkErr != nil {
		// WalkDir only returns an error from the callback, and the callback
		// never produces one; keep the partial result regardless.
		w.logger.Warn("Traversal ended with error", zap.Error(walkErr))
	}

	return w.aggregate(allMatches, filesScanned, cat)
}

// aggregate derives the matched/unmatched control sets and raw coverage.
func (w *Walker) aggregate(matches []Match, filesScanned int, cat *catalog.Catalog) *WalkResult {
	matchedSet := make(map[string]struct{})
	for _, m := range matches {
		if m.ControlID != "" {
			matchedSet[m.ControlID] = struct{}{}
		}
	}

	allControls := cat.Controls()
	matched := make([]string, 0, len(matchedSet))
	for id := range matchedSet {
		matched = append(matched, id)
	}
	sort.Strings(matched)

	unmatched := make([]string, 0)
	for id := range allControls {
		if _, ok := matchedSet[id]; !ok {
			unmatched = append(unmatched, id)
		}
	}
	sort.Strings(unmatched)

	coverage := 0.0
	if len(allControls) > 0 {
		coverage = round1(float64(len(matched)) / float64(len(allControls)) * 100)
	}

	if matches == nil {
		matches = []Match{}
	}

	return &WalkResult{
		FilesScanned:      filesScanned,
		TotalMatches:      len(matches),
		Matches:           matches,
		MatchedControls:   matched,
		UnmatchedControls: unmatched,
		CoveragePct:       coverage,
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
