package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/complyscan/grc-engine/internal/catalog"
)

// languageExtensions maps a pattern's declared language to the file
// extensions it may match. A language missing from this table matches any
// extension, so new catalog languages degrade permissively instead of
// silencing their patterns.
var languageExtensions = map[string][]string{
	"python":     {".py"},
	"javascript": {".js", ".jsx", ".mjs"},
	"typescript": {".ts", ".tsx"},
	"java":       {".java"},
	"go":         {".go"},
	"yaml":       {".yaml", ".yml"},
	"terraform":  {".tf"},
	"dockerfile": {"Dockerfile", ".dockerfile"},
}

// MatchFile runs every catalog pattern against one file.
//
// Matching is best-effort per file: unreadable paths return no matches, and
// undecodable bytes are substituted rather than failing, so binary or
// mixed-encoding files never abort a scan.
func MatchFile(path string, cat *catalog.Catalog) []Match {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	content := strings.ToValidUTF8(string(data), string(utf8.RuneError))

	var matches []Match
	for i, p := range cat.Patterns() {
		re := cat.Regex(i)
		if re == nil {
			// Inert pattern: missing or invalid detection regex
			continue
		}

		if !languageMatches(p.Language, path) {
			continue
		}

		locs := re.FindAllStringIndex(content, -1)
		if len(locs) == 0 {
			continue
		}

		matches = append(matches, Match{
			ControlID:  p.ControlID,
			PatternID:  p.PatternID,
			Label:      p.Label,
			File:       path,
			MatchCount: len(locs),
			Line:       lineOf(content, locs[0][0]),
		})
	}
	return matches
}

// languageMatches checks a pattern's language restriction against the file.
func languageMatches(language, path string) bool {
	language = strings.ToLower(language)
	if language == "" || language == "any" {
		return true
	}

	expected, ok := languageExtensions[language]
	if !ok {
		return true
	}

	ext := strings.ToLower(filepath.Ext(path))
	base := filepath.Base(path)
	for _, e := range expected {
		if strings.HasPrefix(e, ".") {
			if ext == e {
				return true
			}
		} else if base == e {
			return true
		}
	}
	return false
}

// lineOf returns the 1-based line number of a byte offset.
func lineOf(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}
