package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/complyscan/grc-engine/internal/catalog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func riskCatalog(t *testing.T, language string) *catalog.Catalog {
	t.Helper()
	return catalog.FromPatterns([]catalog.Pattern{
		{
			PatternID:      "risk-mgmt-1",
			ControlID:      "C1",
			Regulation:     "DORA",
			Label:          "Risk management",
			Language:       language,
			DetectionRegex: "risk[_ -]?management",
		},
	}, nil, zap.NewNop())
}

func TestMatchFile(t *testing.T) {
	t.Run("MatchesPatternInPythonFile", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "app.py", "class RiskManagement:\n    pass\n")

		matches := MatchFile(path, riskCatalog(t, "python"))
		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(matches))
		}
		m := matches[0]
		if m.ControlID != "C1" {
			t.Errorf("Wrong control: %s", m.ControlID)
		}
		if m.MatchCount != 1 {
			t.Errorf("Wrong match count: %d", m.MatchCount)
		}
		if m.Line != 1 {
			t.Errorf("Wrong line: %d", m.Line)
		}
	})

	t.Run("LanguageRestrictionSkipsOtherExtensions", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "config.yaml", "risk_management: true\n")

		matches := MatchFile(path, riskCatalog(t, "python"))
		if len(matches) != 0 {
			t.Errorf("Expected no matches for yaml file with python pattern, got %d", len(matches))
		}
	})

	t.Run("AnyLanguageMatchesEverything", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "config.yaml", "risk_management: true\n")

		matches := MatchFile(path, riskCatalog(t, "any"))
		if len(matches) != 1 {
			t.Errorf("Expected 1 match with language=any, got %d", len(matches))
		}
	})

	t.Run("UnknownLanguageIsPermissive", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "script.rb", "risk_management\n")

		matches := MatchFile(path, riskCatalog(t, "ruby"))
		if len(matches) != 1 {
			t.Errorf("Expected 1 match for untabled language, got %d", len(matches))
		}
	})

	t.Run("LineNumberOfFirstOccurrence", func(t *testing.T) {
		dir := t.TempDir()
		content := "import os\n\n\ndef risk_management():\n    pass\n\nrisk_management()\n"
		path := writeFile(t, dir, "app.py", content)

		matches := MatchFile(path, riskCatalog(t, "python"))
		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(matches))
		}
		if matches[0].MatchCount != 2 {
			t.Errorf("Expected 2 occurrences, got %d", matches[0].MatchCount)
		}
		if matches[0].Line != 4 {
			t.Errorf("First occurrence should be line 4, got %d", matches[0].Line)
		}
	})

	t.Run("NonexistentFileReturnsNoMatches", func(t *testing.T) {
		matches := MatchFile("/definitely/not/a/file.py", riskCatalog(t, "python"))
		if len(matches) != 0 {
			t.Errorf("Expected no matches, got %d", len(matches))
		}
	})

	t.Run("BinaryContentDoesNotAbort", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "blob.py", "risk_management\x00\xff\xfe garbage")

		matches := MatchFile(path, riskCatalog(t, "python"))
		if len(matches) != 1 {
			t.Errorf("Expected 1 match despite binary bytes, got %d", len(matches))
		}
	})

	t.Run("InertPatternNeverMatches", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "app.py", "risk_management\n")

		cat := catalog.FromPatterns([]catalog.Pattern{
			{PatternID: "broken", ControlID: "C1", DetectionRegex: "risk[unclosed"},
			{PatternID: "empty", ControlID: "C2", DetectionRegex: ""},
		}, nil, zap.NewNop())

		matches := MatchFile(path, cat)
		if len(matches) != 0 {
			t.Errorf("Inert patterns should not match, got %d", len(matches))
		}
	})

	t.Run("DockerfileMatchesByBasename", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "Dockerfile", "USER nonroot\nHEALTHCHECK CMD curl -f localhost\n")

		cat := catalog.FromPatterns([]catalog.Pattern{
			{PatternID: "hc", ControlID: "C9", Language: "dockerfile", DetectionRegex: "healthcheck"},
		}, nil, zap.NewNop())

		matches := MatchFile(path, cat)
		if len(matches) != 1 {
			t.Errorf("Expected Dockerfile basename to satisfy dockerfile language, got %d matches", len(matches))
		}
	})
}
