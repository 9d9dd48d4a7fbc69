package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/complyscan/grc-engine/internal/catalog"
	"github.com/complyscan/grc-engine/internal/scanner"
)

func fixtureTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"app.py":      "class RiskManagement:\n    pass\n",
		"infra.tf":    "resource \"aws_backup_plan\" \"main\" {}\n",
		"readme.md":   "risk_management is documented here\n",
		"settings.py": "ACCESS_CONTROL = 'rbac'\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func fixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.FromPatterns([]catalog.Pattern{
		{PatternID: "p1", ControlID: "DORA:Article_5", Regulation: "DORA", Label: "Risk", DetectionRegex: "risk[_ -]?management"},
		{PatternID: "p2", ControlID: "DORA:Article_12", Regulation: "DORA", Label: "Backup", DetectionRegex: "backup"},
		{PatternID: "p3", ControlID: "ISO27001:A.9", Regulation: "ISO27001", Label: "Access", DetectionRegex: "access[_ -]?control"},
		{PatternID: "p4", ControlID: "ISO27001:A.12", Regulation: "ISO27001", Label: "Logging", DetectionRegex: "audit[_ -]?log"},
	}, []string{"DORA:Article_5"}, zap.NewNop())
}

func TestPipeline(t *testing.T) {
	logger := zap.NewNop()

	t.Run("FullScan", func(t *testing.T) {
		dir := fixtureTree(t)
		p := New(fixtureCatalog(t), scanner.Options{}, logger)

		result := p.Run(context.Background(), dir)

		if result.Target != dir {
			t.Errorf("Wrong target: %s", result.Target)
		}
		// readme.md is not an allowed extension
		if result.FilesScanned != 3 {
			t.Errorf("Expected 3 files scanned, got %d", result.FilesScanned)
		}
		if len(result.Scores) != 2 {
			t.Fatalf("Expected 2 regulations, got %d", len(result.Scores))
		}
		if result.Scores["DORA"].Matched != 2 || result.Scores["DORA"].Total != 2 {
			t.Errorf("DORA should be fully matched: %+v", result.Scores["DORA"])
		}
		if result.Scores["ISO27001"].Matched != 1 || result.Scores["ISO27001"].Total != 2 {
			t.Errorf("ISO27001 should be half matched: %+v", result.Scores["ISO27001"])
		}
		if len(result.Gaps) != 1 || result.Gaps[0].ControlID != "ISO27001:A.12" {
			t.Errorf("Expected one gap for ISO27001:A.12, got %v", result.Gaps)
		}
		if _, err := time.Parse(time.RFC3339, result.Timestamp); err != nil {
			t.Errorf("Timestamp not RFC3339: %s", result.Timestamp)
		}
	})

	t.Run("IdempotentExceptTimestamp", func(t *testing.T) {
		dir := fixtureTree(t)
		p := New(fixtureCatalog(t), scanner.Options{}, logger)

		first := p.Run(context.Background(), dir)
		second := p.Run(context.Background(), dir)

		first.Timestamp = ""
		second.Timestamp = ""
		if !reflect.DeepEqual(first, second) {
			t.Error("Scanning an unchanged tree twice must yield identical results")
		}
	})

	t.Run("NonDirectoryTarget", func(t *testing.T) {
		p := New(fixtureCatalog(t), scanner.Options{}, logger)

		result := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))

		if result.FilesScanned != 0 {
			t.Errorf("Expected 0 files scanned, got %d", result.FilesScanned)
		}
		// All controls become gaps
		if len(result.Gaps) != 4 {
			t.Errorf("Expected 4 gaps, got %d", len(result.Gaps))
		}
	})
}
