package evidence

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/segmentio/parquet-go"
)

// exportRow is the flat parquet schema for auditor exports.
type exportRow struct {
	EvidenceID  string `parquet:"evidence_id"`
	ControlID   string `parquet:"control_id"`
	Source      string `parquet:"source"`
	FilePath    string `parquet:"file_path"`
	ContentHash string `parquet:"content_hash"`
	Status      string `parquet:"status"`
	Details     string `parquet:"details"`
	CreatedAt   string `parquet:"created_at"`
}

// ExportJSON writes evidence records as indented JSON.
func ExportJSON(w io.Writer, records []Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}
	return nil
}

// ExportParquet writes evidence records as a parquet file for audit
// tooling that prefers columnar input.
func ExportParquet(w io.Writer, records []Record) error {
	writer := parquet.NewWriter(w)

	for _, r := range records {
		row := exportRow{
			EvidenceID:  r.EvidenceID,
			ControlID:   r.ControlID,
			Source:      r.Source,
			FilePath:    r.FilePath,
			ContentHash: r.ContentHash,
			Status:      r.Status,
			Details:     r.Details,
			CreatedAt:   r.CreatedAt,
		}
		if err := writer.Write(&row); err != nil {
			return fmt.Errorf("failed to write parquet row: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
