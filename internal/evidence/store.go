// Package evidence persists timestamped compliance evidence records for
// audit and trend review.
package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/complyscan/grc-engine/internal/scoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS evidence (
    evidence_id  TEXT PRIMARY KEY,
    control_id   TEXT NOT NULL,
    source       TEXT NOT NULL,
    file_path    TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL,
    status       TEXT NOT NULL CHECK(status IN ('pass','fail','partial','stale')),
    details      TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evidence_control ON evidence(control_id);
CREATE INDEX IF NOT EXISTS idx_evidence_status  ON evidence(status);
CREATE INDEX IF NOT EXISTS idx_evidence_created ON evidence(created_at);
`

// scanSource marks evidence rows produced by the scan pipeline.
const scanSource = "grc-engine-scan"

// Store handles evidence persistence with PostgreSQL.
//
// Every record gets a fresh UUID, so concurrent scans writing evidence never
// collide; inserts are at-least-once without cross-process coordination.
type Store struct {
	db     *sqlx.DB
	cache  *SummaryCache
	logger *zap.Logger
}

// NewStore connects to the database and ensures the evidence schema exists.
func NewStore(config *Config, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	logger.Info("Evidence store initialized",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Int("max_idle_conns", config.MaxIdleConns))

	return store, nil
}

// initialize checks the connection and creates the schema.
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create evidence schema: %w", err)
	}

	return nil
}

// WithCache attaches a Redis summary cache to the store.
func (s *Store) WithCache(cache *SummaryCache) *Store {
	s.cache = cache
	return s
}

// Record persists a scan result: exactly one evidence record per match,
// status pass, details carrying the pattern that produced the match.
func (s *Store) Record(ctx context.Context, result *scoring.ScanResult) ([]string, error) {
	ids := make([]string, 0, len(result.Matches))
	for _, match := range result.Matches {
		details := map[string]interface{}{
			"pattern_id":  match.PatternID,
			"label":       match.Label,
			"match_count": match.MatchCount,
		}
		id, err := s.RecordEvidence(ctx, match.ControlID, scanSource, match.File, StatusPass, details)
		if err != nil {
			return ids, fmt.Errorf("failed to record evidence for %s: %w", match.ControlID, err)
		}
		ids = append(ids, id)
	}

	s.logger.Info("Scan result recorded",
		zap.String("target", result.Target),
		zap.Int("evidence_records", len(ids)))

	return ids, nil
}

// RecordEvidence persists one piece of compliance evidence and returns its ID.
func (s *Store) RecordEvidence(ctx context.Context, controlID, source, filePath, status string, details map[string]interface{}) (string, error) {
	evidenceID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	raw := fmt.Sprintf("%s:%s:%s:%s", controlID, source, filePath, now)
	sum := sha256.Sum256([]byte(raw))
	contentHash := hex.EncodeToString(sum[:])

	detailsJSON := ""
	if details != nil {
		encoded, err := json.Marshal(details)
		if err != nil {
			return "", fmt.Errorf("failed to encode details: %w", err)
		}
		detailsJSON = string(encoded)
	}

	query := `
		INSERT INTO evidence
			(evidence_id, control_id, source, file_path, content_hash, status, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := s.db.ExecContext(ctx, query,
		evidenceID, controlID, source, filePath, contentHash, status, detailsJSON, now,
	); err != nil {
		s.logger.Error("Failed to insert evidence",
			zap.Error(err),
			zap.String("control_id", controlID),
			zap.String("status", status))
		return "", fmt.Errorf("failed to insert evidence: %w", err)
	}

	// Any new evidence changes coverage summaries
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logger.Debug("Evidence recorded",
		zap.String("evidence_id", evidenceID),
		zap.String("control_id", controlID))

	return evidenceID, nil
}

// Get retrieves evidence records, newest first.
func (s *Store) Get(ctx context.Context, filter Filter) ([]Record, error) {
	query := "SELECT * FROM evidence"
	var conditions []string
	var args []interface{}

	if filter.ControlID != "" {
		args = append(args, filter.ControlID)
		conditions = append(conditions, fmt.Sprintf("control_id = $%d", len(args)))
	}
	if filter.Since != "" {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var records []Record
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	return records, nil
}

// CoverageSummary aggregates evidence into a per-control pass/fail view. A
// control is passing when it has at least one pass record and no fail
// records.
func (s *Store) CoverageSummary(ctx context.Context, regulation string) (*CoverageSummary, error) {
	if s.cache != nil {
		if summary, ok := s.cache.Get(ctx, regulation); ok {
			return summary, nil
		}
	}

	query := `
		SELECT control_id, status, COUNT(*) AS cnt
		FROM evidence
		GROUP BY control_id, status`
	args := []interface{}{}
	if regulation != "" {
		query = `
			SELECT control_id, status, COUNT(*) AS cnt
			FROM evidence
			WHERE control_id LIKE $1
			GROUP BY control_id, status`
		args = append(args, regulation+"%")
	}

	rows := []struct {
		ControlID string `db:"control_id"`
		Status    string `db:"status"`
		Count     int    `db:"cnt"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query coverage: %w", err)
	}

	controls := make(map[string]map[string]int)
	for _, r := range rows {
		if controls[r.ControlID] == nil {
			controls[r.ControlID] = make(map[string]int)
		}
		controls[r.ControlID][r.Status] += r.Count
	}

	total := len(controls)
	passing := 0
	for _, byStatus := range controls {
		if byStatus[StatusPass] > 0 && byStatus[StatusFail] == 0 {
			passing++
		}
	}

	summary := &CoverageSummary{
		TotalControls: total,
		Passing:       passing,
	}
	if total > 0 {
		summary.CoveragePct = math.Round(float64(passing)/float64(total)*1000) / 10
	}

	if s.cache != nil {
		s.cache.Set(ctx, regulation, summary)
	}

	return summary, nil
}

// History returns evidence from the trailing window, optionally narrowed to
// controls whose ID starts with the regulation name.
func (s *Store) History(ctx context.Context, regulation string, days int) ([]Record, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	records, err := s.Get(ctx, Filter{Since: since})
	if err != nil {
		return nil, err
	}

	if regulation == "" {
		return records, nil
	}

	filtered := records[:0]
	for _, r := range records {
		if strings.HasPrefix(r.ControlID, regulation) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks the password in a database URL for logging.
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
