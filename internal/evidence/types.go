package evidence

import "time"

// Evidence status values. A record asserts what a scan observed for one
// control at one point in time.
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusPartial = "partial"
	StatusStale   = "stale"
)

// Record is one persisted piece of compliance evidence.
type Record struct {
	EvidenceID  string `db:"evidence_id" json:"evidence_id"`
	ControlID   string `db:"control_id" json:"control_id"`
	Source      string `db:"source" json:"source"`
	FilePath    string `db:"file_path" json:"file_path,omitempty"`
	ContentHash string `db:"content_hash" json:"content_hash"`
	Status      string `db:"status" json:"status"`
	Details     string `db:"details" json:"details,omitempty"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

// Filter narrows evidence queries.
type Filter struct {
	ControlID string
	Since     string // RFC3339 lower bound on created_at
	Limit     int    // defaults to 1000
}

// CoverageSummary aggregates evidence into a pass/fail view per control.
type CoverageSummary struct {
	TotalControls int     `json:"total_controls_with_evidence"`
	Passing       int     `json:"passing"`
	CoveragePct   float64 `json:"coverage_pct"`
}

// Config contains evidence store configuration.
type Config struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// CacheConfig contains the optional Redis summary cache configuration.
type CacheConfig struct {
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}
