package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/complyscan/grc-engine/internal/config"
	"github.com/complyscan/grc-engine/internal/evidence"
	"github.com/complyscan/grc-engine/internal/logger"
)

func runEvidence(ctx context.Context, args []string) {
	if len(args) < 1 {
		evidenceUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "init":
		runEvidenceInit(ctx, args[1:])
	case "list":
		runEvidenceList(ctx, args[1:])
	case "export":
		runEvidenceExport(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown evidence command: %s\n\n", args[0])
		evidenceUsage()
		os.Exit(1)
	}
}

func evidenceUsage() {
	fmt.Fprintf(os.Stderr, `Usage: grc evidence <command> [options]

Manage the evidence store.

Commands:
  init    Create the evidence schema
  list    Show recorded evidence
  export  Export evidence for auditors

Examples:
  grc evidence init
  grc evidence list --limit 50
  grc evidence export --format parquet --output evidence.parquet
`)
}

func runEvidenceInit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("evidence init", flag.ExitOnError)
	var (
		configPath = fs.String("config", "", "Path to configuration file")
		db         = fs.String("db", "", "Database URL override")
	)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, log := bootstrap(*configPath)
	defer log.Sync()

	store := openStore(cfg, log, *db)
	defer store.Close()

	fmt.Println("Evidence store initialized")
}

func runEvidenceList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("evidence list", flag.ExitOnError)
	var (
		configPath = fs.String("config", "", "Path to configuration file")
		db         = fs.String("db", "", "Database URL override")
		limit      = fs.Int("limit", 20, "Maximum records to show")
		controlID  = fs.String("control", "", "Filter by control ID")
	)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, log := bootstrap(*configPath)
	defer log.Sync()

	store := openStore(cfg, log, *db)
	defer store.Close()

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	records, err := store.Get(queryCtx, evidence.Filter{ControlID: *controlID, Limit: *limit})
	if err != nil {
		log.Fatal("Failed to query evidence", zap.Error(err))
	}

	if len(records) == 0 {
		fmt.Println("No evidence recorded yet. Run 'grc scan --record' first.")
		return
	}

	for _, r := range records {
		created := r.CreatedAt
		if len(created) > 19 {
			created = created[:19]
		}
		fmt.Printf("  %s  %-25s  %-8s  %s\n", created, r.ControlID, r.Status, r.FilePath)
	}
}

func runEvidenceExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("evidence export", flag.ExitOnError)
	var (
		configPath = fs.String("config", "", "Path to configuration file")
		db         = fs.String("db", "", "Database URL override")
		format     = fs.String("format", "json", "Export format: json or parquet")
		output     = fs.String("output", "", "Output file path")
	)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, log := bootstrap(*configPath)
	defer log.Sync()

	store := openStore(cfg, log, *db)
	defer store.Close()

	queryCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	records, err := store.Get(queryCtx, evidence.Filter{Limit: 10000})
	if err != nil {
		log.Fatal("Failed to query evidence", zap.Error(err))
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal("Failed to create output file", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	switch *format {
	case "json":
		err = evidence.ExportJSON(out, records)
	case "parquet":
		if *output == "" {
			log.Fatal("Parquet export requires --output")
		}
		err = evidence.ExportParquet(out, records)
	default:
		log.Fatal("Unknown export format", zap.String("format", *format))
	}
	if err != nil {
		log.Fatal("Export failed", zap.Error(err))
	}

	if *output != "" {
		fmt.Printf("Exported %d records to %s\n", len(records), *output)
	}
}

// openStore connects to the evidence store, honoring a --db override.
func openStore(cfg *config.Config, log *logger.Logger, dbOverride string) *evidence.Store {
	storeConfig := &evidence.Config{
		DatabaseURL:     cfg.Evidence.DatabaseURL,
		MaxOpenConns:    cfg.Evidence.MaxOpenConns,
		MaxIdleConns:    cfg.Evidence.MaxIdleConns,
		ConnMaxLifetime: cfg.Evidence.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Evidence.ConnMaxIdleTime,
	}
	if dbOverride != "" {
		storeConfig.DatabaseURL = dbOverride
	}

	store, err := evidence.NewStore(storeConfig, log.WithComponent("evidence").Logger)
	if err != nil {
		log.Fatal("Failed to open evidence store", zap.Error(err))
	}
	return store
}
