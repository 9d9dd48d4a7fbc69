package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/complyscan/grc-engine/internal/config"
	"github.com/complyscan/grc-engine/internal/evidence"
	"github.com/complyscan/grc-engine/internal/logger"
	"github.com/complyscan/grc-engine/internal/pipeline"
	"github.com/complyscan/grc-engine/internal/report"
	"github.com/complyscan/grc-engine/internal/scanner"
	"github.com/complyscan/grc-engine/internal/scoring"
)

func runScan(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	var (
		configPath = fs.String("config", "", "Path to configuration file")
		regulation = fs.String("regulation", "", "Filter to a specific regulation (e.g. DORA)")
		extensions = fs.String("extensions", "", "Comma-separated file extensions (e.g. .py,.yaml)")
		maxFiles   = fs.Int("max-files", 0, "Maximum files to scan (0 uses the configured default)")
		format     = fs.String("format", "text", "Output format: text, json, or markdown")
		output     = fs.String("output", "", "Output file path")
		failUnder  = fs.Float64("fail-under", -1, "Exit code 1 if any regulation score is below this percentage")
		record     = fs.Bool("record", false, "Record scan results to the evidence store")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: grc scan [options] <path>

Scan a source tree for regulatory compliance patterns and score coverage
per regulation.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  grc scan .
  grc scan --regulation DORA --format json --output report.json ./src
  grc scan --fail-under 70 .
  grc scan --record .
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	target := "."
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}

	cfg, log := bootstrap(*configPath)
	defer log.Sync()

	cat := loadCatalog(cfg, log, *regulation)

	opts := scanner.Options{
		Extensions:  cfg.Scan.Extensions,
		ExcludeDirs: cfg.Scan.ExcludeDirs,
		MaxFiles:    cfg.Scan.MaxFiles,
		MaxDuration: cfg.Scan.MaxDuration,
	}
	if *extensions != "" {
		opts.Extensions = splitExtensions(*extensions)
	}
	if *maxFiles > 0 {
		opts.MaxFiles = *maxFiles
	}

	scanLog := log.WithComponent("scanner").WithScanTarget(target)
	result := pipeline.New(cat, opts, scanLog.Logger).Run(ctx, target)

	if err := renderResult(result, *format, *output); err != nil {
		log.Fatal("Failed to render report", zap.Error(err))
	}

	if *record {
		recordResult(ctx, cfg, log, result)
	}

	// CI/CD quality gate
	if *failUnder >= 0 {
		failed := false
		for reg, score := range result.Scores {
			if score.Pct < *failUnder {
				fmt.Fprintf(os.Stderr, "FAILED: %s score %.1f%% < %.1f%% threshold\n",
					reg, score.Pct, *failUnder)
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
	}
}

// renderResult writes the scan result in the requested format.
func renderResult(result *scoring.ScanResult, format, output string) error {
	switch format {
	case "json":
		content, err := report.JSON(result)
		if err != nil {
			return err
		}
		return writeReport(output, append(content, '\n'))
	case "markdown":
		return writeReport(output, []byte(report.Markdown(result)))
	case "text":
		report.Scorecard(os.Stdout, result)
		if output != "" {
			// The scorecard went to the terminal; the file gets the full report
			content, err := report.JSON(result)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, append(content, '\n'), 0644); err != nil {
				return err
			}
			fmt.Printf("Full report written to %s\n", output)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s (must be text, json, or markdown)", format)
	}
}

// writeReport sends content to a file or stdout.
func writeReport(output string, content []byte) error {
	if output == "" {
		_, err := os.Stdout.Write(content)
		return err
	}
	if err := os.WriteFile(output, content, 0644); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", output)
	return nil
}

// recordResult commits the scan result to the evidence store.
func recordResult(ctx context.Context, cfg *config.Config, log *logger.Logger, result *scoring.ScanResult) {
	store, err := evidence.NewStore(&evidence.Config{
		DatabaseURL:     cfg.Evidence.DatabaseURL,
		MaxOpenConns:    cfg.Evidence.MaxOpenConns,
		MaxIdleConns:    cfg.Evidence.MaxIdleConns,
		ConnMaxLifetime: cfg.Evidence.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Evidence.ConnMaxIdleTime,
	}, log.WithComponent("evidence").Logger)
	if err != nil {
		log.Fatal("Failed to open evidence store", zap.Error(err))
	}
	defer store.Close()

	if cfg.Cache.Enabled {
		cache, err := evidence.NewSummaryCache(&evidence.CacheConfig{
			RedisURL:       cfg.Cache.RedisURL,
			DefaultTTL:     cfg.Cache.DefaultTTL,
			MaxConnections: cfg.Cache.MaxConnections,
			MinIdleConns:   cfg.Cache.MinIdleConns,
		}, log.WithComponent("cache").Logger)
		if err != nil {
			log.Warn("Summary cache unavailable, continuing without it", zap.Error(err))
		} else {
			defer cache.Close()
			store.WithCache(cache)
		}
	}

	recordCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	ids, err := store.Record(recordCtx, result)
	if err != nil {
		log.Fatal("Failed to record evidence", zap.Error(err))
	}
	fmt.Printf("Recorded %d evidence records\n", len(ids))
}

// splitExtensions parses a comma-separated extension list.
func splitExtensions(s string) []string {
	parts := strings.Split(s, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		exts = append(exts, p)
	}
	return exts
}
