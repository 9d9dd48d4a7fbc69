package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/complyscan/grc-engine/internal/catalog"
	"github.com/complyscan/grc-engine/internal/config"
	"github.com/complyscan/grc-engine/internal/logger"
)

func runPatterns(ctx context.Context, args []string) {
	if len(args) < 1 {
		patternsUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		runPatternsList(args[1:])
	case "show":
		runPatternsShow(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown patterns command: %s\n\n", args[0])
		patternsUsage()
		os.Exit(1)
	}
}

func patternsUsage() {
	fmt.Fprintf(os.Stderr, `Usage: grc patterns <command> [options]

Inspect the compliance pattern catalog.

Commands:
  list  List all available patterns
  show  Show details for a specific control

Examples:
  grc patterns list --regulation DORA
  grc patterns show DORA:Article_5
`)
}

func runPatternsList(args []string) {
	fs := flag.NewFlagSet("patterns list", flag.ExitOnError)
	var (
		configPath = fs.String("config", "", "Path to configuration file")
		regulation = fs.String("regulation", "", "Filter by regulation")
	)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, log := bootstrap(*configPath)
	defer log.Sync()

	cat := loadCatalog(cfg, log, *regulation)

	patterns := cat.Patterns()
	if len(patterns) == 0 {
		fmt.Println("No patterns found.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Pattern ID", "Control", "Regulation", "Label"})
	table.SetBorder(false)
	for _, p := range patterns {
		table.Append([]string{p.PatternID, p.ControlID, p.Regulation, p.Label})
	}
	table.Render()

	fmt.Printf("\nTotal: %d patterns\n", len(patterns))
}

func runPatternsShow(args []string) {
	fs := flag.NewFlagSet("patterns show", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grc patterns show <control_id>")
		os.Exit(1)
	}
	controlID := fs.Arg(0)

	cfg, log := bootstrap(*configPath)
	defer log.Sync()

	cat := loadCatalog(cfg, log, "")

	patterns := cat.ControlPatterns(controlID)
	if len(patterns) == 0 {
		fmt.Printf("No patterns found for %s\n", controlID)
		return
	}

	for _, p := range patterns {
		language := p.Language
		if language == "" {
			language = "any"
		}
		fmt.Printf("Pattern:     %s\n", p.PatternID)
		fmt.Printf("Control:     %s\n", p.ControlID)
		fmt.Printf("Label:       %s\n", p.Label)
		fmt.Printf("Description: %s\n", p.Description)
		fmt.Printf("Regulation:  %s\n", p.Regulation)
		fmt.Printf("Language:    %s\n", language)
		fmt.Printf("Regex:       %s\n", p.DetectionRegex)
		if p.ExampleCode != "" {
			fmt.Printf("Example:     %s\n", p.ExampleCode)
		}
		fmt.Println()
	}
}

// loadCatalog loads the pattern catalog from the configured paths.
func loadCatalog(cfg *config.Config, log *logger.Logger, regulation string) *catalog.Catalog {
	cat, err := catalog.Load(catalog.LoadOptions{
		PatternsPath:         cfg.Catalog.PatternsPath,
		CriticalControlsPath: cfg.Catalog.CriticalControlsPath,
		Regulation:           regulation,
	}, log.WithComponent("catalog").Logger)
	if err != nil {
		log.Fatal("Failed to load pattern catalog", zap.Error(err))
	}
	return cat
}
