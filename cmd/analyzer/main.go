// Package main provides the analyzer command that runs the commonality pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JosephCarrino/SwissTARO/internal/config"
	"github.com/JosephCarrino/SwissTARO/internal/loader"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "configs/analyzer.yaml", "Path to YAML configuration file")
	start := flag.String("start", "", "Window start, YYYY-MM-DD HH:MM:SS (overrides config)")
	end := flag.String("end", "", "Window end, YYYY-MM-DD HH:MM:SS (overrides config)")
	strategy := flag.String("strategy", "", "Equivalence strategy: LINKED or SIMILARITY (overrides config)")
	carousels := flag.String("carousels", "", "INCLUDE_ALL, EXCLUDE_CAROUSELS or ONLY_CAROUSELS (overrides config)")
	allCarousels := flag.Bool("all-carousels", false, "Run once per carousel mode; reports of all modes are written together or not at all")

	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	overrides := map[*string]string{
		&cfg.Analysis.StartDate: *start,
		&cfg.Analysis.EndDate:   *end,
		&cfg.Analysis.Strategy:  *strategy,
		&cfg.Analysis.Carousels: *carousels,
	}

	for field, value := range overrides {
		if value != "" {
			*field = value
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log.Info("🚀 Starting SwissTARO analyzer", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	modes := []string{cfg.Analysis.Carousels}
	if *allCarousels {
		modes = modes[:0]
		for _, m := range loader.CarouselModes {
			modes = append(modes, m.String())
		}
	}

	results, err := pipeline.RunModes(ctx, cfg, modes, log)
	if err != nil {
		log.Error("❌ Run failed", "carousels", modes, "error", err)
		stop()
		os.Exit(1)
	}

	for i, res := range results {
		printReport(modes[i], res)
	}
}

// loadConfig reads path, falling back to the defaults when the default file is absent.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil && path == "configs/analyzer.yaml" {
		return config.Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return config.Parse(data)
}

func printReport(mode string, res *pipeline.Result) {
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report (%s)\n", mode)
	fmt.Println("------------------------------------------------")
	fmt.Printf("Run ID:     %s\n", res.RunID)

	for _, e := range res.Set.Editions() {
		fmt.Printf("%-11s %d articles\n", string(e)+":", res.Set.Len(e))
	}

	fmt.Printf("Clusters:   %d (%d anomalies)\n", res.Clusters.Len(), len(res.Clusters.Anomalies))
	fmt.Printf("Validation: %s\n", res.Validation)
	fmt.Printf("Duration:   %v\n", res.Duration)

	for _, path := range res.Files {
		fmt.Printf("  ✅ %s\n", path)
	}

	fmt.Println("------------------------------------------------")
}
