// Package main provides the overlap command: top-term overlap between editions per day.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/output"
	"github.com/JosephCarrino/SwissTARO/internal/topics"
)

func main() {
	input := flag.String("input", "", "Topic terms JSON: {edition: {date: [terms]}}")
	outDir := flag.String("out", "", "Directory to write the overlap report to (default: stdout)")
	numTerms := flag.Int("terms", topics.DefaultNumTerms, "Number of top terms compared per day")
	level := flag.String("log-level", "info", "Log level")

	flag.Parse()

	log := logger.NewLogger(*level)

	if *input == "" {
		fmt.Println("Usage: overlap -input <terms.json> [-out <dir>] [-terms N]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	terms, err := topics.LoadTerms(*input)
	if err != nil {
		log.Error("failed to load terms", "path", *input, "error", err)
		os.Exit(1)
	}

	report, err := topics.NewAnalyzer(*numTerms).Analyze(terms)
	if err != nil {
		log.Error("overlap analysis failed", "error", err)
		os.Exit(1)
	}

	if *outDir == "" {
		data, err := output.Encode(report)
		if err != nil {
			log.Error("failed to encode report", "error", err)
			os.Exit(1)
		}

		fmt.Print(string(data))

		return
	}

	name := "overlap_" + filepath.Base(*input)

	batch := output.NewBatch(*outDir, log)
	if err := batch.AddJSON(name, report); err != nil {
		log.Error("failed to encode report", "error", err)
		os.Exit(1)
	}

	if _, err := batch.Commit(); err != nil {
		log.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	log.Info("overlap report written", "path", filepath.Join(*outDir, name), "combinations", len(report.Average))
}
