// Package main provides the normalizer command: it writes the deduplicated, normalized edition
// set the analyzer would see for a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/config"
	"github.com/JosephCarrino/SwissTARO/internal/loader"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/internal/output"
)

func main() {
	dataDir := flag.String("data", "./data", "Snapshot root with one directory per edition")
	outDir := flag.String("out", "./out", "Directory to write the normalized set to")
	start := flag.String("start", "", "Window start, YYYY-MM-DD HH:MM:SS")
	end := flag.String("end", "", "Window end, YYYY-MM-DD HH:MM:SS")
	carousels := flag.String("carousels", "INCLUDE_ALL", "INCLUDE_ALL, EXCLUDE_CAROUSELS or ONLY_CAROUSELS")
	editions := flag.String("editions", "", "Comma-separated editions (default: every directory)")
	flag.Parse()

	log := logger.NewLogger("info")

	if *start == "" || *end == "" {
		fmt.Println("Usage: normalizer -start <date> -end <date> [-data dir] [-out dir]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts, err := buildOptions(*dataDir, *start, *end, *carousels, *editions)
	if err != nil {
		log.Error("invalid arguments", "error", err)
		os.Exit(1)
	}

	set, err := loader.New(opts, log).Load(context.Background())
	if err != nil {
		log.Error("normalization failed", "error", err)
		os.Exit(1)
	}

	for _, e := range set.Editions() {
		fmt.Printf("📊 %s: %d articles\n", e, set.Len(e))
	}

	names := output.NewNames(opts.Window.Start, opts.Window.End, "", opts.Carousels.Suffix())
	name := fmt.Sprintf("normalized_%s_%s%s.json", names.Start, names.End, names.Suffix)

	batch := output.NewBatch(*outDir, log)
	if err := batch.AddJSON(name, set); err != nil {
		log.Error("failed to encode edition set", "error", err)
		os.Exit(1)
	}

	written, err := batch.Commit()
	if err != nil {
		log.Error("failed to write edition set", "error", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Saved to: %s\n", written[0])
}

func buildOptions(dataDir, start, end, carousels, editions string) (loader.Options, error) {
	s, err := config.ParseDate(start)
	if err != nil {
		return loader.Options{}, err
	}

	e, err := config.ParseDate(end)
	if err != nil {
		return loader.Options{}, err
	}

	mode, err := loader.ParseCarouselMode(carousels)
	if err != nil {
		return loader.Options{}, err
	}

	opts := loader.Options{DataDir: dataDir, Window: loader.Window{Start: s, End: e}, Carousels: mode}

	for _, name := range strings.Split(editions, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}

		edition, ok := models.ParseEdition(name)
		if !ok {
			return loader.Options{}, fmt.Errorf("unknown edition %q", name)
		}

		opts.Editions = append(opts.Editions, edition)
	}

	return opts, nil
}
