// Package main provides the formatter command: it renders run summaries again from saved reports
// and re-aligns Markdown tables.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/commonality"
	"github.com/JosephCarrino/SwissTARO/internal/config"
	"github.com/JosephCarrino/SwissTARO/internal/formatter"
	"github.com/JosephCarrino/SwissTARO/internal/loader"
	"github.com/JosephCarrino/SwissTARO/internal/originals"
	"github.com/JosephCarrino/SwissTARO/internal/output"
	"github.com/JosephCarrino/SwissTARO/internal/stats"
)

func main() {
	dir := flag.String("dir", "./out", "Directory holding the saved reports")
	start := flag.String("start", "", "Window start of the run to render, YYYY-MM-DD HH:MM:SS")
	end := flag.String("end", "", "Window end of the run to render, YYYY-MM-DD HH:MM:SS")
	strategy := flag.String("strategy", "LINKED", "Equivalence strategy of the run")
	carousels := flag.String("carousels", "INCLUDE_ALL", "Carousel mode of the run")
	targetPath := flag.String("path", "", "Re-align the Markdown files under this path instead of rendering")
	write := flag.Bool("write", false, "Write changes to file (default: false, dry-run)")
	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *targetPath != "" {
		os.Exit(formatTree(*targetPath, *write))
	}

	if *start == "" || *end == "" {
		printUsage()
		os.Exit(1)
	}

	names, err := runNames(*start, *end, *strategy, *carousels)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	summary, err := loadSummary(*dir, names)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	summary.Strategy = strings.ToUpper(*strategy)
	summary.Carousels = strings.ToUpper(*carousels)

	doc := formatter.Render(summary)

	if !*write {
		fmt.Print(doc)
		return
	}

	path := filepath.Join(*dir, names.Summary())
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		log.Fatalf("❌ Failed to write %s: %v\n", path, err)
	}

	fmt.Printf("✅ Rendered: %s\n", path)
}

func runNames(start, end, strategy, carousels string) (output.Names, error) {
	s, err := config.ParseDate(start)
	if err != nil {
		return output.Names{}, err
	}

	e, err := config.ParseDate(end)
	if err != nil {
		return output.Names{}, err
	}

	mode, err := loader.ParseCarouselMode(carousels)
	if err != nil {
		return output.Names{}, err
	}

	return output.NewNames(s, e, strings.ToUpper(strategy), mode.Suffix()), nil
}

// loadSummary reads the reports of one run. Only the commonality matrix is required.
func loadSummary(dir string, names output.Names) (formatter.Summary, error) {
	var summary formatter.Summary

	summary.Matrix = &commonality.Matrix{}
	if err := readReport(dir, names.Commons(), summary.Matrix); err != nil {
		return summary, err
	}

	card := &stats.CardinalityReport{}
	if ok, err := readOptional(dir, names.Cardinalities(), card); err != nil {
		return summary, err
	} else if ok {
		summary.Cardinalities = card
	}

	unpaired := &stats.UnpairedReport{}
	if ok, err := readOptional(dir, names.Unpaired(), unpaired); err != nil {
		return summary, err
	} else if ok {
		summary.Unpaired = unpaired
	}

	orig := &originals.Export{}
	if ok, err := readOptional(dir, names.Originals(), orig); err != nil {
		return summary, err
	} else if ok {
		summary.Originals = orig
	}

	flows := &commonality.Matrix{}
	if ok, err := readOptional(dir, names.Flows(), flows); err != nil {
		return summary, err
	} else if ok {
		summary.Flows = flows
	}

	return summary, nil
}

func readReport(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return nil
}

func readOptional(dir, name string, v any) (bool, error) {
	err := readReport(dir, name, v)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return err == nil, err
}

// formatTree re-aligns and re-signs every Markdown file under root. It returns the exit code.
func formatTree(root string, write bool) int {
	count, changed, failed := 0, 0, 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("❌ Error accessing path %s: %v\n", path, err)

			failed++

			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}

		count++

		wasChanged, procErr := processFile(path, write)

		switch {
		case procErr != nil:
			fmt.Printf("❌ Failed to process %s: %v\n", path, procErr)

			failed++
		case wasChanged && write:
			changed++

			fmt.Printf("✅ Formatted & Signed: %s\n", path)
		case wasChanged:
			changed++

			fmt.Printf("📝 Would format & sign: %s\n", path)
		}

		return nil
	})
	if err != nil {
		log.Printf("❌ Error walking path: %v\n", err)
		return 1
	}

	fmt.Printf("\n📈 Scanned: %d files, changed: %d, errors: %d\n", count, changed, failed)

	if failed > 0 || (changed > 0 && !write) {
		return 1
	}

	return 0
}

func processFile(path string, write bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	formatted, err := formatter.FormatMarkdown(string(content))
	if err != nil {
		return false, err
	}

	if sameBody(formatted, string(content)) {
		return false, nil
	}

	if write {
		if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
			return false, err
		}
	}

	return true, nil
}

// sameBody ignores the signing time, which changes on every run.
func sameBody(a, b string) bool {
	strip := func(s string) string {
		var kept []string

		for line := range strings.SplitSeq(s, "\n") {
			if !strings.HasPrefix(line, "LAST_MODIFY:") {
				kept = append(kept, line)
			}
		}

		return strings.Join(kept, "\n")
	}

	return strip(a) == strip(b)
}

func printUsage() {
	fmt.Println("Usage: ./bin/formatter [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println(`  ./bin/formatter -dir out -start "2023-09-27 15:00:00" -end "2023-09-27 22:01:00"`)
	fmt.Println("  ./bin/formatter -path out -write")
}
