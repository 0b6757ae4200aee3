// Package main provides the signer command-line tool for signing and verifying run summaries.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/validator"
	"github.com/JosephCarrino/SwissTARO/pkg/metadata"
)

func main() {
	inputPath := flag.String("input", "", "Path to input file (e.g., summary_....md)")
	verify := flag.Bool("verify", false, "Verify the signature instead of signing")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: signer -input <path> [-verify]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	contentBytes, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	content := string(contentBytes)
	fmt.Printf("📂 Reading: %s (%d bytes)\n", *inputPath, len(content))

	if *verify {
		result := validator.New(logger.NewLogger("warn")).ValidateSummary(content)
		if !result.IsValid() {
			log.Fatalf("❌ %v\n", result.Err())
		}

		meta, _ := metadata.Extract(content)
		fmt.Printf("✅ Signature valid (run %s, signed %s, validation %t)\n",
			meta.RunID, meta.LastModify.Format("2006-01-02 15:04:05"), meta.Validation)

		return
	}

	// Keep the run id and validation status of an existing block.
	next := metadata.Metadata{}
	if meta, _ := metadata.Extract(content); meta != nil {
		next.RunID = meta.RunID
		next.Validation = meta.Validation
	}

	fmt.Println("✍️  Signing file...")

	signed := metadata.SignWith(content, next)
	if err := os.WriteFile(*inputPath, []byte(signed), 0644); err != nil {
		log.Fatalf("Error writing file: %v\n", err)
	}

	fmt.Printf("✅ Signed and saved to: %s\n", *inputPath)
}
