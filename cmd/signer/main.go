// Package main provides the signer command-line tool that verifies or
// refreshes the checksum of a deaths artifact.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"deathmap/internal/models"
	"deathmap/internal/store"
	"deathmap/internal/validator"
	"deathmap/pkg/metadata"
)

func main() {
	inputPath := flag.String("input", "", "Path to the artifact (e.g., deaths-2023.json)")
	verify := flag.Bool("verify", false, "Only verify the checksum; do not rewrite")
	pretty := flag.Bool("pretty", true, "Pretty-print when re-signing")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: signer -input <path> [-verify]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	content, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	fmt.Printf("📂 Reading: %s (%d bytes)\n", *inputPath, len(content))

	if *verify {
		ds, loadErr := store.Decode(content)
		if loadErr != nil {
			log.Fatalf("❌ Verification failed: %v\n", loadErr)
		}

		if ds.Metadata.Checksum == "" {
			fmt.Println("⚠️  Artifact is not signed")
			os.Exit(1)
		}

		fmt.Printf("✅ Checksum OK: %s (%d records)\n", ds.Metadata.Checksum, ds.Total)

		return
	}

	// Re-signing accepts a stale checksum but not a broken dataset.
	var ds models.Dataset
	if err := json.Unmarshal(content, &ds); err != nil {
		log.Fatalf("❌ Parse Error: %v\n", err)
	}

	if err := metadata.Verify(ds.Data, ds.Metadata.Checksum); err != nil && !errors.Is(err, metadata.ErrNoHashFound) {
		fmt.Printf("⚠️  Previous checksum did not match: %v\n", err)
	}

	result := validator.NewDatasetValidator().ValidateDataset(&ds)
	fmt.Println(result)

	if !result.IsValid {
		fmt.Println("❌ Skipping signature due to validation failure.")
		os.Exit(1)
	}

	fmt.Println("✍️  Signing file...")

	if err := store.Write(*inputPath, &ds, store.WriteOptions{Pretty: *pretty, Force: true}); err != nil {
		log.Fatalf("Error writing file: %v\n", err)
	}

	fmt.Printf("✅ Signed and saved to: %s (%s)\n", *inputPath, ds.Metadata.Checksum)
}
