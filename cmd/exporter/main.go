// Package main exports a deaths artifact into a SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"deathmap/internal/store"
	"deathmap/internal/store/sqlite"
)

func main() {
	artifact := flag.String("artifact", "public/data/deaths/deaths-2023.json", "Artifact to export")
	dbPath := flag.String("db", "data/deaths.db", "SQLite database path")
	flag.Parse()

	if *artifact == "" || *dbPath == "" {
		fmt.Println("Usage: exporter -artifact <path> -db <path>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ds, err := store.Load(*artifact)
	if err != nil {
		log.Fatalf("❌ Failed to load artifact: %v\n", err)
	}

	fmt.Printf("📂 Loaded: %s (%d records)\n", *artifact, ds.Total)

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	ctx := context.Background()

	if err := sqlite.Export(ctx, db, ds); err != nil {
		log.Fatalf("❌ Export failed: %v\n", err)
	}

	counts, err := sqlite.CountByType(ctx, db)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	for t, n := range counts {
		if ds.ByType[t] != n {
			log.Fatalf("❌ Row count mismatch for %s: %d in db, %d in artifact\n", t, n, ds.ByType[t])
		}
	}

	fmt.Printf("✅ Exported %d records to: %s\n", ds.Total, *dbPath)
}
