// Package main prints a markdown statistics report for a deaths artifact.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"deathmap/internal/filter"
	"deathmap/internal/formatter"
	"deathmap/internal/models"
	"deathmap/internal/stats"
	"deathmap/internal/store"
)

func main() {
	artifact := flag.String("artifact", "public/data/deaths/deaths-2023.json", "Artifact to summarize")
	years := flag.String("years", "", "Comma-separated years")
	types := flag.String("types", "", "Comma-separated death types (homicidio,suicidio)")
	departments := flag.String("departments", "", "Comma-separated departments")
	municipalities := flag.String("municipalities", "", "Comma-separated municipalities")
	genders := flag.String("gender", "", "Comma-separated gender codes (M,F,O)")
	ageMin := flag.Int("age-min", filter.MinAge, "Minimum age (inclusive)")
	ageMax := flag.Int("age-max", filter.MaxAge, "Maximum age (inclusive)")
	from := flag.String("from", "", "Start date YYYY-MM-DD (requires -to)")
	to := flag.String("to", "", "End date YYYY-MM-DD (requires -from)")
	top := flag.Int("top", stats.DefaultTopDepartments, "Departments to list")
	output := flag.String("output", "", "Write the report to this file instead of stdout")

	flag.Parse()

	ds, err := store.Load(*artifact)
	if err != nil {
		log.Fatalf("❌ Failed to load artifact: %v\n", err)
	}

	patch := filter.Patch{AgeRange: &filter.AgeRange{*ageMin, *ageMax}}

	if *years != "" {
		ys, parseErr := parseYears(*years)
		if parseErr != nil {
			log.Fatalf("❌ Invalid -years: %v\n", parseErr)
		}

		patch.Years = &ys
	}

	if list := splitList(*types); list != nil {
		ts := make([]models.DeathType, len(list))
		for i, t := range list {
			ts[i] = models.DeathType(t)
		}

		patch.DeathTypes = &ts
	}

	if list := splitList(*departments); list != nil {
		patch.Departments = &list
	}

	if list := splitList(*municipalities); list != nil {
		patch.Municipalities = &list
	}

	if list := splitList(*genders); list != nil {
		gs := make([]models.Gender, len(list))
		for i, g := range list {
			gs[i] = models.Gender(strings.ToUpper(g))
		}

		patch.Gender = &gs
	}

	if *from != "" || *to != "" {
		dr, parseErr := parseDateRange(*from, *to)
		if parseErr != nil {
			log.Fatalf("❌ Invalid date range: %v\n", parseErr)
		}

		patch.DateRange = &dr
	}

	engine := filter.New(ds.Data)
	if err := engine.SetFilters(patch); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	spec, records := engine.Snapshot()

	report := formatter.Report(formatter.ReportInput{
		Metadata:     ds.Metadata,
		Year:         ds.Year,
		DatasetTotal: ds.Total,
		Filters:      spec,
		Summary:      stats.Compute(records, *top),
	})

	if *output == "" {
		fmt.Print(report)
		return
	}

	if err := os.WriteFile(*output, []byte(report), 0644); err != nil {
		log.Fatalf("Error writing file: %v\n", err)
	}

	fmt.Printf("✅ Saved to: %s\n", *output)
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func parseYears(s string) ([]int, error) {
	var years []int

	for _, part := range splitList(s) {
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}

		years = append(years, y)
	}

	return years, nil
}

func parseDateRange(from, to string) (filter.DateRange, error) {
	if from == "" || to == "" {
		return filter.DateRange{}, fmt.Errorf("both -from and -to are required")
	}

	start, err := filter.ParseDate(from)
	if err != nil {
		return filter.DateRange{}, err
	}

	end, err := filter.ParseDate(to)
	if err != nil {
		return filter.DateRange{}, err
	}

	return filter.DateRange{&start, &end}, nil
}
