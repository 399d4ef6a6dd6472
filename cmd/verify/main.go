// Package main provides the store verification tool. It checks the loaded
// advising data for referential problems a bulk load can introduce and
// exits non-zero when any check fails.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/haksamate/advisor-go/internal/config"
	"github.com/haksamate/advisor-go/internal/storage"
)

type verifyResult struct {
	name    string
	passed  bool
	message string
}

func main() {
	fmt.Println("Advisor store verification")
	fmt.Println("==========================")

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results := runChecks(ctx, db)

	passed, failed := 0, 0
	for _, result := range results {
		status := "FAIL"
		if result.passed {
			status = "ok"
			passed++
		} else {
			failed++
		}
		fmt.Printf("[%s] %s: %s\n", status, result.name, result.message)
	}

	fmt.Printf("\nSummary: %d passed, %d failed\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func runChecks(ctx context.Context, db *storage.DB) []verifyResult {
	var results []verifyResult

	counts, err := db.Counts(ctx)
	if err != nil {
		return append(results, verifyResult{
			name:    "Row counts",
			passed:  false,
			message: err.Error(),
		})
	}

	// An empty store serves nothing; every core table must have rows.
	for _, table := range []string{"majors", "students", "courses", "graduation_requirements"} {
		results = append(results, verifyResult{
			name:    fmt.Sprintf("Table %s populated", table),
			passed:  counts[table] > 0,
			message: fmt.Sprintf("%d rows", counts[table]),
		})
	}
	results = append(results, verifyResult{
		name:    "Requirement documents present",
		passed:  counts["requirement_docs"] > 0,
		message: fmt.Sprintf("%d rows (similarity search degrades without them)", counts["requirement_docs"]),
	})

	issues, err := db.IntegrityIssues(ctx)
	if err != nil {
		return append(results, verifyResult{
			name:    "Referential integrity",
			passed:  false,
			message: err.Error(),
		})
	}
	if len(issues) == 0 {
		results = append(results, verifyResult{
			name:    "Referential integrity",
			passed:  true,
			message: "no issues found",
		})
	} else {
		for _, issue := range issues {
			results = append(results, verifyResult{
				name:    "Referential integrity",
				passed:  false,
				message: issue,
			})
		}
	}

	return results
}
