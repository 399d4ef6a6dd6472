// Package main provides the data seeding tool. It loads an advising
// dataset from a JSON file into the SQLite store and, when a Gemini API
// key is configured, builds the requirement-document vector index so the
// server starts with a warm similarity search.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/haksamate/advisor-go/internal/config"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/rag"
	"github.com/haksamate/advisor-go/internal/storage"
)

var (
	fileFlag  = flag.String("file", "", "Path to the dataset JSON file (required)")
	resetFlag = flag.Bool("reset", false, "Delete all existing data before loading")
	indexFlag = flag.Bool("index", false, "Build the vector index after loading (requires GEMINI_API_KEY)")
)

// dataset is the on-disk shape of one advising data drop.
type dataset struct {
	Majors           []storage.Major           `json:"majors"`
	Students         []storage.Student         `json:"students"`
	Courses          []storage.Course          `json:"courses"`
	Enrollments      []storage.Enrollment      `json:"enrollments"`
	RequirementRules []storage.RequirementRule `json:"requirement_rules"`
	RequirementDocs  []storage.RequirementDoc  `json:"requirement_docs"`
}

func main() {
	flag.Parse()

	if *fileFlag == "" {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: seed -file dataset.json [-reset] [-index]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Infof("Starting seed tool")

	ds, err := loadDataset(*fileFlag)
	if err != nil {
		log.WithError(err).Errorf("Failed to read dataset")
		os.Exit(1)
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Errorf("Failed to open database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Infof("Database connected")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *resetFlag {
		log.Warnf("Resetting store data...")
		if err := db.Reset(ctx); err != nil {
			log.WithError(err).Errorf("Reset failed")
			os.Exit(1)
		}
	}

	start := time.Now()
	if err := loadAll(ctx, db, ds); err != nil {
		log.WithError(err).Errorf("Load failed")
		os.Exit(1)
	}
	log.WithFields(map[string]any{
		"majors":            len(ds.Majors),
		"students":          len(ds.Students),
		"courses":           len(ds.Courses),
		"enrollments":       len(ds.Enrollments),
		"requirement_rules": len(ds.RequirementRules),
		"requirement_docs":  len(ds.RequirementDocs),
		"elapsed":           time.Since(start).Round(time.Millisecond).String(),
	}).Infof("Dataset loaded")

	if *indexFlag {
		if err := buildVectorIndex(ctx, cfg, db, log); err != nil {
			log.WithError(err).Errorf("Vector index build failed")
			os.Exit(1)
		}
	}

	fmt.Println("Seed complete")
}

func loadDataset(path string) (*dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// loadAll upserts the dataset in foreign-key order: majors before
// students, students and courses before enrollments.
func loadAll(ctx context.Context, db *storage.DB, ds *dataset) error {
	for i := range ds.Majors {
		if err := db.SaveMajor(ctx, &ds.Majors[i]); err != nil {
			return err
		}
	}
	for i := range ds.Students {
		if err := db.SaveStudent(ctx, &ds.Students[i]); err != nil {
			return err
		}
	}
	for i := range ds.Courses {
		if err := db.SaveCourse(ctx, &ds.Courses[i]); err != nil {
			return err
		}
	}
	for i := range ds.Enrollments {
		if err := db.SaveEnrollment(ctx, &ds.Enrollments[i]); err != nil {
			return err
		}
	}
	for i := range ds.RequirementRules {
		if err := db.SaveRequirementRule(ctx, &ds.RequirementRules[i]); err != nil {
			return err
		}
	}
	for i := range ds.RequirementDocs {
		if err := db.SaveRequirementDoc(ctx, &ds.RequirementDocs[i]); err != nil {
			return err
		}
	}
	return nil
}

func buildVectorIndex(ctx context.Context, cfg *config.Config, db *storage.DB, log *logger.Logger) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for -index")
	}

	docs, err := db.ListRequirementDocs(ctx)
	if err != nil {
		return fmt.Errorf("list requirement docs: %w", err)
	}
	if len(docs) == 0 {
		log.Warnf("No requirement documents to index")
		return nil
	}

	vectorDB, err := rag.NewVectorDB(cfg.DataDir, cfg.GeminiAPIKey, log)
	if err != nil {
		return fmt.Errorf("create vector store: %w", err)
	}
	if err := vectorDB.Initialize(ctx, docs); err != nil {
		return fmt.Errorf("initialize vector store: %w", err)
	}

	log.WithField("documents", len(docs)).Infof("Vector index built")
	return nil
}
