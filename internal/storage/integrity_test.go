package storage

import (
	"context"
	"strings"
	"testing"
)

func TestCounts(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)

	counts, err := db.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() = %v", err)
	}
	want := map[string]int{
		"majors":                  2,
		"students":                3,
		"courses":                 5,
		"enrollments":             4,
		"graduation_requirements": 2,
		"requirement_docs":        1,
	}
	for table, n := range want {
		if counts[table] != n {
			t.Errorf("counts[%s] = %d, want %d", table, counts[table], n)
		}
	}
}

func TestIntegrityIssues(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	ctx := context.Background()

	// The 2022 psychology cohort has no requirement rules in the fixture.
	issues, err := db.IntegrityIssues(ctx)
	if err != nil {
		t.Fatalf("IntegrityIssues() = %v", err)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "cohorts without requirement rules") {
		t.Fatalf("issues = %v, want one missing-rules issue", issues)
	}

	rule := RequirementRule{MajorCode: "PS01", AdmissionYear: 2022, Category: "전공필수", RequiredCredits: 40}
	if err := db.SaveRequirementRule(ctx, &rule); err != nil {
		t.Fatalf("SaveRequirementRule: %v", err)
	}

	issues, err = db.IntegrityIssues(ctx)
	if err != nil {
		t.Fatalf("IntegrityIssues() = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
}

func TestReset(t *testing.T) {
	db := setupTestDB(t)
	seedFixtures(t, db)
	ctx := context.Background()

	if err := db.Reset(ctx); err != nil {
		t.Fatalf("Reset() = %v", err)
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() = %v", err)
	}
	for table, n := range counts {
		if n != 0 {
			t.Errorf("counts[%s] = %d after reset, want 0", table, n)
		}
	}
}
