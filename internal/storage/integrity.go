package storage

import (
	"context"
	"fmt"
)

// countedTables is the fixed allowlist for Counts. Table names are never
// taken from input.
var countedTables = []string{
	"majors",
	"students",
	"courses",
	"enrollments",
	"graduation_requirements",
	"requirement_docs",
}

// Counts returns the row count per table.
func (db *DB) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(countedTables))
	for _, table := range countedTables {
		var n int
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// IntegrityIssues reports referential problems a bulk load can introduce:
// enrollments pointing at missing students or courses, students with an
// unknown major, and majors whose admitted students have no graduation
// requirement rules.
func (db *DB) IntegrityIssues(ctx context.Context) ([]string, error) {
	var issues []string

	checks := []struct {
		label string
		query string
	}{
		{
			"enrollments with unknown student",
			`SELECT COUNT(*) FROM enrollments e
			 LEFT JOIN students s ON s.student_id = e.student_id
			 WHERE s.student_id IS NULL`,
		},
		{
			"enrollments with unknown course",
			`SELECT COUNT(*) FROM enrollments e
			 LEFT JOIN courses c ON c.course_code = e.course_code
			 WHERE c.course_code IS NULL`,
		},
		{
			"students with unknown major",
			`SELECT COUNT(*) FROM students s
			 LEFT JOIN majors m ON m.major_code = s.major_code
			 WHERE m.major_code IS NULL`,
		},
		{
			"student cohorts without requirement rules",
			`SELECT COUNT(*) FROM (
			   SELECT DISTINCT s.major_code, s.admission_year FROM students s
			   LEFT JOIN graduation_requirements r
			     ON r.major_code = s.major_code AND r.admission_year = s.admission_year
			   WHERE r.major_code IS NULL
			 )`,
		},
		{
			"requirement docs with empty content",
			`SELECT COUNT(*) FROM requirement_docs WHERE TRIM(content) = ''`,
		},
	}

	for _, check := range checks {
		var n int
		if err := db.conn.QueryRowContext(ctx, check.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("integrity check %q: %w", check.label, err)
		}
		if n > 0 {
			issues = append(issues, fmt.Sprintf("%s: %d", check.label, n))
		}
	}
	return issues, nil
}
