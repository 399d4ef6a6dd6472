package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/haksamate/advisor-go/internal/config"
	domerrors "github.com/haksamate/advisor-go/internal/errors"
)

// slowQueryThreshold triggers a warning log for long-running statements.
const slowQueryThreshold = 100 * time.Millisecond

// queryCtx bounds one store read with config.StoreQuery. A tighter parent
// deadline is kept as is.
func queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, config.StoreQuery)
}

func (db *DB) warnSlow(ctx context.Context, op string, start time.Time) {
	if d := time.Since(start); d > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", op,
			"duration_ms", d.Milliseconds())
	}
}

// GetStudentByID retrieves a student joined with its major.
// Returns domerrors.ErrNotFound if no such student exists.
func (db *DB) GetStudentByID(ctx context.Context, id string) (*Student, error) {
	query := `
		SELECT s.student_id, s.name, s.major_code, s.admission_year, s.completed_semester,
		       COALESCE(m.college, ''), COALESCE(m.department, ''), COALESCE(m.major_name, '')
		FROM students s
		LEFT JOIN majors m ON s.major_code = m.major_code
		WHERE s.student_id = ?
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "GetStudentByID", start)

	var st Student
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&st.ID, &st.Name, &st.MajorCode, &st.AdmissionYear, &st.CompletedSemester,
		&st.College, &st.Department, &st.MajorName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.ErrNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query student", "error", err)
		return nil, fmt.Errorf("query student: %w", err)
	}
	return &st, nil
}

// GetCohortStats returns anonymized statistics for students sharing the
// given major and admission year.
func (db *DB) GetCohortStats(ctx context.Context, majorCode string, admissionYear int) (*CohortStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(completed_semester), 0)
		FROM students
		WHERE major_code = ? AND admission_year = ?
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "GetCohortStats", start)

	stats := &CohortStats{MajorCode: majorCode, AdmissionYear: admissionYear}
	err := db.conn.QueryRowContext(ctx, query, majorCode, admissionYear).
		Scan(&stats.StudentCount, &stats.AvgCompletedSems)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query cohort stats", "error", err)
		return nil, fmt.Errorf("query cohort stats: %w", err)
	}
	return stats, nil
}

// SearchCourses returns one page of catalog courses matching the filter,
// plus the total match count. An empty filter returns the full catalog
// page by page, ordered by course code for stable pagination.
func (db *DB) SearchCourses(ctx context.Context, filter CourseFilter, limit, offset int) ([]Course, int, error) {
	where, args := buildCourseWhere(filter)

	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "SearchCourses", start)

	var total int
	countQuery := "SELECT COUNT(*) FROM courses" + where
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		slog.ErrorContext(ctx, "failed to count courses", "error", err)
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	query := `
		SELECT course_code, course_name, credits, course_type, department,
		       professor, target_grade, prerequisite, year, term, note
		FROM courses` + where + `
		ORDER BY course_code ASC
		LIMIT ? OFFSET ?
	`
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query courses", "error", err)
		return nil, 0, fmt.Errorf("query courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.Code, &c.Name, &c.Credits, &c.CourseType, &c.Department,
			&c.Professor, &c.TargetGrade, &c.Prerequisite, &c.Year, &c.Term, &c.Note); err != nil {
			return nil, 0, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, total, rows.Err()
}

// buildCourseWhere assembles the WHERE clause for a course filter.
// Every value is bound as a parameter; user text never reaches the SQL text.
func buildCourseWhere(filter CourseFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.TitleKeyword != "" {
		conds = append(conds, `course_name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+sanitizeSearchTerm(filter.TitleKeyword)+"%")
	}
	if len(filter.Departments) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Departments))
		conds = append(conds, "department IN ("+placeholders[:len(placeholders)-1]+")")
		for _, d := range filter.Departments {
			args = append(args, d)
		}
	}
	if filter.Professor != "" {
		conds = append(conds, `professor LIKE ? ESCAPE '\'`)
		args = append(args, "%"+sanitizeSearchTerm(filter.Professor)+"%")
	}
	if filter.CourseType != "" {
		conds = append(conds, "course_type = ?")
		args = append(args, filter.CourseType)
	}
	if filter.TargetGrade > 0 {
		conds = append(conds, "target_grade = ?")
		args = append(args, filter.TargetGrade)
	}
	if filter.Year > 0 && filter.Term > 0 {
		conds = append(conds, "year = ? AND term = ?")
		args = append(args, filter.Year, filter.Term)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListEnrollments returns the student's enrollment records matching the
// filter, ordered by semester ascending then course code.
func (db *DB) ListEnrollments(ctx context.Context, studentID string, filter EnrollmentFilter) ([]Enrollment, error) {
	conds := []string{"e.student_id = ?"}
	args := []any{studentID}

	if filter.Semester != "" {
		conds = append(conds, "e.enrollment_semester = ?")
		args = append(args, filter.Semester)
	}
	if filter.Grade != "" {
		conds = append(conds, "e.grade = ?")
		args = append(args, filter.Grade)
	}
	if filter.Type != "" {
		conds = append(conds, "e.enrollment_type = ?")
		args = append(args, filter.Type)
	}

	query := `
		SELECT e.student_id, e.course_code, COALESCE(c.course_name, ''),
		       e.enrollment_semester, e.enrollment_type, e.earned_credits, e.grade
		FROM enrollments e
		LEFT JOIN courses c ON e.course_code = c.course_code
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY e.enrollment_semester ASC, e.course_code ASC
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "ListEnrollments", start)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query enrollments", "error", err)
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.StudentID, &e.CourseCode, &e.CourseName,
			&e.Semester, &e.Type, &e.EarnedCredits, &e.Grade); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// GetEnrollmentStats summarizes the student's passed enrollments.
func (db *DB) GetEnrollmentStats(ctx context.Context, studentID string) (*EnrollmentStats, error) {
	query := `
		SELECT enrollment_type, enrollment_semester, earned_credits, grade
		FROM enrollments
		WHERE student_id = ?
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "GetEnrollmentStats", start)

	rows, err := db.conn.QueryContext(ctx, query, studentID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query enrollment stats", "error", err)
		return nil, fmt.Errorf("query enrollment stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &EnrollmentStats{CreditsByType: make(map[string]int)}
	semesters := make(map[string]bool)
	for rows.Next() {
		var typ, semester, grade string
		var credits int
		if err := rows.Scan(&typ, &semester, &credits, &grade); err != nil {
			return nil, fmt.Errorf("scan enrollment stats: %w", err)
		}
		stats.TotalCourses++
		semesters[semester] = true
		if IsPassing(grade) {
			stats.TotalCredits += credits
			stats.CreditsByType[typ] += credits
		}
	}
	stats.SemestersCovered = len(semesters)
	return stats, rows.Err()
}

// GetRequirementRules returns the structured graduation requirements for a
// major and admission year, ordered by category for deterministic output.
func (db *DB) GetRequirementRules(ctx context.Context, majorCode string, admissionYear int) ([]RequirementRule, error) {
	query := `
		SELECT major_code, admission_year, category, required_credits
		FROM graduation_requirements
		WHERE major_code = ? AND admission_year = ?
		ORDER BY category ASC
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "GetRequirementRules", start)

	rows, err := db.conn.QueryContext(ctx, query, majorCode, admissionYear)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query requirement rules", "error", err)
		return nil, fmt.Errorf("query requirement rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []RequirementRule
	for rows.Next() {
		var r RequirementRule
		if err := rows.Scan(&r.MajorCode, &r.AdmissionYear, &r.Category, &r.RequiredCredits); err != nil {
			return nil, fmt.Errorf("scan requirement rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetEarnedCreditsByCategory sums the student's passing credits grouped by
// enrollment type.
func (db *DB) GetEarnedCreditsByCategory(ctx context.Context, studentID string) (map[string]int, error) {
	query := `
		SELECT enrollment_type, earned_credits, grade
		FROM enrollments
		WHERE student_id = ?
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "GetEarnedCreditsByCategory", start)

	rows, err := db.conn.QueryContext(ctx, query, studentID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query earned credits", "error", err)
		return nil, fmt.Errorf("query earned credits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	earned := make(map[string]int)
	for rows.Next() {
		var typ, grade string
		var credits int
		if err := rows.Scan(&typ, &credits, &grade); err != nil {
			return nil, fmt.Errorf("scan earned credits: %w", err)
		}
		if IsPassing(grade) {
			earned[typ] += credits
		}
	}
	return earned, rows.Err()
}

// ListCoursesOffered returns catalog courses offered in the given year and
// term, ordered by course code for deterministic ranking downstream.
func (db *DB) ListCoursesOffered(ctx context.Context, year, term int) ([]Course, error) {
	query := `
		SELECT course_code, course_name, credits, course_type, department,
		       professor, target_grade, prerequisite, year, term, note
		FROM courses
		WHERE year = ? AND term = ?
		ORDER BY course_code ASC
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "ListCoursesOffered", start)

	rows, err := db.conn.QueryContext(ctx, query, year, term)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query offered courses", "error", err)
		return nil, fmt.Errorf("query offered courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.Code, &c.Name, &c.Credits, &c.CourseType, &c.Department,
			&c.Professor, &c.TargetGrade, &c.Prerequisite, &c.Year, &c.Term, &c.Note); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// GetCompletedCourseCodes returns the set of course codes the student has
// passed, plus the set currently in progress (enrolled without a grade).
func (db *DB) GetCompletedCourseCodes(ctx context.Context, studentID string) (completed, inProgress map[string]bool, err error) {
	query := `
		SELECT course_code, grade
		FROM enrollments
		WHERE student_id = ?
	`
	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "GetCompletedCourseCodes", start)

	rows, err := db.conn.QueryContext(ctx, query, studentID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query completed courses", "error", err)
		return nil, nil, fmt.Errorf("query completed courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	completed = make(map[string]bool)
	inProgress = make(map[string]bool)
	for rows.Next() {
		var code, grade string
		if err := rows.Scan(&code, &grade); err != nil {
			return nil, nil, fmt.Errorf("scan completed course: %w", err)
		}
		switch {
		case grade == "":
			inProgress[code] = true
		case IsPassing(grade):
			completed[code] = true
		}
	}
	return completed, inProgress, rows.Err()
}

// ListRequirementDocs returns all requirement documents, used to build the
// similarity-search index at startup.
func (db *DB) ListRequirementDocs(ctx context.Context) ([]RequirementDoc, error) {
	query := `SELECT id, major_code, title, content FROM requirement_docs ORDER BY id ASC`

	ctx, cancel := queryCtx(ctx)
	defer cancel()

	start := time.Now()
	defer db.warnSlow(ctx, "ListRequirementDocs", start)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query requirement docs", "error", err)
		return nil, fmt.Errorf("query requirement docs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []RequirementDoc
	for rows.Next() {
		var d RequirementDoc
		if err := rows.Scan(&d.ID, &d.MajorCode, &d.Title, &d.Content); err != nil {
			return nil, fmt.Errorf("scan requirement doc: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
