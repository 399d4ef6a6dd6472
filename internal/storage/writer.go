package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Upsert helpers used by the data loader and by test fixtures. Reads vastly
// outnumber writes in this system; all writes go through these methods so
// every statement stays parameterized.

// SaveMajor inserts or updates a major record.
func (db *DB) SaveMajor(ctx context.Context, m *Major) error {
	query := `
		INSERT INTO majors (major_code, college, department, major_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(major_code) DO UPDATE SET
			college = excluded.college,
			department = excluded.department,
			major_name = excluded.major_name
	`
	start := time.Now()
	defer db.warnSlow(ctx, "SaveMajor", start)

	if _, err := db.conn.ExecContext(ctx, query, m.Code, m.College, m.Department, m.MajorName); err != nil {
		slog.ErrorContext(ctx, "failed to save major", "major_code", m.Code, "error", err)
		return fmt.Errorf("save major: %w", err)
	}
	return nil
}

// SaveStudent inserts or updates a student record.
func (db *DB) SaveStudent(ctx context.Context, s *Student) error {
	query := `
		INSERT INTO students (student_id, name, major_code, admission_year, completed_semester)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			name = excluded.name,
			major_code = excluded.major_code,
			admission_year = excluded.admission_year,
			completed_semester = excluded.completed_semester
	`
	start := time.Now()
	defer db.warnSlow(ctx, "SaveStudent", start)

	if _, err := db.conn.ExecContext(ctx, query, s.ID, s.Name, s.MajorCode, s.AdmissionYear, s.CompletedSemester); err != nil {
		slog.ErrorContext(ctx, "failed to save student", "student_id", s.ID, "error", err)
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

// SaveCourse inserts or updates a catalog course.
func (db *DB) SaveCourse(ctx context.Context, c *Course) error {
	query := `
		INSERT INTO courses (course_code, course_name, credits, course_type, department,
			professor, target_grade, prerequisite, year, term, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_code) DO UPDATE SET
			course_name = excluded.course_name,
			credits = excluded.credits,
			course_type = excluded.course_type,
			department = excluded.department,
			professor = excluded.professor,
			target_grade = excluded.target_grade,
			prerequisite = excluded.prerequisite,
			year = excluded.year,
			term = excluded.term,
			note = excluded.note
	`
	start := time.Now()
	defer db.warnSlow(ctx, "SaveCourse", start)

	if _, err := db.conn.ExecContext(ctx, query, c.Code, c.Name, c.Credits, c.CourseType,
		c.Department, c.Professor, c.TargetGrade, c.Prerequisite, c.Year, c.Term, c.Note); err != nil {
		slog.ErrorContext(ctx, "failed to save course", "course_code", c.Code, "error", err)
		return fmt.Errorf("save course: %w", err)
	}
	return nil
}

// SaveEnrollment inserts or updates an enrollment record.
func (db *DB) SaveEnrollment(ctx context.Context, e *Enrollment) error {
	query := `
		INSERT INTO enrollments (student_id, course_code, enrollment_semester,
			enrollment_type, earned_credits, grade)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id, course_code, enrollment_semester) DO UPDATE SET
			enrollment_type = excluded.enrollment_type,
			earned_credits = excluded.earned_credits,
			grade = excluded.grade
	`
	start := time.Now()
	defer db.warnSlow(ctx, "SaveEnrollment", start)

	if _, err := db.conn.ExecContext(ctx, query, e.StudentID, e.CourseCode, e.Semester,
		e.Type, e.EarnedCredits, e.Grade); err != nil {
		slog.ErrorContext(ctx, "failed to save enrollment",
			"student_id", e.StudentID, "course_code", e.CourseCode, "error", err)
		return fmt.Errorf("save enrollment: %w", err)
	}
	return nil
}

// SaveRequirementRule inserts or updates a graduation requirement row.
func (db *DB) SaveRequirementRule(ctx context.Context, r *RequirementRule) error {
	query := `
		INSERT INTO graduation_requirements (major_code, admission_year, category, required_credits)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(major_code, admission_year, category) DO UPDATE SET
			required_credits = excluded.required_credits
	`
	start := time.Now()
	defer db.warnSlow(ctx, "SaveRequirementRule", start)

	if _, err := db.conn.ExecContext(ctx, query, r.MajorCode, r.AdmissionYear, r.Category, r.RequiredCredits); err != nil {
		slog.ErrorContext(ctx, "failed to save requirement rule",
			"major_code", r.MajorCode, "category", r.Category, "error", err)
		return fmt.Errorf("save requirement rule: %w", err)
	}
	return nil
}

// SaveRequirementDoc inserts or updates a requirement document.
func (db *DB) SaveRequirementDoc(ctx context.Context, d *RequirementDoc) error {
	query := `
		INSERT INTO requirement_docs (id, major_code, title, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			major_code = excluded.major_code,
			title = excluded.title,
			content = excluded.content
	`
	start := time.Now()
	defer db.warnSlow(ctx, "SaveRequirementDoc", start)

	if _, err := db.conn.ExecContext(ctx, query, d.ID, d.MajorCode, d.Title, d.Content); err != nil {
		slog.ErrorContext(ctx, "failed to save requirement doc", "doc_id", d.ID, "error", err)
		return fmt.Errorf("save requirement doc: %w", err)
	}
	return nil
}

// Reset deletes all data rows. Used by the seed tool before a full reload;
// deletion order respects foreign keys.
func (db *DB) Reset(ctx context.Context) error {
	tables := []string{
		"enrollments",
		"graduation_requirements",
		"requirement_docs",
		"students",
		"courses",
		"majors",
	}
	for _, table := range tables {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
