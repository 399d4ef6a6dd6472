package storage

import "database/sql"

// InitSchema creates all tables and indexes if they do not exist.
// The schema mirrors the university records the advising core reads:
// students, majors, the course catalog, per-term enrollments, structured
// graduation requirements, and the unstructured requirement documents
// indexed for similarity search.
func InitSchema(conn *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS majors (
		major_code TEXT PRIMARY KEY,
		college TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		major_name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS students (
		student_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		major_code TEXT NOT NULL,
		admission_year INTEGER NOT NULL,
		completed_semester INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (major_code) REFERENCES majors(major_code)
	);

	CREATE TABLE IF NOT EXISTS courses (
		course_code TEXT PRIMARY KEY,
		course_name TEXT NOT NULL,
		credits INTEGER NOT NULL,
		course_type TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		professor TEXT NOT NULL DEFAULT '',
		target_grade INTEGER NOT NULL DEFAULT 0,
		prerequisite TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		term INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS enrollments (
		student_id TEXT NOT NULL,
		course_code TEXT NOT NULL,
		enrollment_semester TEXT NOT NULL,
		enrollment_type TEXT NOT NULL DEFAULT '',
		earned_credits INTEGER NOT NULL DEFAULT 0,
		grade TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (student_id, course_code, enrollment_semester),
		FOREIGN KEY (student_id) REFERENCES students(student_id)
	);

	CREATE TABLE IF NOT EXISTS graduation_requirements (
		major_code TEXT NOT NULL,
		admission_year INTEGER NOT NULL,
		category TEXT NOT NULL,
		required_credits INTEGER NOT NULL,
		PRIMARY KEY (major_code, admission_year, category)
	);

	CREATE TABLE IF NOT EXISTS requirement_docs (
		id TEXT PRIMARY KEY,
		major_code TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		content TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_cohort
		ON students(major_code, admission_year);
	CREATE INDEX IF NOT EXISTS idx_courses_department ON courses(department);
	CREATE INDEX IF NOT EXISTS idx_courses_offering ON courses(year, term);
	CREATE INDEX IF NOT EXISTS idx_enrollments_student
		ON enrollments(student_id, enrollment_semester);
	CREATE INDEX IF NOT EXISTS idx_requirements_cohort
		ON graduation_requirements(major_code, admission_year);
	`

	_, err := conn.Exec(schema)
	return err
}
