package storage

// Student represents a student record joined with its major.
type Student struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	MajorCode         string `json:"major_code"`
	AdmissionYear     int    `json:"admission_year"`
	CompletedSemester int    `json:"completed_semester"`
	College           string `json:"college,omitempty"`
	Department        string `json:"department,omitempty"`
	MajorName         string `json:"major_name,omitempty"`
}

// Major represents an academic major.
type Major struct {
	Code       string `json:"code"`
	College    string `json:"college"`
	Department string `json:"department"`
	MajorName  string `json:"major_name"`
}

// Course represents a catalog course.
type Course struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Credits      int    `json:"credits"`
	CourseType   string `json:"course_type"`
	Department   string `json:"department"`
	Professor    string `json:"professor"`
	TargetGrade  int    `json:"target_grade"`
	Prerequisite string `json:"prerequisite,omitempty"`
	Year         int    `json:"year"`
	Term         int    `json:"term"`
	Note         string `json:"note,omitempty"`
}

// CourseFilter narrows a catalog search. Zero values mean "no filter".
type CourseFilter struct {
	TitleKeyword string   // Substring match on course name
	Departments  []string // Department synonyms expanded by the parser
	Professor    string
	CourseType   string
	TargetGrade  int
	Year         int // Offering year; paired with Term
	Term         int
}

// Enrollment represents one enrollment record joined with its course.
type Enrollment struct {
	StudentID     string `json:"student_id"`
	CourseCode    string `json:"course_code"`
	CourseName    string `json:"course_name"`
	Semester      string `json:"semester"` // "YYYY-1" or "YYYY-2"
	Type          string `json:"type"`
	EarnedCredits int    `json:"earned_credits"`
	Grade         string `json:"grade"`
}

// EnrollmentFilter narrows an enrollment history lookup.
type EnrollmentFilter struct {
	Semester string // Exact semester label, empty = all
	Grade    string // Letter grade, empty = all
	Type     string // Enrollment type, empty = all
}

// EnrollmentStats summarizes a student's enrollment history.
type EnrollmentStats struct {
	TotalCourses     int            `json:"total_courses"`
	TotalCredits     int            `json:"total_credits"`
	CreditsByType    map[string]int `json:"credits_by_type"`
	SemestersCovered int            `json:"semesters_covered"`
}

// CohortStats is the anonymized view of students sharing major and
// admission year. Only aggregates are exposed.
type CohortStats struct {
	MajorCode        string  `json:"major_code"`
	AdmissionYear    int     `json:"admission_year"`
	StudentCount     int     `json:"student_count"`
	AvgCompletedSems float64 `json:"avg_completed_semesters"`
}

// RequirementRule is one structured graduation requirement row.
type RequirementRule struct {
	MajorCode       string `json:"major_code"`
	AdmissionYear   int    `json:"admission_year"`
	Category        string `json:"category"`
	RequiredCredits int    `json:"required_credits"`
}

// RequirementDoc is an unstructured policy-text document indexed for
// similarity search.
type RequirementDoc struct {
	ID        string `json:"id"`
	MajorCode string `json:"major_code"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// failingGrades are grades that do not count toward earned credits.
var failingGrades = map[string]bool{
	"F":  true,
	"NP": true,
}

// IsPassing reports whether a letter grade earns credits.
func IsPassing(grade string) bool {
	return grade != "" && !failingGrades[grade]
}
