// Package parser turns raw Korean chat text into a structured intent.
//
// Classification is keyword based and deterministic: category tables are
// scanned in a fixed priority order and the first match wins. Slot values
// are pulled out with anchored regular expressions so the same input always
// produces the same intent.
package parser

// Category is the kind of request a user message expresses.
type Category string

const (
	CategoryStudentInfo       Category = "STUDENT_INFO"
	CategoryCourseSearch      Category = "COURSE_SEARCH"
	CategoryEnrollmentHistory Category = "ENROLLMENT_HISTORY"
	CategoryGraduation        Category = "GRADUATION"
	CategoryRecommendation    Category = "RECOMMENDATION"
	CategorySummary           Category = "SUMMARY"
	CategoryUnknown           Category = "UNKNOWN"
)

// Slot names used in Intent.Slots.
const (
	SlotStudentID  = "student_id"
	SlotCourseCode = "course_code"
	SlotSemester   = "semester"
	SlotGrade      = "grade"
	SlotCredits    = "credits"
	SlotTargetYear = "target_year"
	SlotCourseType = "course_type"
	SlotDepartment = "department"
	SlotProfessor  = "professor"
	SlotKeyword    = "keyword"
	SlotQuery      = "query"
	SlotPage       = "page"
)

// Intent is the structured form of one user message.
type Intent struct {
	Category Category
	Slots    map[string]string
	RawText  string
}

// Slot returns the value for name, or "" when the slot was not extracted.
func (i *Intent) Slot(name string) string {
	if i == nil || i.Slots == nil {
		return ""
	}
	return i.Slots[name]
}

// HasSlot reports whether name was extracted with a non-empty value.
func (i *Intent) HasSlot(name string) bool {
	return i.Slot(name) != ""
}
