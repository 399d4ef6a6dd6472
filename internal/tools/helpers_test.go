package tools

import (
	"context"
	"io"
	"testing"

	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/rag"
	"github.com/haksamate/advisor-go/internal/storage"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func verifiedIdentity() Identity {
	return Identity{StudentID: "20230578", Name: "김지원", Verified: true}
}

func testIntent(cat parser.Category, slots map[string]string) *parser.Intent {
	if slots == nil {
		slots = map[string]string{}
	}
	return &parser.Intent{Category: cat, Slots: slots, RawText: "test"}
}

// seededDB builds an in-memory store with a small advising dataset:
// 김지원 (20230578, 컴퓨터공학, 2023, 4 semesters done) with three past
// enrollments including one F, a 2025-2 course catalog, and CS 2023
// requirement rules.
func seededDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage.New() = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	majors := []storage.Major{
		{Code: "CS01", College: "공과대학", Department: "컴퓨터공학부", MajorName: "컴퓨터공학"},
		{Code: "PS01", College: "사회과학대학", Department: "심리학과", MajorName: "심리학"},
	}
	for i := range majors {
		if err := db.SaveMajor(ctx, &majors[i]); err != nil {
			t.Fatalf("SaveMajor: %v", err)
		}
	}

	students := []storage.Student{
		{ID: "20230578", Name: "김지원", MajorCode: "CS01", AdmissionYear: 2023, CompletedSemester: 4},
		{ID: "20230579", Name: "박민수", MajorCode: "CS01", AdmissionYear: 2023, CompletedSemester: 5},
	}
	for i := range students {
		if err := db.SaveStudent(ctx, &students[i]); err != nil {
			t.Fatalf("SaveStudent: %v", err)
		}
	}

	courses := []storage.Course{
		{Code: "CS10101", Name: "프로그래밍 기초", Credits: 3, CourseType: "전공필수", Department: "컴퓨터공학부", Professor: "김교수", TargetGrade: 1, Year: 2025, Term: 2},
		{Code: "CS20201", Name: "자료구조", Credits: 3, CourseType: "전공필수", Department: "컴퓨터공학부", Professor: "이교수", TargetGrade: 2, Prerequisite: "CS10101", Year: 2025, Term: 2},
		{Code: "CS30301", Name: "운영체제", Credits: 3, CourseType: "전공선택", Department: "컴퓨터공학부", Professor: "최교수", TargetGrade: 3, Prerequisite: "CS20201", Year: 2025, Term: 2},
		{Code: "GE10001", Name: "글쓰기의 기초", Credits: 2, CourseType: "교양필수", Department: "교양학부", Professor: "정교수", TargetGrade: 1, Year: 2025, Term: 2},
		{Code: "PS10101", Name: "심리학 개론", Credits: 3, CourseType: "교양선택", Department: "심리학과", Professor: "한교수", TargetGrade: 1, Year: 2025, Term: 1},
		{Code: "CS90901", Name: "고급 주제 1", Credits: 3, CourseType: "일반선택", Department: "컴퓨터공학부", Year: 2030, Term: 1},
		{Code: "CS90902", Name: "고급 주제 2", Credits: 3, CourseType: "일반선택", Department: "컴퓨터공학부", Year: 2030, Term: 1},
	}
	for i := range courses {
		if err := db.SaveCourse(ctx, &courses[i]); err != nil {
			t.Fatalf("SaveCourse: %v", err)
		}
	}

	enrollments := []storage.Enrollment{
		{StudentID: "20230578", CourseCode: "GE10001", Semester: "2023-1", Type: "교양필수", EarnedCredits: 2, Grade: "B+"},
		{StudentID: "20230578", CourseCode: "CS10101", Semester: "2023-2", Type: "전공필수", EarnedCredits: 3, Grade: "A"},
		{StudentID: "20230578", CourseCode: "CS20201", Semester: "2024-1", Type: "전공필수", EarnedCredits: 3, Grade: "F"},
		{StudentID: "20230579", CourseCode: "CS10101", Semester: "2023-2", Type: "전공필수", EarnedCredits: 3, Grade: "A+"},
	}
	for i := range enrollments {
		if err := db.SaveEnrollment(ctx, &enrollments[i]); err != nil {
			t.Fatalf("SaveEnrollment: %v", err)
		}
	}

	rules := []storage.RequirementRule{
		{MajorCode: "CS01", AdmissionYear: 2023, Category: "전공필수", RequiredCredits: 45},
		{MajorCode: "CS01", AdmissionYear: 2023, Category: "교양필수", RequiredCredits: 20},
	}
	for i := range rules {
		if err := db.SaveRequirementRule(ctx, &rules[i]); err != nil {
			t.Fatalf("SaveRequirementRule: %v", err)
		}
	}

	return db
}

// stubSearcher is a canned similarity-search collaborator.
type stubSearcher struct {
	passages  []rag.Passage
	err       error
	enabled   bool
	lastQuery string
}

func (s *stubSearcher) Search(_ context.Context, query string, topK int) ([]rag.Passage, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	if topK > 0 && len(s.passages) > topK {
		return s.passages[:topK], nil
	}
	return s.passages, nil
}

func (s *stubSearcher) IsEnabled() bool { return s.enabled }

func checkResultInvariants(t *testing.T, rs *ResultSet) {
	t.Helper()
	if len(rs.Rows) > rs.PageSize {
		t.Errorf("rows %d exceed page size %d", len(rs.Rows), rs.PageSize)
	}
	if rs.TotalCount < len(rs.Rows) {
		t.Errorf("total count %d below row count %d", rs.TotalCount, len(rs.Rows))
	}
	if rs.Page*rs.PageSize >= rs.TotalCount+rs.PageSize {
		t.Errorf("page %d beyond total %d with page size %d", rs.Page, rs.TotalCount, rs.PageSize)
	}
}
