package tools

import (
	"context"
	"fmt"

	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/storage"
)

// EnrollmentHistory lists the caller's own enrollment records ordered by
// semester, with optional semester, grade, and type filters.
type EnrollmentHistory struct {
	db       *storage.DB
	pageSize int
	errs     *domerrors.Wrapper
	logger   *logger.Logger
}

// NewEnrollmentHistory builds the tool.
func NewEnrollmentHistory(db *storage.DB, pageSize int, log *logger.Logger) *EnrollmentHistory {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &EnrollmentHistory{
		db:       db,
		pageSize: pageSize,
		errs:     domerrors.NewWrapper("enrollment"),
		logger:   log.WithModule("tools"),
	}
}

func (t *EnrollmentHistory) Name() string { return "enrollment" }

func (t *EnrollmentHistory) Execute(ctx context.Context, intent *parser.Intent, id Identity) (*ResultSet, error) {
	filter := storage.EnrollmentFilter{
		Semester: intent.Slot(parser.SlotSemester),
		Grade:    intent.Slot(parser.SlotGrade),
		Type:     intent.Slot(parser.SlotCourseType),
	}

	enrollments, err := t.db.ListEnrollments(ctx, id.StudentID, filter)
	if err != nil {
		return nil, t.errs.Wrap(err, "list", "수강 이력을 불러오지 못했어요. 잠시 후 다시 시도해 주세요.")
	}

	total := len(enrollments)
	page := pageFromIntent(intent)
	if page > lastPage(total, t.pageSize) {
		page = lastPage(total, t.pageSize)
	}
	start := (page - 1) * t.pageSize
	if start > total {
		start = total
	}
	end := start + t.pageSize
	if end > total {
		end = total
	}

	rows := make([]Row, 0, end-start)
	for _, e := range enrollments[start:end] {
		rows = append(rows, enrollmentRow(e))
	}

	result := &ResultSet{
		Title:      "수강 이력",
		Rows:       rows,
		TotalCount: total,
		Page:       page,
		PageSize:   t.pageSize,
	}

	// Aggregates only make sense for the unfiltered history.
	if filter == (storage.EnrollmentFilter{}) && total > 0 {
		if stats, err := t.db.GetEnrollmentStats(ctx, id.StudentID); err == nil {
			result.Notes = append(result.Notes, fmt.Sprintf(
				"지금까지 %d개 학기에 걸쳐 %d과목, 총 %d학점을 이수했어요.",
				stats.SemestersCovered, stats.TotalCourses, stats.TotalCredits))
		}
	}

	return result, nil
}

func enrollmentRow(e storage.Enrollment) Row {
	return Row{Fields: []Field{
		{Label: "학기", Value: e.Semester},
		{Label: "과목코드", Value: e.CourseCode},
		{Label: "과목명", Value: e.CourseName},
		{Label: "구분", Value: e.Type},
		{Label: "학점", Value: fmt.Sprintf("%d", e.EarnedCredits)},
		{Label: "성적", Value: displayGrade(e.Grade)},
	}}
}

// displayGrade shows in-progress courses as such instead of a blank cell.
func displayGrade(grade string) string {
	if grade == "" {
		return "수강중"
	}
	return grade
}
