package tools

import (
	"context"
	"fmt"

	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/storage"
)

// StudentLookup returns the caller's own academic profile. A missing record
// after authentication is a data-consistency fault, surfaced as NotFound
// and logged as a warning.
type StudentLookup struct {
	db     *storage.DB
	errs   *domerrors.Wrapper
	logger *logger.Logger
}

// NewStudentLookup builds the tool.
func NewStudentLookup(db *storage.DB, log *logger.Logger) *StudentLookup {
	return &StudentLookup{
		db:     db,
		errs:   domerrors.NewWrapper("student"),
		logger: log.WithModule("tools"),
	}
}

func (t *StudentLookup) Name() string { return "student" }

func (t *StudentLookup) Execute(ctx context.Context, _ *parser.Intent, id Identity) (*ResultSet, error) {
	student, err := t.db.GetStudentByID(ctx, id.StudentID)
	if err != nil {
		return nil, t.errs.Wrap(err, "lookup", "학생 정보를 찾을 수 없어요. 잠시 후 다시 시도해 주세요.")
	}

	row := Row{Fields: []Field{
		{Label: "학번", Value: logger.MaskStudentID(student.ID)},
		{Label: "이름", Value: student.Name},
		{Label: "소속", Value: student.College + " " + student.Department},
		{Label: "전공", Value: student.MajorName},
		{Label: "입학년도", Value: fmt.Sprintf("%d", student.AdmissionYear)},
		{Label: "이수 학기", Value: fmt.Sprintf("%d학기", student.CompletedSemester)},
	}}

	result := &ResultSet{
		Title:      "학생 정보",
		Rows:       []Row{row},
		TotalCount: 1,
		Page:       1,
		PageSize:   1,
	}

	// Cohort aggregates are anonymized; a failure here only drops the note.
	if stats, err := t.db.GetCohortStats(ctx, student.MajorCode, student.AdmissionYear); err == nil && stats.StudentCount > 1 {
		result.Notes = append(result.Notes, fmt.Sprintf(
			"%d학번 %s 동기 %d명의 평균 이수 학기는 %.1f학기예요.",
			student.AdmissionYear%100, student.MajorName, stats.StudentCount, stats.AvgCompletedSems))
	}

	return result, nil
}
