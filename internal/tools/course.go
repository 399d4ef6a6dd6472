package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/storage"
)

// CourseSearch filters the course catalog. It has no student scoping; an
// empty filter returns the first page of the full catalog.
type CourseSearch struct {
	db       *storage.DB
	pageSize int
	errs     *domerrors.Wrapper
	logger   *logger.Logger
}

// NewCourseSearch builds the tool with the given page size.
func NewCourseSearch(db *storage.DB, pageSize int, log *logger.Logger) *CourseSearch {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &CourseSearch{
		db:       db,
		pageSize: pageSize,
		errs:     domerrors.NewWrapper("course"),
		logger:   log.WithModule("tools"),
	}
}

func (t *CourseSearch) Name() string { return "course" }

func (t *CourseSearch) Execute(ctx context.Context, intent *parser.Intent, _ Identity) (*ResultSet, error) {
	filter := buildCourseFilter(intent)
	page := pageFromIntent(intent)
	offset := (page - 1) * t.pageSize

	courses, total, err := t.db.SearchCourses(ctx, filter, t.pageSize, offset)
	if err != nil {
		return nil, t.errs.Wrap(err, "search", "강의 검색에 실패했어요. 잠시 후 다시 시도해 주세요.")
	}

	// A page past the end clamps to the last page with content.
	if len(courses) == 0 && page > 1 {
		page = lastPage(total, t.pageSize)
		offset = (page - 1) * t.pageSize
		courses, total, err = t.db.SearchCourses(ctx, filter, t.pageSize, offset)
		if err != nil {
			return nil, t.errs.Wrap(err, "search", "강의 검색에 실패했어요. 잠시 후 다시 시도해 주세요.")
		}
	}

	rows := make([]Row, len(courses))
	for i, c := range courses {
		rows[i] = courseRow(c)
	}

	return &ResultSet{
		Title:      "강의 검색 결과",
		Rows:       rows,
		TotalCount: total,
		Page:       page,
		PageSize:   t.pageSize,
	}, nil
}

func buildCourseFilter(intent *parser.Intent) storage.CourseFilter {
	filter := storage.CourseFilter{
		TitleKeyword: intent.Slot(parser.SlotKeyword),
		Professor:    intent.Slot(parser.SlotProfessor),
		CourseType:   intent.Slot(parser.SlotCourseType),
	}
	if dept := intent.Slot(parser.SlotDepartment); dept != "" {
		filter.Departments = parser.ExpandDepartment(dept)
	}
	if grade := intent.Slot(parser.SlotTargetYear); grade != "" {
		filter.TargetGrade, _ = strconv.Atoi(grade)
	}
	if year, term, ok := splitSemesterLabel(intent.Slot(parser.SlotSemester)); ok {
		filter.Year, filter.Term = year, term
	}
	return filter
}

// splitSemesterLabel parses a "YYYY-T" label. Labels reach tools already
// validated, so a malformed one simply yields no filter.
func splitSemesterLabel(label string) (year, term int, ok bool) {
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	term, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return year, term, true
}

// lastPage is the highest page with content, at least 1.
func lastPage(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func pageFromIntent(intent *parser.Intent) int {
	page, err := strconv.Atoi(intent.Slot(parser.SlotPage))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func courseRow(c storage.Course) Row {
	fields := []Field{
		{Label: "과목코드", Value: c.Code},
		{Label: "과목명", Value: c.Name},
		{Label: "학점", Value: fmt.Sprintf("%d", c.Credits)},
		{Label: "구분", Value: c.CourseType},
		{Label: "개설학과", Value: c.Department},
		{Label: "교수", Value: c.Professor},
		{Label: "개설", Value: fmt.Sprintf("%d-%d", c.Year, c.Term)},
	}
	if c.TargetGrade > 0 {
		fields = append(fields, Field{Label: "대상", Value: fmt.Sprintf("%d학년", c.TargetGrade)})
	}
	return Row{Fields: fields}
}
