package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/semester"
	"github.com/haksamate/advisor-go/internal/storage"
)

// Scoring weights. The rule is transparent on purpose: each recommended row
// carries the reasons that produced its score.
const (
	scoreGapMax      = 50.0 // requirement-category gap, scaled
	gapCreditsForMax = 30   // gap at which the gap score saturates
	scoreGradeExact  = 20.0 // course targets the student's current year
	scoreGradeNear   = 10.0 // course targets an adjacent year
	scoreMandatory   = 15.0 // 전공필수 before everything else
)

// Recommendation ranks next-term courses for the caller. Candidates come
// from the catalog for the resolved term; courses already completed, in
// progress, or with an unmet prerequisite are excluded. Ranking is
// deterministic: score descending, then course code ascending.
type Recommendation struct {
	db             *storage.DB
	topK           int
	maxTermCredits int
	errs           *domerrors.Wrapper
	logger         *logger.Logger
	now            func() time.Time
}

// NewRecommendation builds the tool. maxTermCredits caps the combined
// credits of one recommendation list.
func NewRecommendation(db *storage.DB, topK, maxTermCredits int, log *logger.Logger) *Recommendation {
	if topK <= 0 {
		topK = 8
	}
	if maxTermCredits <= 0 {
		maxTermCredits = 21
	}
	return &Recommendation{
		db:             db,
		topK:           topK,
		maxTermCredits: maxTermCredits,
		errs:           domerrors.NewWrapper("recommend"),
		logger:         log.WithModule("tools"),
		now:            time.Now,
	}
}

func (t *Recommendation) Name() string { return "recommend" }

type candidate struct {
	course  storage.Course
	score   float64
	reasons []string
}

func (t *Recommendation) Execute(ctx context.Context, intent *parser.Intent, id Identity) (*ResultSet, error) {
	student, err := t.db.GetStudentByID(ctx, id.StudentID)
	if err != nil {
		return nil, t.errs.Wrap(err, "lookup", "학생 정보를 찾을 수 없어서 추천을 만들지 못했어요.")
	}

	year, term := t.targetTerm(intent)

	offered, err := t.db.ListCoursesOffered(ctx, year, term)
	if err != nil {
		return nil, t.errs.Wrap(err, "offerings", "개설 과목을 불러오지 못했어요. 잠시 후 다시 시도해 주세요.")
	}

	completed, inProgress, err := t.db.GetCompletedCourseCodes(ctx, id.StudentID)
	if err != nil {
		return nil, t.errs.Wrap(err, "history", "수강 이력을 불러오지 못했어요. 잠시 후 다시 시도해 주세요.")
	}

	gaps, err := t.requirementGaps(ctx, student)
	if err != nil {
		return nil, err
	}

	studentYear := currentYearLevel(student.CompletedSemester)

	var candidates []candidate
	for _, course := range offered {
		if completed[course.Code] || inProgress[course.Code] {
			continue
		}
		if course.Prerequisite != "" && !completed[course.Prerequisite] {
			continue
		}
		candidates = append(candidates, t.scoreCourse(course, gaps, studentYear))
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].course.Code < candidates[j].course.Code
	})

	rows := make([]Row, 0, t.topK)
	creditSum := 0
	seenNames := map[string]bool{}
	for _, c := range candidates {
		if len(rows) >= t.topK {
			break
		}
		// One section per course name is enough for a plan.
		if seenNames[c.course.Name] {
			continue
		}
		if creditSum+c.course.Credits > t.maxTermCredits {
			continue
		}
		seenNames[c.course.Name] = true
		creditSum += c.course.Credits
		rows = append(rows, recommendationRow(len(rows)+1, c))
	}

	result := &ResultSet{
		Title:      fmt.Sprintf("%d-%d학기 추천 과목", year, term),
		Rows:       rows,
		TotalCount: len(rows),
		Page:       1,
		PageSize:   t.topK,
	}
	if len(rows) == 0 {
		result.Notes = append(result.Notes,
			"추천할 수 있는 과목이 없어요. 해당 학기 개설 정보가 아직 없을 수 있어요.")
	} else {
		result.Notes = append(result.Notes, fmt.Sprintf("추천 과목을 모두 들으면 %d학점이에요.", creditSum))
	}
	return result, nil
}

// targetTerm resolves which term to recommend for: the semester slot when
// the user named one, otherwise the term after the current teaching term.
func (t *Recommendation) targetTerm(intent *parser.Intent) (int, int) {
	if year, term, ok := splitSemesterLabel(intent.Slot(parser.SlotSemester)); ok {
		return year, term
	}
	next := semester.Resolve(t.now()).Teaching().Next()
	return next.Year, next.Term.Number()
}

// requirementGaps returns remaining credits per requirement category.
func (t *Recommendation) requirementGaps(ctx context.Context, student *storage.Student) (map[string]int, error) {
	rules, err := t.db.GetRequirementRules(ctx, student.MajorCode, student.AdmissionYear)
	if err != nil {
		return nil, t.errs.Wrap(err, "rules", "졸업 요건 정보를 불러오지 못했어요. 잠시 후 다시 시도해 주세요.")
	}
	earned, err := t.db.GetEarnedCreditsByCategory(ctx, student.ID)
	if err != nil {
		return nil, t.errs.Wrap(err, "earned", "이수 학점을 불러오지 못했어요. 잠시 후 다시 시도해 주세요.")
	}

	gaps := make(map[string]int, len(rules))
	for _, rule := range rules {
		gap := rule.RequiredCredits - earned[rule.Category]
		if gap > 0 {
			gaps[rule.Category] = gap
		}
	}
	return gaps, nil
}

func (t *Recommendation) scoreCourse(course storage.Course, gaps map[string]int, studentYear int) candidate {
	c := candidate{course: course}

	if gap := gaps[course.CourseType]; gap > 0 {
		scaled := gap
		if scaled > gapCreditsForMax {
			scaled = gapCreditsForMax
		}
		c.score += float64(scaled) / gapCreditsForMax * scoreGapMax
		c.reasons = append(c.reasons, fmt.Sprintf("%s %d학점 부족", course.CourseType, gap))
	}

	switch diff := course.TargetGrade - studentYear; {
	case course.TargetGrade == 0:
		// No target year restriction, neutral.
	case diff == 0:
		c.score += scoreGradeExact
		c.reasons = append(c.reasons, fmt.Sprintf("%d학년 대상", course.TargetGrade))
	case diff == 1 || diff == -1:
		c.score += scoreGradeNear
	}

	if course.CourseType == "전공필수" {
		c.score += scoreMandatory
		c.reasons = append(c.reasons, "전공필수")
	}

	return c
}

// currentYearLevel estimates the student's year from completed semesters.
func currentYearLevel(completedSemesters int) int {
	year := completedSemesters/2 + 1
	if year > 4 {
		year = 4
	}
	if year < 1 {
		year = 1
	}
	return year
}

func recommendationRow(rank int, c candidate) Row {
	reason := strings.Join(c.reasons, ", ")
	if reason == "" {
		reason = "선택 여유"
	}
	return Row{Fields: []Field{
		{Label: "순위", Value: fmt.Sprintf("%d", rank)},
		{Label: "과목코드", Value: c.course.Code},
		{Label: "과목명", Value: c.course.Name},
		{Label: "학점", Value: fmt.Sprintf("%d", c.course.Credits)},
		{Label: "구분", Value: c.course.CourseType},
		{Label: "추천 이유", Value: reason},
	}}
}
