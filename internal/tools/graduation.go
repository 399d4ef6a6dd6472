package tools

import (
	"context"
	"fmt"

	"github.com/haksamate/advisor-go/internal/config"
	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/rag"
	"github.com/haksamate/advisor-go/internal/storage"
	"github.com/haksamate/advisor-go/internal/validate"
)

// maxNarrativeQueryRunes caps the text sent to the similarity search when
// the intent carries no pre-validated query slot.
const maxNarrativeQueryRunes = 200

// GraduationRequirement combines a structured credit check against the
// requirement rules for the student's cohort with policy-text passages from
// the similarity search. The narrative part degrades: when the search fails,
// times out, or returns nothing above threshold, the structured portion is
// returned alone with NarrativeUnavailable set. Policy text is never
// fabricated.
type GraduationRequirement struct {
	db       *storage.DB
	searcher rag.Searcher
	topK     int
	errs     *domerrors.Wrapper
	logger   *logger.Logger
}

// NewGraduationRequirement builds the tool. searcher may be nil, which
// permanently disables the narrative portion.
func NewGraduationRequirement(db *storage.DB, searcher rag.Searcher, topK int, log *logger.Logger) *GraduationRequirement {
	if topK <= 0 {
		topK = 5
	}
	return &GraduationRequirement{
		db:       db,
		searcher: searcher,
		topK:     topK,
		errs:     domerrors.NewWrapper("graduation"),
		logger:   log.WithModule("tools"),
	}
}

func (t *GraduationRequirement) Name() string { return "graduation" }

func (t *GraduationRequirement) Execute(ctx context.Context, intent *parser.Intent, id Identity) (*ResultSet, error) {
	student, err := t.db.GetStudentByID(ctx, id.StudentID)
	if err != nil {
		return nil, t.errs.Wrap(err, "lookup", "학생 정보를 찾을 수 없어서 졸업 요건을 확인하지 못했어요.")
	}

	rules, err := t.db.GetRequirementRules(ctx, student.MajorCode, student.AdmissionYear)
	if err != nil {
		return nil, t.errs.Wrap(err, "rules", "졸업 요건 정보를 불러오지 못했어요. 잠시 후 다시 시도해 주세요.")
	}
	earned, err := t.db.GetEarnedCreditsByCategory(ctx, id.StudentID)
	if err != nil {
		return nil, t.errs.Wrap(err, "earned", "이수 학점을 불러오지 못했어요. 잠시 후 다시 시도해 주세요.")
	}

	rows := make([]Row, 0, len(rules))
	totalRequired, totalEarned := 0, 0
	for _, rule := range rules {
		got := earned[rule.Category]
		remaining := rule.RequiredCredits - got
		if remaining < 0 {
			remaining = 0
		}
		totalRequired += rule.RequiredCredits
		totalEarned += got
		rows = append(rows, Row{Fields: []Field{
			{Label: "구분", Value: rule.Category},
			{Label: "기준", Value: fmt.Sprintf("%d학점", rule.RequiredCredits)},
			{Label: "이수", Value: fmt.Sprintf("%d학점", got)},
			{Label: "잔여", Value: fmt.Sprintf("%d학점", remaining)},
		}})
	}

	pageSize := len(rows)
	if pageSize == 0 {
		pageSize = 1
	}
	result := &ResultSet{
		Title:      "졸업 요건",
		Rows:       rows,
		TotalCount: len(rows),
		Page:       1,
		PageSize:   pageSize,
	}

	if len(rules) == 0 {
		result.Notes = append(result.Notes, fmt.Sprintf(
			"%d학번 %s 졸업 요건 기준이 아직 등록되지 않았어요.",
			student.AdmissionYear%100, student.MajorName))
	} else {
		remaining := totalRequired - totalEarned
		if remaining < 0 {
			remaining = 0
		}
		result.Notes = append(result.Notes, fmt.Sprintf(
			"전체 %d학점 중 %d학점을 이수했어요. 졸업까지 %d학점 남았어요.",
			totalRequired, totalEarned, remaining))
	}

	t.attachNarrative(ctx, intent, result)
	return result, nil
}

// attachNarrative fills result.Passages from the similarity search, bounded
// by its own timeout so a slow collaborator cannot hang the turn.
func (t *GraduationRequirement) attachNarrative(ctx context.Context, intent *parser.Intent, result *ResultSet) {
	if t.searcher == nil || !t.searcher.IsEnabled() {
		result.NarrativeUnavailable = true
		return
	}

	query := intent.Slot(parser.SlotQuery)
	if query == "" {
		// Intents built without the parser carry no query slot, so the raw
		// message is cleaned and capped here before it leaves the process.
		query = validate.Sanitize(intent.RawText)
		if runes := []rune(query); len(runes) > maxNarrativeQueryRunes {
			query = string(runes[:maxNarrativeQueryRunes])
		}
	}

	searchCtx, cancel := context.WithTimeout(ctx, config.SimilaritySearch)
	defer cancel()

	passages, err := t.searcher.Search(searchCtx, query, t.topK)
	if err != nil {
		t.logger.WithError(err).Warnf("requirement passage search failed")
		result.NarrativeUnavailable = true
		return
	}
	if len(passages) == 0 {
		result.NarrativeUnavailable = true
		return
	}
	result.Passages = passages
}
