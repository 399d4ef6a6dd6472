package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/semester"
)

// Parser classifies messages and extracts slots. It holds no per-request
// state and is safe for concurrent use.
type Parser struct {
	log *logger.Logger
}

// New builds a Parser.
func New(log *logger.Logger) *Parser {
	return &Parser{log: log.WithModule("parser")}
}

var (
	studentIDPattern  = regexp.MustCompile(`(^|[^0-9])([0-9]{8})([^0-9]|$)`)
	courseCodePattern = regexp.MustCompile(`(^|[^a-z0-9])([a-z]{2}[0-9]{5})([^0-9]|$)`)

	// 2024-1학기, 2024년 1학기, 2024년도 2학기
	fullSemesterPattern = regexp.MustCompile(`([0-9]{4})\s*[-년]\s*도?\s*([12])\s*학기`)
	// Bare 1학기 / 2학기, the year comes from the current context.
	bareSemesterPattern = regexp.MustCompile(`(^|[^0-9-])([12])\s*학기`)

	gradePattern      = regexp.MustCompile(`([abcdf]\+?)\s*(학점|성적|등급|받은|이상|이하)`)
	creditsPattern    = regexp.MustCompile(`([1-9])\s*학점`)
	targetYearPattern = regexp.MustCompile(`([1-4])\s*학년`)
	professorPattern  = regexp.MustCompile(`([\p{Hangul}]{2,5})\s*교수`)
	pagePattern       = regexp.MustCompile(`([0-9]{1,3})\s*페이지`)
	quotedPattern     = regexp.MustCompile(`[「『"']([^」』"']{1,40})[」』"']`)

	spaceRun = regexp.MustCompile(`\s+`)
)

// Parse turns one raw message into an Intent. sem anchors relative semester
// phrases such as 다음 학기 to a concrete year and term.
func (p *Parser) Parse(raw string, sem semester.Context) *Intent {
	text := Normalize(raw)

	intent := &Intent{
		Category: classify(text),
		Slots:    map[string]string{},
		RawText:  raw,
	}

	extractIdentifiers(intent, text)
	extractSemester(intent, text, sem)
	extractAttributes(intent, text)
	extractTopic(intent, text)

	// Graduation answers, the summary fan-out and the unknown fallback lean
	// on document search, which wants the whole normalized question.
	switch intent.Category {
	case CategoryGraduation, CategorySummary, CategoryUnknown:
		intent.Slots[SlotQuery] = text
	}

	p.log.WithField("category", string(intent.Category)).
		WithField("slots", len(intent.Slots)).
		Debugf("parsed message")

	return intent
}

// Normalize folds a message into the canonical form the keyword tables and
// slot patterns are written against: NFKC (full-width digits and letters
// become ASCII), lower case, punctuation stripped except the - and + that
// semester labels and grades need, single spaces.
func Normalize(raw string) string {
	text := norm.NFKC.String(raw)
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z',
			r == '-' || r == '+' || r == ' ',
			isHangul(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.TrimSpace(spaceRun.ReplaceAllString(b.String(), " "))
}

func isHangul(r rune) bool {
	return (r >= 0xAC00 && r <= 0xD7A3) || // syllables
		(r >= 0x1100 && r <= 0x11FF) || // jamo
		(r >= 0x3130 && r <= 0x318F) // compatibility jamo
}

func classify(text string) Category {
	for _, rule := range categoryRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(text, phrase) {
				return rule.category
			}
		}
	}
	return CategoryUnknown
}

func extractIdentifiers(intent *Intent, text string) {
	if m := studentIDPattern.FindStringSubmatch(text); m != nil {
		intent.Slots[SlotStudentID] = m[2]
	}
	if m := courseCodePattern.FindStringSubmatch(text); m != nil {
		intent.Slots[SlotCourseCode] = strings.ToUpper(m[2])
	}
}

func extractSemester(intent *Intent, text string, sem semester.Context) {
	if m := fullSemesterPattern.FindStringSubmatch(text); m != nil {
		intent.Slots[SlotSemester] = m[1] + "-" + m[2]
		return
	}

	current := sem.Teaching()
	switch {
	case strings.Contains(text, "다음 학기") || strings.Contains(text, "다음학기"):
		intent.Slots[SlotSemester] = current.Next().Label()
	case strings.Contains(text, "지난 학기") || strings.Contains(text, "지난학기") ||
		strings.Contains(text, "저번 학기") || strings.Contains(text, "저번학기"):
		intent.Slots[SlotSemester] = current.Prev().Label()
	case strings.Contains(text, "이번 학기") || strings.Contains(text, "이번학기") ||
		strings.Contains(text, "현재 학기"):
		intent.Slots[SlotSemester] = current.Label()
	default:
		if m := bareSemesterPattern.FindStringSubmatch(text); m != nil {
			intent.Slots[SlotSemester] = current.Label()[:5] + m[2]
		}
	}
}

func extractAttributes(intent *Intent, text string) {
	if m := gradePattern.FindStringSubmatch(text); m != nil {
		intent.Slots[SlotGrade] = strings.ToUpper(m[1])
	} else if m := creditsPattern.FindStringSubmatch(text); m != nil {
		// 학점 after a digit is a credit count only when it is not a grade.
		intent.Slots[SlotCredits] = m[1]
	}

	if m := targetYearPattern.FindStringSubmatch(text); m != nil {
		intent.Slots[SlotTargetYear] = m[1]
	}
	if m := pagePattern.FindStringSubmatch(text); m != nil {
		intent.Slots[SlotPage] = m[1]
	}

	for _, ct := range courseTypes {
		if strings.Contains(text, ct) {
			intent.Slots[SlotCourseType] = ct
			break
		}
	}

	if m := professorPattern.FindStringSubmatch(text); m != nil {
		intent.Slots[SlotProfessor] = m[1]
	}

	for _, mention := range departmentMentions {
		if strings.Contains(text, mention) {
			intent.Slots[SlotDepartment] = mention
			break
		}
	}
}

func extractTopic(intent *Intent, text string) {
	if m := quotedPattern.FindStringSubmatch(intent.RawText); m != nil {
		intent.Slots[SlotKeyword] = strings.TrimSpace(m[1])
		return
	}
	for _, kw := range subjectKeywords {
		if strings.Contains(text, kw) {
			intent.Slots[SlotKeyword] = kw
			return
		}
	}
}
