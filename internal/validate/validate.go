// Package validate checks parsed intents before any tool runs. Every slot
// value must match a whitelist for its name; anything else is rejected, and
// slots with no rule are rejected outright.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/parser"
)

// Free-text length caps, in runes.
const (
	maxKeywordLen    = 40
	maxDepartmentLen = 20
	maxProfessorLen  = 10
	maxQueryLen      = 200
)

var (
	studentIDRule  = regexp.MustCompile(`^[0-9]{8}$`)
	courseCodeRule = regexp.MustCompile(`^[A-Z]{2}[0-9]{5}$`)
	semesterRule   = regexp.MustCompile(`^[0-9]{4}-[12]$`)
	gradeRule      = regexp.MustCompile(`^[ABCDF]\+?$`)
	creditsRule    = regexp.MustCompile(`^[1-9]$`)
	targetYearRule = regexp.MustCompile(`^[1-4]$`)
	pageRule       = regexp.MustCompile(`^[1-9][0-9]{0,2}$`)

	// Hangul, letters, digits, spaces and hyphens only.
	freeTextRule = regexp.MustCompile(`^[\p{Hangul}a-zA-Z0-9 -]+$`)
)

var courseTypeRule = map[string]bool{
	"전공필수": true, "전공선택": true, "교양필수": true,
	"교양선택": true, "일반선택": true, "전공": true, "교양": true,
}

// Validator screens intents. It is stateless and safe for concurrent use.
type Validator struct{}

// New builds a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate checks every slot of intent. The first offending slot produces a
// *errors.ValidationError; intents that pass are safe to hand to tools. The
// query slot is rewritten in place to its sanitized form.
func (v *Validator) Validate(intent *parser.Intent) error {
	if intent == nil {
		return domerrors.NewValidationError("", "요청을 해석할 수 없어요.")
	}

	for name, value := range intent.Slots {
		if err := v.checkSlot(intent, name, value); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkSlot(intent *parser.Intent, name, value string) error {
	switch name {
	case parser.SlotStudentID:
		return matchRule(studentIDRule, name, value, "학번은 숫자 8자리예요.")
	case parser.SlotCourseCode:
		return matchRule(courseCodeRule, name, value, "과목 코드 형식이 올바르지 않아요.")
	case parser.SlotSemester:
		return matchRule(semesterRule, name, value, "학기는 2024-1 형식으로 적어주세요.")
	case parser.SlotGrade:
		return matchRule(gradeRule, name, value, "성적 등급을 알아볼 수 없어요.")
	case parser.SlotCredits:
		return matchRule(creditsRule, name, value, "학점 수를 알아볼 수 없어요.")
	case parser.SlotTargetYear:
		return matchRule(targetYearRule, name, value, "학년은 1에서 4 사이예요.")
	case parser.SlotPage:
		return matchRule(pageRule, name, value, "페이지 번호를 알아볼 수 없어요.")
	case parser.SlotCourseType:
		if !courseTypeRule[value] {
			return domerrors.NewValidationError(name, "이수 구분을 알아볼 수 없어요.")
		}
		return nil
	case parser.SlotKeyword:
		return checkFreeText(name, value, maxKeywordLen, "검색어가 너무 길거나 쓸 수 없는 문자가 있어요.")
	case parser.SlotDepartment:
		return checkFreeText(name, value, maxDepartmentLen, "학과 이름을 알아볼 수 없어요.")
	case parser.SlotProfessor:
		return checkFreeText(name, value, maxProfessorLen, "교수님 성함을 알아볼 수 없어요.")
	case parser.SlotQuery:
		clean := Sanitize(value)
		if clean == "" || utf8.RuneCountInString(clean) > maxQueryLen {
			return domerrors.NewValidationError(name, "질문이 너무 길어요. 조금 줄여서 다시 물어봐 주세요.")
		}
		intent.Slots[parser.SlotQuery] = clean
		return nil
	default:
		// No rule for this slot name means it never reaches a tool.
		return domerrors.NewValidationError(name, "요청을 해석할 수 없어요.")
	}
}

func matchRule(rule *regexp.Regexp, name, value, message string) error {
	if !rule.MatchString(value) {
		return domerrors.NewValidationError(name, message)
	}
	return nil
}

func checkFreeText(name, value string, maxLen int, message string) error {
	if value == "" || utf8.RuneCountInString(value) > maxLen || !freeTextRule.MatchString(value) {
		return domerrors.NewValidationError(name, message)
	}
	return nil
}

// Sanitize strips control characters from free text and collapses the
// surrounding whitespace.
func Sanitize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
