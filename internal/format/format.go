// Package format turns tool results into the bounded Korean text the chat
// transport delivers. Output is plain text: a key/value block for single
// records, a compact table for listings, and a continuation notice instead
// of auto-fetching further pages.
package format

import (
	"errors"
	"fmt"
	"strings"

	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/stringutil"
	"github.com/haksamate/advisor-go/internal/tools"
)

// maxPassageRunes truncates one policy excerpt in the rendered answer.
const maxPassageRunes = 160

// Formatter renders result sets. It is stateless and safe for concurrent
// use.
type Formatter struct{}

// New builds a Formatter.
func New() *Formatter {
	return &Formatter{}
}

// Format renders one tool result for the given intent category.
func (f *Formatter) Format(intent *parser.Intent, rs *tools.ResultSet) string {
	if rs == nil {
		return f.FormatError(domerrors.ErrNotFound)
	}

	var b strings.Builder
	f.writeSection(&b, rs, intent.Category)
	return strings.TrimRight(b.String(), "\n")
}

// Section is one part of a composite summary answer.
type Section struct {
	Title  string
	Result *tools.ResultSet
	Err    error
}

// FormatSummary renders the fan-out answer. Failed sections degrade to a
// one-line notice so the rest of the summary still lands.
func (f *Formatter) FormatSummary(sections []Section) string {
	var b strings.Builder
	b.WriteString("종합 현황이에요.\n")

	for _, s := range sections {
		b.WriteString("\n")
		if s.Err != nil || s.Result == nil {
			b.WriteString(fmt.Sprintf("[%s]\n%s\n", s.Title, "이 부분은 지금 불러오지 못했어요."))
			continue
		}
		f.writeSection(&b, s.Result, parser.CategorySummary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// UnknownFallback is the reply for a question no category matched.
// historyHint, when non-empty, reminds the student what they asked before.
func (f *Formatter) UnknownFallback(historyHint string) string {
	msg := "질문을 잘 이해하지 못했어요. 학생 정보, 강의 검색, 수강 이력, 졸업 요건, 과목 추천에 대해 물어볼 수 있어요."
	if historyHint != "" {
		msg += " " + historyHint
	}
	return msg
}

// FormatError converts any turn failure into a user-safe message. Internal
// detail never reaches the user.
func (f *Formatter) FormatError(err error) string {
	var verr *domerrors.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var terr *domerrors.ToolError
	if errors.As(err, &terr) && terr.UserMessage != "" {
		return terr.UserMessage
	}

	switch {
	case errors.Is(err, domerrors.ErrNotFound):
		return "요청하신 데이터를 찾을 수 없어요."
	case errors.Is(err, domerrors.ErrTimeout):
		return "응답이 늦어지고 있어요. 잠시 후 다시 시도해 주세요."
	case errors.Is(err, domerrors.ErrUnverifiedIdentity):
		return "본인 확인이 필요해요. 다시 로그인해 주세요."
	case errors.Is(err, domerrors.ErrUnknownIntent):
		return "질문을 잘 이해하지 못했어요. 다르게 물어봐 주시겠어요?"
	default:
		return "요청을 처리하지 못했어요. 잠시 후 다시 시도해 주세요."
	}
}

func (f *Formatter) writeSection(b *strings.Builder, rs *tools.ResultSet, category parser.Category) {
	if rs.Title != "" {
		b.WriteString("[" + rs.Title + "]\n")
	}

	switch {
	case len(rs.Rows) == 0:
		b.WriteString("표시할 내용이 없어요.\n")
	case len(rs.Rows) == 1 && singleRecordCategory(category):
		writeKeyValueBlock(b, rs.Rows[0])
	default:
		writeTable(b, rs.Rows)
	}

	for _, note := range rs.Notes {
		b.WriteString(note + "\n")
	}

	writePassages(b, rs)

	if notice := continuationNotice(rs); notice != "" {
		b.WriteString(notice + "\n")
	}
}

// singleRecordCategory picks the key/value layout over the table.
func singleRecordCategory(category parser.Category) bool {
	return category == parser.CategoryStudentInfo || category == parser.CategorySummary
}

func writeKeyValueBlock(b *strings.Builder, row tools.Row) {
	for _, field := range row.Fields {
		b.WriteString(fmt.Sprintf("%s: %s\n", field.Label, field.Value))
	}
}

func writeTable(b *strings.Builder, rows []tools.Row) {
	if len(rows) == 0 {
		return
	}
	labels := make([]string, len(rows[0].Fields))
	for i, field := range rows[0].Fields {
		labels[i] = field.Label
	}
	b.WriteString(strings.Join(labels, " | ") + "\n")

	for _, row := range rows {
		values := make([]string, len(row.Fields))
		for i, field := range row.Fields {
			values[i] = field.Value
		}
		b.WriteString(strings.Join(values, " | ") + "\n")
	}
}

func writePassages(b *strings.Builder, rs *tools.ResultSet) {
	if rs.NarrativeUnavailable {
		b.WriteString("규정 원문은 지금 보여드리지 못해요. 학과 공지를 함께 확인해 주세요.\n")
		return
	}
	if len(rs.Passages) == 0 {
		return
	}

	b.WriteString("관련 규정:\n")
	for _, p := range rs.Passages {
		text := stringutil.TruncateRunes(strings.ReplaceAll(p.Text, "\n", " "), maxPassageRunes)
		if p.Title != "" {
			b.WriteString(fmt.Sprintf("- %s: %s\n", p.Title, text))
		} else {
			b.WriteString("- " + text + "\n")
		}
	}
}

// continuationNotice tells the student how to see the next page. Further
// pages are never fetched automatically.
func continuationNotice(rs *tools.ResultSet) string {
	if rs.PageSize <= 0 || rs.TotalCount <= rs.Page*rs.PageSize {
		return ""
	}
	return fmt.Sprintf("전체 %d건 중 %d페이지를 보여드렸어요. 다음은 \"%d페이지 보여줘\"라고 말해보세요.",
		rs.TotalCount, rs.Page, rs.Page+1)
}
