package orchestrator

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haksamate/advisor-go/internal/format"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/memory"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/rag"
	"github.com/haksamate/advisor-go/internal/storage"
	"github.com/haksamate/advisor-go/internal/tools"
	"github.com/haksamate/advisor-go/internal/validate"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func verifiedIdentity() tools.Identity {
	return tools.Identity{StudentID: "20230578", Name: "김지원", Verified: true}
}

// seededDB mirrors the advising fixture used by the tool tests: 김지원
// (20230578, 컴퓨터공학, 2023) with 5 earned credits against a 65-credit
// requirement.
func seededDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage.New() = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	if err := db.SaveMajor(ctx, &storage.Major{Code: "CS01", College: "공과대학", Department: "컴퓨터공학부", MajorName: "컴퓨터공학"}); err != nil {
		t.Fatalf("SaveMajor: %v", err)
	}
	if err := db.SaveStudent(ctx, &storage.Student{ID: "20230578", Name: "김지원", MajorCode: "CS01", AdmissionYear: 2023, CompletedSemester: 4}); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}

	courses := []storage.Course{
		{Code: "CS10101", Name: "프로그래밍 기초", Credits: 3, CourseType: "전공필수", Department: "컴퓨터공학부", Professor: "김교수", TargetGrade: 1, Year: 2025, Term: 2},
		{Code: "CS20201", Name: "자료구조", Credits: 3, CourseType: "전공필수", Department: "컴퓨터공학부", Professor: "이교수", TargetGrade: 2, Year: 2025, Term: 2},
		{Code: "GE10001", Name: "글쓰기의 기초", Credits: 2, CourseType: "교양필수", Department: "교양학부", Professor: "정교수", TargetGrade: 1, Year: 2025, Term: 2},
	}
	for i := range courses {
		if err := db.SaveCourse(ctx, &courses[i]); err != nil {
			t.Fatalf("SaveCourse: %v", err)
		}
	}

	enrollments := []storage.Enrollment{
		{StudentID: "20230578", CourseCode: "GE10001", Semester: "2023-1", Type: "교양필수", EarnedCredits: 2, Grade: "B+"},
		{StudentID: "20230578", CourseCode: "CS10101", Semester: "2023-2", Type: "전공필수", EarnedCredits: 3, Grade: "A"},
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

type stubSearcher struct {
	passages  []rag.Passage
	enabled   bool
	mu        sync.Mutex
	lastQuery string
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]rag.Passage, error) {
	s.mu.Lock()
	s.lastQuery = query
	s.mu.Unlock()
	return s.passages, nil
}

func (s *stubSearcher) IsEnabled() bool { return s.enabled }

type orchestratorOptions struct {
	searcher      rag.Searcher
	skipGradTool  bool
	skipAllTools  bool
	memoryWindow  int
}

func newTestOrchestrator(t *testing.T, opts orchestratorOptions) (*Orchestrator, *memory.Store) {
	t.Helper()
	log := testLogger()
	db := seededDB(t)

	window := opts.memoryWindow
	if window == 0 {
		window = memory.DefaultWindow
	}
	mem := memory.NewStore(window, nil, log)
	t.Cleanup(mem.Stop)

	reg := tools.NewRegistry(nil, log)
	if !opts.skipAllTools {
		reg.Register(parser.CategoryStudentInfo, tools.NewStudentLookup(db, log))
		reg.Register(parser.CategoryCourseSearch, tools.NewCourseSearch(db, 10, log))
		reg.Register(parser.CategoryEnrollmentHistory, tools.NewEnrollmentHistory(db, 10, log))
		reg.Register(parser.CategoryRecommendation, tools.NewRecommendation(db, 8, 21, log))
		if !opts.skipGradTool {
			reg.Register(parser.CategoryGraduation, tools.NewGraduationRequirement(db, opts.searcher, 5, log))
		}
	}

	o := New(Config{
		Parser:    parser.New(log),
		Validator: validate.New(),
		Registry:  reg,
		Formatter: format.New(),
		Memory:    mem,
		Logger:    log,
	})
	// Mid-semester anchor keeps relative-semester parsing stable.
	o.now = func() time.Time {
		return time.Date(2025, time.September, 15, 10, 0, 0, 0, time.UTC)
	}
	return o, mem
}

func TestProcessGraduationTurn(t *testing.T) {
	o, mem := newTestOrchestrator(t, orchestratorOptions{
		searcher: &stubSearcher{
			enabled:  true,
			passages: []rag.Passage{{DocID: "cs01-2023-grad", Title: "졸업 요건", Text: "총 130학점 이수가 필요합니다.", Score: 0.8}},
		},
	})

	resp := o.Process(context.Background(), Request{
		Identity: verifiedIdentity(),
		Message:  "내 졸업 요건 알려줘",
	})

	if resp.State != StateDelivered {
		t.Fatalf("state = %s, want %s (text: %q)", resp.State, StateDelivered, resp.Text)
	}
	if resp.Category != parser.CategoryGraduation {
		t.Errorf("category = %s, want GRADUATION", resp.Category)
	}
	if !strings.Contains(resp.Text, "전체 65학점 중 5학점") {
		t.Errorf("text %q missing the credit ratio", resp.Text)
	}
	if !strings.Contains(resp.Text, "관련 규정:") || !strings.Contains(resp.Text, "총 130학점") {
		t.Errorf("text %q missing the policy excerpt", resp.Text)
	}

	turns := mem.Recent("20230578", 0)
	if len(turns) != 2 {
		t.Fatalf("memory holds %d turns, want user + assistant", len(turns))
	}
	if turns[0].Role != memory.RoleUser || turns[1].Role != memory.RoleAssistant {
		t.Errorf("turn roles = %s, %s", turns[0].Role, turns[1].Role)
	}
}

func TestProcessGraduationWithoutSearcher(t *testing.T) {
	o, _ := newTestOrchestrator(t, orchestratorOptions{searcher: nil})

	resp := o.Process(context.Background(), Request{
		Identity: verifiedIdentity(),
		Message:  "졸업까지 몇 학점 남았어?",
	})

	if resp.State != StateDelivered {
		t.Fatalf("state = %s, want %s", resp.State, StateDelivered)
	}
	if !strings.Contains(resp.Text, "규정 원문은 지금 보여드리지 못해요") {
		t.Errorf("text %q missing the narrative-unavailable notice", resp.Text)
	}
	if strings.Contains(resp.Text, "관련 규정:") {
		t.Errorf("text %q fabricates a policy excerpt", resp.Text)
	}
}

func TestProcessMalformedSlot(t *testing.T) {
	o, mem := newTestOrchestrator(t, orchestratorOptions{skipAllTools: true})

	// The quoted token extracts as a keyword slot and fails validation,
	// so the turn must end before any tool dispatch. With an empty
	// registry a dispatched tool would surface as an intent error
	// instead of the validation message.
	resp := o.Process(context.Background(), Request{
		Identity: verifiedIdentity(),
		Message:  `"abc!" 과목 알려줘`,
	})

	if resp.State != StateErrored {
		t.Fatalf("state = %s, want %s (text: %q)", resp.State, StateErrored, resp.Text)
	}
	if resp.Text == "" || strings.Contains(resp.Text, "abc!") {
		t.Errorf("text %q should be a safe validation message", resp.Text)
	}

	turns := mem.Recent("20230578", 0)
	if len(turns) != 1 || turns[0].Role != memory.RoleUser {
		t.Fatalf("memory turns = %d, want only the user turn", len(turns))
	}
}

func TestProcessUnknownFallsBackWithHistory(t *testing.T) {
	o, _ := newTestOrchestrator(t, orchestratorOptions{})
	id := verifiedIdentity()

	first := o.Process(context.Background(), Request{Identity: id, Message: "내 졸업 요건 알려줘"})
	if first.State != StateDelivered {
		t.Fatalf("first turn state = %s", first.State)
	}

	resp := o.Process(context.Background(), Request{Identity: id, Message: "오늘 점심 뭐 먹지"})
	if resp.State != StateDelivered {
		t.Fatalf("state = %s, want %s", resp.State, StateDelivered)
	}
	if resp.Category != parser.CategoryUnknown {
		t.Errorf("category = %s, want UNKNOWN", resp.Category)
	}
	if !strings.Contains(resp.Text, "질문을 잘 이해하지 못했어요") {
		t.Errorf("text %q missing the fallback message", resp.Text)
	}
	if !strings.Contains(resp.Text, "졸업 요건") {
		t.Errorf("text %q missing the recent-topic hint", resp.Text)
	}
}

func TestProcessSummaryFanOut(t *testing.T) {
	o, _ := newTestOrchestrator(t, orchestratorOptions{})

	resp := o.Process(context.Background(), Request{
		Identity: verifiedIdentity(),
		Message:  "내 전체 현황 알려줘",
	})

	if resp.State != StateDelivered {
		t.Fatalf("state = %s, want %s (text: %q)", resp.State, StateDelivered, resp.Text)
	}
	if resp.Category != parser.CategorySummary {
		t.Errorf("category = %s, want SUMMARY", resp.Category)
	}
	if !strings.Contains(resp.Text, "종합 현황이에요.") {
		t.Errorf("text %q missing the summary header", resp.Text)
	}
	for _, want := range []string{"김지원", "전체 65학점 중 5학점"} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("text %q missing %q", resp.Text, want)
		}
	}
}

func TestProcessSummarySanitizesSearchQuery(t *testing.T) {
	searcher := &stubSearcher{
		enabled:  true,
		passages: []rag.Passage{{DocID: "cs01-2023-grad", Title: "졸업 요건", Text: "총 130학점 이수가 필요합니다.", Score: 0.8}},
	}
	o, _ := newTestOrchestrator(t, orchestratorOptions{searcher: searcher})

	resp := o.Process(context.Background(), Request{
		Identity: verifiedIdentity(),
		Message:  "내 전체 현황 알려줘\x00\x1b[31m",
	})

	if resp.State != StateDelivered {
		t.Fatalf("state = %s, want %s (text: %q)", resp.State, StateDelivered, resp.Text)
	}

	searcher.mu.Lock()
	query := searcher.lastQuery
	searcher.mu.Unlock()

	if query == "" {
		t.Fatal("similarity search was not reached")
	}
	for _, r := range query {
		if r < 0x20 {
			t.Fatalf("search query %q carries a control character", query)
		}
	}
	if query != "내 전체 현황 알려줘 31m" {
		t.Errorf("search query = %q, want the normalized question", query)
	}
}

func TestProcessSummaryPartialDegradation(t *testing.T) {
	o, mem := newTestOrchestrator(t, orchestratorOptions{skipGradTool: true})

	resp := o.Process(context.Background(), Request{
		Identity: verifiedIdentity(),
		Message:  "내 전체 현황 알려줘",
	})

	if resp.State != StateDelivered {
		t.Fatalf("state = %s, want %s (text: %q)", resp.State, StateDelivered, resp.Text)
	}
	if !strings.Contains(resp.Text, "김지원") {
		t.Errorf("text %q lost the healthy sections", resp.Text)
	}
	if !strings.Contains(resp.Text, "[졸업 요건]") || !strings.Contains(resp.Text, "불러오지 못했어요") {
		t.Errorf("text %q missing the degraded section notice", resp.Text)
	}

	turns := mem.Recent("20230578", 0)
	if len(turns) != 2 {
		t.Errorf("memory turns = %d, want user + assistant on partial success", len(turns))
	}
}

func TestProcessSummaryAllFail(t *testing.T) {
	o, _ := newTestOrchestrator(t, orchestratorOptions{skipAllTools: true})

	resp := o.Process(context.Background(), Request{
		Identity: verifiedIdentity(),
		Message:  "내 전체 현황 알려줘",
	})

	if resp.State != StateErrored {
		t.Fatalf("state = %s, want %s when every sub-call fails", resp.State, StateErrored)
	}
	if resp.Text == "" {
		t.Error("errored response has no user message")
	}
}

func TestProcessUnverifiedIdentity(t *testing.T) {
	o, _ := newTestOrchestrator(t, orchestratorOptions{})

	resp := o.Process(context.Background(), Request{
		Identity: tools.Identity{StudentID: "20230578", Verified: false},
		Message:  "내 정보 알려줘",
	})

	if resp.State != StateErrored {
		t.Fatalf("state = %s, want %s", resp.State, StateErrored)
	}
	if !strings.Contains(resp.Text, "본인 확인") {
		t.Errorf("text %q missing the reauthentication message", resp.Text)
	}
}

func TestProcessUnknownStudent(t *testing.T) {
	o, _ := newTestOrchestrator(t, orchestratorOptions{})

	resp := o.Process(context.Background(), Request{
		Identity: tools.Identity{StudentID: "20239999", Verified: true},
		Message:  "내 정보 알려줘",
	})

	if resp.State != StateErrored {
		t.Fatalf("state = %s, want %s", resp.State, StateErrored)
	}
	if strings.Contains(resp.Text, "sql") || strings.Contains(resp.Text, "no rows") {
		t.Errorf("text %q leaks internal error detail", resp.Text)
	}
}

func TestProcessExpiredContext(t *testing.T) {
	o, _ := newTestOrchestrator(t, orchestratorOptions{})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	resp := o.Process(ctx, Request{
		Identity: verifiedIdentity(),
		Message:  "내 정보 알려줘",
	})

	if resp.State != StateErrored {
		t.Fatalf("state = %s, want %s", resp.State, StateErrored)
	}
	if !strings.Contains(resp.Text, "잠시 후 다시") {
		t.Errorf("text %q missing the retry suggestion", resp.Text)
	}
}
