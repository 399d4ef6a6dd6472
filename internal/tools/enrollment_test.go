package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/haksamate/advisor-go/internal/parser"
)

func TestEnrollmentHistoryOrdered(t *testing.T) {
	db := seededDB(t)
	tool := NewEnrollmentHistory(db, 10, testLogger())

	rs, err := tool.Execute(context.Background(),
		testIntent(parser.CategoryEnrollmentHistory, nil), verifiedIdentity())
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	checkResultInvariants(t, rs)

	if len(rs.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rs.Rows))
	}
	// Semester ascending, then course code.
	wantOrder := []string{"GE10001", "CS10101", "CS20201"}
	for i, want := range wantOrder {
		if got := rs.Rows[i].Get("과목코드"); got != want {
			t.Errorf("row %d = %s, want %s", i, got, want)
		}
	}
}

func TestEnrollmentHistoryStatsNote(t *testing.T) {
	db := seededDB(t)
	tool := NewEnrollmentHistory(db, 10, testLogger())

	rs, err := tool.Execute(context.Background(),
		testIntent(parser.CategoryEnrollmentHistory, nil), verifiedIdentity())
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	// The F does not earn credits: A(3) + B+(2) = 5.
	if len(rs.Notes) != 1 || !strings.Contains(rs.Notes[0], "5학점") {
		t.Errorf("notes = %v, want a 5학점 aggregate", rs.Notes)
	}
}

func TestEnrollmentHistorySemesterFilter(t *testing.T) {
	db := seededDB(t)
	tool := NewEnrollmentHistory(db, 10, testLogger())

	rs, err := tool.Execute(context.Background(),
		testIntent(parser.CategoryEnrollmentHistory, map[string]string{parser.SlotSemester: "2024-1"}),
		verifiedIdentity())
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if len(rs.Rows) != 1 || rs.Rows[0].Get("과목코드") != "CS20201" {
		t.Errorf("rows = %+v, want only the 2024-1 record", rs.Rows)
	}
	// Aggregates are skipped for filtered views.
	if len(rs.Notes) != 0 {
		t.Errorf("notes = %v, want none for a filtered view", rs.Notes)
	}
}

func TestEnrollmentHistoryGradeFilter(t *testing.T) {
	db := seededDB(t)
	tool := NewEnrollmentHistory(db, 10, testLogger())

	rs, err := tool.Execute(context.Background(),
		testIntent(parser.CategoryEnrollmentHistory, map[string]string{parser.SlotGrade: "F"}),
		verifiedIdentity())
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if len(rs.Rows) != 1 || rs.Rows[0].Get("성적") != "F" {
		t.Errorf("rows = %+v, want only the F record", rs.Rows)
	}
}

func TestEnrollmentHistoryIdentityScoping(t *testing.T) {
	db := seededDB(t)
	tool := NewEnrollmentHistory(db, 10, testLogger())

	other := Identity{StudentID: "20230579", Name: "박민수", Verified: true}
	rs, err := tool.Execute(context.Background(),
		testIntent(parser.CategoryEnrollmentHistory, nil), other)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if len(rs.Rows) != 1 {
		t.Fatalf("got %d rows, want only 박민수's single record", len(rs.Rows))
	}
	if got := rs.Rows[0].Get("성적"); got != "A+" {
		t.Errorf("성적 = %q, this row belongs to a different student", got)
	}
}

func TestEnrollmentHistoryEmpty(t *testing.T) {
	db := seededDB(t)
	tool := NewEnrollmentHistory(db, 10, testLogger())

	// Exists in no enrollment fixture but passes identity checks.
	id := Identity{StudentID: "20229999", Verified: true}
	rs, err := tool.Execute(context.Background(),
		testIntent(parser.CategoryEnrollmentHistory, nil), id)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	checkResultInvariants(t, rs)
	if len(rs.Rows) != 0 || rs.TotalCount != 0 {
		t.Errorf("rows = %+v, want empty history", rs.Rows)
	}
}
