package rag

import (
	"io"
	"strings"
	"testing"

	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/storage"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func testDocs() []storage.RequirementDoc {
	return []storage.RequirementDoc{
		{
			ID:        "cs01-2023-grad",
			MajorCode: "CS01",
			Title:     "컴퓨터공학과 졸업 요건",
			Content: "졸업을 위해서는 총 130학점을 이수해야 한다.\n\n" +
				"전공필수 45학점과 교양필수 15학점을 포함해야 하며, " +
				"졸업 논문 또는 캡스톤 프로젝트를 완료해야 한다.",
		},
		{
			ID:        "cs01-2023-intern",
			MajorCode: "CS01",
			Title:     "현장실습 학점 인정 기준",
			Content: "현장실습은 최대 6학점까지 전공선택으로 인정된다.\n\n" +
				"4주 이상 풀타임 근무를 마치고 보고서를 제출해야 한다.",
		},
		{
			ID:        "ps01-2023-grad",
			MajorCode: "PS01",
			Title:     "심리학과 졸업 요건",
			Content: "심리학과는 총 120학점 이수와 전공 36학점이 필요하다.\n\n" +
				"졸업 시험은 4학년 2학기에 응시한다.",
		},
	}
}

func TestBM25IndexSearch(t *testing.T) {
	idx := NewBM25Index(testLogger())
	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	if !idx.IsEnabled() {
		t.Fatal("index should be enabled after Initialize")
	}

	results, err := idx.Search("졸업 논문", 5)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search() returned no results")
	}
	if results[0].DocID != "cs01-2023-grad" {
		t.Errorf("top result = %s, want cs01-2023-grad", results[0].DocID)
	}
	if results[0].Rank != 1 {
		t.Errorf("top rank = %d, want 1", results[0].Rank)
	}
	if !strings.Contains(results[0].Text, "졸업") {
		t.Errorf("top text %q does not mention the query topic", results[0].Text)
	}
	if results[0].MajorCode != "CS01" {
		t.Errorf("major code = %s, want CS01", results[0].MajorCode)
	}
}

func TestBM25IndexDeduplicatesChunks(t *testing.T) {
	idx := NewBM25Index(testLogger())
	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	results, err := idx.Search("학점 인정", 10)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	seen := map[string]int{}
	for _, r := range results {
		seen[r.DocID]++
	}
	for docID, n := range seen {
		if n > 1 {
			t.Errorf("doc %s appears %d times, want 1", docID, n)
		}
	}
}

func TestBM25IndexTopN(t *testing.T) {
	idx := NewBM25Index(testLogger())
	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	results, err := idx.Search("졸업 학점", 1)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) > 1 {
		t.Errorf("got %d results, want at most 1", len(results))
	}
}

func TestBM25IndexEmptyCases(t *testing.T) {
	idx := NewBM25Index(testLogger())

	if results, err := idx.Search("졸업", 5); err != nil || results != nil {
		t.Errorf("uninitialized Search() = %v, %v; want nil, nil", results, err)
	}

	if err := idx.Initialize(nil); err != nil {
		t.Fatalf("Initialize(nil) = %v", err)
	}
	if idx.Count() != 0 {
		t.Errorf("Count() = %d, want 0", idx.Count())
	}

	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	if results, err := idx.Search("   ", 5); err != nil || results != nil {
		t.Errorf("blank query Search() = %v, %v; want nil, nil", results, err)
	}
}

func TestBM25IndexRebuild(t *testing.T) {
	idx := NewBM25Index(testLogger())
	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	before := idx.Count()

	// Re-initializing replaces, not appends.
	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("second Initialize() = %v", err)
	}
	if idx.Count() != before {
		t.Errorf("Count() after rebuild = %d, want %d", idx.Count(), before)
	}
}

func TestTokenizeKorean(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"졸업", []string{"졸", "졸업", "업"}},
		{"CS10101 요건", []string{"cs10101", "요", "요건", "건"}},
		{"hello world", []string{"hello", "world"}},
		{"", nil},
		{"!!!", nil},
	}
	for _, c := range cases {
		got := tokenizeKorean(c.in)
		if len(got) != len(c.want) {
			t.Errorf("tokenizeKorean(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("tokenizeKorean(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}

func TestChunkContent(t *testing.T) {
	t.Run("short paragraphs merge", func(t *testing.T) {
		chunks := chunkContent("첫 문단.\n\n둘째 문단.")
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1 merged chunk: %v", len(chunks), chunks)
		}
	})

	t.Run("long content splits under the cap", func(t *testing.T) {
		long := strings.Repeat("졸업 요건 설명이 길게 이어진다.\n", 80)
		chunks := chunkContent(long)
		if len(chunks) < 2 {
			t.Fatalf("got %d chunks, want a split", len(chunks))
		}
		for i, c := range chunks {
			if runeLen(c) > maxChunkRunes {
				t.Errorf("chunk %d has %d runes, cap is %d", i, runeLen(c), maxChunkRunes)
			}
		}
	})

	t.Run("blank content yields nothing", func(t *testing.T) {
		if chunks := chunkContent("  \n\n  "); len(chunks) != 0 {
			t.Errorf("got %v, want none", chunks)
		}
	})
}
