package rag

import (
	"context"
	"testing"
)

func TestHybridSearcherBM25Only(t *testing.T) {
	idx := NewBM25Index(testLogger())
	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	h := NewHybridSearcher(nil, idx, 0, nil, testLogger())
	if !h.IsEnabled() {
		t.Fatal("searcher with a live keyword index should be enabled")
	}

	passages, err := h.Search(context.Background(), "졸업 논문", 3)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(passages) == 0 {
		t.Fatal("Search() returned no passages")
	}
	if passages[0].DocID != "cs01-2023-grad" {
		t.Errorf("top passage = %s, want cs01-2023-grad", passages[0].DocID)
	}
	// Keyword-only scores come from rank position.
	if passages[0].Score != rankConfidence(1) {
		t.Errorf("top score = %v, want %v", passages[0].Score, rankConfidence(1))
	}
	if len(passages) > 3 {
		t.Errorf("got %d passages, want at most 3", len(passages))
	}
}

func TestHybridSearcherThreshold(t *testing.T) {
	idx := NewBM25Index(testLogger())
	if err := idx.Initialize(testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	// rankConfidence(1) is ~0.95, so a threshold of 0.99 filters everything.
	h := NewHybridSearcher(nil, idx, 0.99, nil, testLogger())
	passages, err := h.Search(context.Background(), "졸업 논문", 3)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("got %d passages, want all filtered by threshold", len(passages))
	}
}

func TestHybridSearcherDisabled(t *testing.T) {
	h := NewHybridSearcher(nil, nil, 0, nil, testLogger())
	if h.IsEnabled() {
		t.Error("searcher with no backends should be disabled")
	}
	passages, err := h.Search(context.Background(), "졸업", 3)
	if err != nil || passages != nil {
		t.Errorf("Search() = %v, %v; want nil, nil", passages, err)
	}

	var nilSearcher *HybridSearcher
	if nilSearcher.IsEnabled() {
		t.Error("nil searcher should be disabled")
	}
}

func TestHybridSearcherInitialize(t *testing.T) {
	idx := NewBM25Index(testLogger())
	h := NewHybridSearcher(nil, idx, 0, nil, testLogger())

	if err := h.Initialize(context.Background(), testDocs()); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	if !idx.IsEnabled() {
		t.Error("Initialize should build the keyword index")
	}
}
