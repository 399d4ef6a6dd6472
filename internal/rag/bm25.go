package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/crawlab-team/bm25"

	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/storage"
)

// Passage is one retrieved piece of a requirement document.
type Passage struct {
	DocID     string
	MajorCode string
	Title     string
	Text      string
	Score     float32 // Relevance score (0-1), higher is more relevant
}

// BM25Result is a keyword search hit before fusion.
type BM25Result struct {
	DocID     string
	MajorCode string
	Title     string
	Text      string
	Score     float64 // Raw BM25 score
	Rank      int     // 1-indexed rank
}

// BM25Index provides keyword search over requirement document chunks.
type BM25Index struct {
	bm25Okapi   *bm25.BM25Okapi
	corpus      []string
	chunkToDoc  []string // chunk index -> document ID
	metadata    map[string]docMeta
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

type docMeta struct {
	MajorCode string
	Title     string
}

// NewBM25Index creates an empty index.
func NewBM25Index(log *logger.Logger) *BM25Index {
	return &BM25Index{
		metadata: make(map[string]docMeta),
		logger:   log.WithModule("rag"),
	}
}

// Initialize builds the index from requirement documents. It replaces any
// previous contents: BM25 needs the whole corpus for IDF, so incremental
// updates go through a rebuild.
func (idx *BM25Index) Initialize(docs []storage.RequirementDoc) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.corpus = nil
	idx.chunkToDoc = nil
	idx.metadata = make(map[string]docMeta)
	idx.bm25Okapi = nil

	for _, doc := range docs {
		idx.metadata[doc.ID] = docMeta{MajorCode: doc.MajorCode, Title: doc.Title}
		for _, chunk := range chunkContent(doc.Content) {
			idx.corpus = append(idx.corpus, chunk)
			idx.chunkToDoc = append(idx.chunkToDoc, doc.ID)
		}
	}

	if len(idx.corpus) == 0 {
		idx.initialized = true
		return nil
	}

	// k1=1.5, b=0.75 are standard BM25 parameters.
	okapi, err := bm25.NewBM25Okapi(idx.corpus, tokenizeKorean, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("build bm25 index: %w", err)
	}
	idx.bm25Okapi = okapi
	idx.initialized = true

	idx.logger.WithField("chunks", len(idx.corpus)).
		WithField("docs", len(docs)).
		Infof("keyword index built")
	return nil
}

// Search returns up to topN documents ranked by BM25 score, deduplicated to
// the best chunk per document.
func (idx *BM25Index) Search(query string, topN int) ([]BM25Result, error) {
	if idx == nil || !idx.IsEnabled() {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tokens := tokenizeKorean(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("bm25 scoring: %w", err)
	}

	type best struct {
		chunk int
		score float64
	}
	docBest := make(map[string]best)
	for chunk, score := range scores {
		if score <= 0 {
			continue
		}
		docID := idx.chunkToDoc[chunk]
		if b, ok := docBest[docID]; !ok || score > b.score {
			docBest[docID] = best{chunk: chunk, score: score}
		}
	}

	results := make([]BM25Result, 0, len(docBest))
	for docID, b := range docBest {
		meta := idx.metadata[docID]
		results = append(results, BM25Result{
			DocID:     docID,
			MajorCode: meta.MajorCode,
			Title:     meta.Title,
			Text:      idx.corpus[b.chunk],
			Score:     b.score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	for i := range results {
		results[i].Rank = i + 1
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// IsEnabled returns true once the index has been initialized with content.
func (idx *BM25Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.bm25Okapi != nil
}

// Count returns the number of indexed chunks.
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.corpus)
}

// tokenizeKorean tokenizes text for BM25 matching:
// lowercase, split on whitespace and punctuation, and emit single characters
// plus character bigrams for CJK runs so unspaced Korean still matches.
func tokenizeKorean(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var currentWord strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if isCJK(r) {
				if currentWord.Len() > 0 {
					tokens = append(tokens, currentWord.String())
					currentWord.Reset()
				}
				tokens = append(tokens, string(r))
				if i+1 < len(runes) && isCJK(runes[i+1]) {
					tokens = append(tokens, string(r)+string(runes[i+1]))
				}
			} else {
				currentWord.WriteRune(r)
			}
		} else {
			if currentWord.Len() > 0 {
				tokens = append(tokens, currentWord.String())
				currentWord.Reset()
			}
		}
	}
	if currentWord.Len() > 0 {
		tokens = append(tokens, currentWord.String())
	}
	return tokens
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r)
}
