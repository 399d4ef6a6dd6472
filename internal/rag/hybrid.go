package rag

import (
	"context"
	"sync"
	"time"

	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/metrics"
	"github.com/haksamate/advisor-go/internal/storage"
)

// Searcher finds requirement document passages relevant to a question.
// Implementations must tolerate concurrent calls.
type Searcher interface {
	// Search returns up to topK passages sorted by descending score.
	// An empty result with a nil error means nothing relevant was found.
	Search(ctx context.Context, query string, topK int) ([]Passage, error)

	// IsEnabled reports whether any backend can serve queries.
	IsEnabled() bool
}

// HybridSearcher combines BM25 keyword search and vector semantic search
// with Reciprocal Rank Fusion. Either backend may be absent: the remaining
// one then serves alone.
type HybridSearcher struct {
	vectorDB  *VectorDB
	bm25Index *BM25Index
	minScore  float32
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewHybridSearcher builds the searcher. vectorDB may be nil (no API key);
// bm25Index may be nil in tests. minScore drops fused passages whose score
// falls below it; pass 0 to keep everything.
func NewHybridSearcher(vectorDB *VectorDB, bm25Index *BM25Index, minScore float32, m *metrics.Metrics, log *logger.Logger) *HybridSearcher {
	return &HybridSearcher{
		vectorDB:  vectorDB,
		bm25Index: bm25Index,
		minScore:  minScore,
		metrics:   m,
		logger:    log.WithModule("rag"),
	}
}

// Initialize fills both backends from requirement documents. The BM25 index
// builds synchronously; the vector store may call the embedding API.
func (h *HybridSearcher) Initialize(ctx context.Context, docs []storage.RequirementDoc) error {
	if h == nil {
		return nil
	}
	if h.bm25Index != nil {
		if err := h.bm25Index.Initialize(docs); err != nil {
			return err
		}
	}
	if h.vectorDB != nil {
		if err := h.vectorDB.Initialize(ctx, docs); err != nil {
			return err
		}
	}
	return nil
}

// Search runs both backends in parallel and fuses their rankings. A failing
// backend is logged and skipped, not fatal: keyword results alone are still
// an answer.
func (h *HybridSearcher) Search(ctx context.Context, query string, topK int) ([]Passage, error) {
	if h == nil {
		return nil, nil
	}

	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.SimilarityDurationSecond.Observe(time.Since(start).Seconds())
		}
	}()

	vectorEnabled := h.vectorDB.IsEnabled()
	bm25Enabled := h.bm25Index.IsEnabled()
	if !vectorEnabled && !bm25Enabled {
		return nil, nil
	}

	// Over-fetch so fusion has enough candidates from each source.
	fetchN := topK * 3
	if fetchN < 15 {
		fetchN = 15
	}

	var (
		bm25Results   []BM25Result
		vectorResults []Passage
		bm25Err       error
		vectorErr     error
		wg            sync.WaitGroup
	)

	if bm25Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bm25Results, bm25Err = h.bm25Index.Search(query, fetchN)
			h.count("bm25", bm25Err)
		}()
	}
	if vectorEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorResults, vectorErr = h.vectorDB.Search(ctx, query, fetchN)
			h.count("vector", vectorErr)
		}()
	}
	wg.Wait()

	if bm25Err != nil {
		h.logger.WithError(bm25Err).Warnf("keyword search failed")
	}
	if vectorErr != nil {
		h.logger.WithError(vectorErr).Warnf("semantic search failed")
	}
	if bm25Err != nil && vectorErr != nil {
		h.count("hybrid", bm25Err)
		return nil, bm25Err
	}

	var passages []Passage
	switch {
	case len(bm25Results) == 0:
		passages = vectorResults
		if len(passages) > topK {
			passages = passages[:topK]
		}
	case len(vectorResults) == 0:
		passages = make([]Passage, 0, min(len(bm25Results), topK))
		for _, r := range bm25Results {
			if len(passages) >= topK {
				break
			}
			passages = append(passages, Passage{
				DocID:     r.DocID,
				MajorCode: r.MajorCode,
				Title:     r.Title,
				Text:      r.Text,
				Score:     rankConfidence(r.Rank),
			})
		}
	default:
		passages = FuseRRFWithDefaults(bm25Results, vectorResults, topK)
	}

	passages = h.applyThreshold(passages)
	h.count("hybrid", nil)

	h.logger.WithFields(map[string]any{
		"bm25_count":   len(bm25Results),
		"vector_count": len(vectorResults),
		"returned":     len(passages),
	}).Debugf("hybrid search completed")

	return passages, nil
}

// applyThreshold drops passages under the minimum score and records when a
// query produced candidates but none survived.
func (h *HybridSearcher) applyThreshold(passages []Passage) []Passage {
	if h.minScore <= 0 || len(passages) == 0 {
		return passages
	}
	kept := passages[:0]
	for _, p := range passages {
		if p.Score >= h.minScore {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 && h.metrics != nil {
		h.metrics.SimilarityPassagesBelow.Inc()
	}
	return kept
}

func (h *HybridSearcher) count(backend string, err error) {
	if h.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.SimilaritySearchesTotal.WithLabelValues(backend, status).Inc()
}

// IsEnabled returns true when at least one backend can serve queries.
func (h *HybridSearcher) IsEnabled() bool {
	if h == nil {
		return false
	}
	return h.vectorDB.IsEnabled() || h.bm25Index.IsEnabled()
}
