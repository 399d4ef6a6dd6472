package rag

import "sort"

const (
	// RRFConstant is the k in the RRF formula 1/(k + rank). 60 is the
	// standard value: top ranks dominate without drowning out the tail.
	RRFConstant = 60

	// DefaultBM25Weight gives keyword search 40% of the fused score and
	// semantic search the remaining 60%.
	DefaultBM25Weight = 0.4
)

// fusedResult carries per-source ranks while fusing.
type fusedResult struct {
	passage    Passage
	rrfScore   float64
	vectorSim  float32
	bm25Rank   int
	vectorRank int
}

// FuseRRF combines keyword and semantic results with Reciprocal Rank
// Fusion: score(d) = Σ w_i / (RRFConstant + rank_i). Returns up to topN
// passages sorted by fused score; the passage score is the vector
// similarity when available, otherwise the fused score normalized to the
// top result.
func FuseRRF(bm25Results []BM25Result, vectorResults []Passage, bm25Weight float64, topN int) []Passage {
	if bm25Weight < 0 {
		bm25Weight = 0
	}
	if bm25Weight > 1 {
		bm25Weight = 1
	}
	vectorWeight := 1.0 - bm25Weight

	fused := make(map[string]*fusedResult)

	for i, r := range bm25Results {
		rank := i + 1
		fused[r.DocID] = &fusedResult{
			passage: Passage{
				DocID:     r.DocID,
				MajorCode: r.MajorCode,
				Title:     r.Title,
				Text:      r.Text,
			},
			rrfScore: bm25Weight / float64(RRFConstant+rank),
			bm25Rank: rank,
		}
	}

	for i, p := range vectorResults {
		rank := i + 1
		score := vectorWeight / float64(RRFConstant+rank)

		if existing, ok := fused[p.DocID]; ok {
			existing.rrfScore += score
			existing.vectorSim = p.Score
			existing.vectorRank = rank
			if existing.passage.Text == "" {
				existing.passage.Text = p.Text
			}
			if existing.passage.Title == "" {
				existing.passage.Title = p.Title
			}
		} else {
			fused[p.DocID] = &fusedResult{
				passage:    p,
				rrfScore:   score,
				vectorSim:  p.Score,
				vectorRank: rank,
			}
		}
	}

	results := make([]*fusedResult, 0, len(fused))
	for _, r := range fused {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].rrfScore != results[j].rrfScore {
			return results[i].rrfScore > results[j].rrfScore
		}
		return results[i].passage.DocID < results[j].passage.DocID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	maxScore := 0.0
	if len(results) > 0 {
		maxScore = results[0].rrfScore
	}

	passages := make([]Passage, len(results))
	for i, r := range results {
		p := r.passage
		if r.vectorSim > 0 {
			p.Score = r.vectorSim
		} else if maxScore > 0 {
			p.Score = float32(r.rrfScore / maxScore)
		}
		passages[i] = p
	}
	return passages
}

// FuseRRFWithDefaults fuses with the default 40/60 keyword/semantic split.
func FuseRRFWithDefaults(bm25Results []BM25Result, vectorResults []Passage, topN int) []Passage {
	return FuseRRF(bm25Results, vectorResults, DefaultBM25Weight, topN)
}

// rankConfidence converts a keyword-only rank into a display score.
// BM25 scores are unbounded and query dependent, so rank position is the
// proxy: rank 1 → 0.95, rank 5 → 0.80, rank 10 → 0.67.
func rankConfidence(rank int) float32 {
	if rank <= 0 {
		return 0
	}
	return float32(1.0 / (1.0 + 0.05*float64(rank)))
}
