package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/storage"
)

const (
	// RequirementCollectionName is the chromem collection for requirement
	// document chunks.
	RequirementCollectionName = "requirements"

	// DefaultSearchResults is the fallback result count for semantic search.
	DefaultSearchResults = 10

	// MaxSearchResults caps one semantic search.
	MaxSearchResults = 50

	// MinSimilarityThreshold drops results that are not relevant enough.
	// Queries are short and documents are chunked, so cosine similarity
	// under 0.25 is noise.
	MinSimilarityThreshold float32 = 0.25
)

// VectorDB wraps chromem-go for semantic search over requirement documents.
type VectorDB struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *logger.Logger
	mu            sync.RWMutex
	initialized   bool
}

// NewVectorDB creates the vector store. persistDir is the base data
// directory. Returns nil when apiKey is empty: semantic search is disabled
// and keyword search carries the whole load.
func NewVectorDB(persistDir, apiKey string, log *logger.Logger) (*VectorDB, error) {
	if apiKey == "" {
		log.Infof("gemini API key not configured, semantic search disabled")
		return nil, nil
	}

	chromemPath := filepath.Join(persistDir, "chromem", "requirements")
	db, err := chromem.NewPersistentDB(chromemPath, false)
	if err != nil {
		return nil, fmt.Errorf("create chromem database: %w", err)
	}

	return &VectorDB{
		db:            db,
		embeddingFunc: NewEmbeddingFunc(apiKey),
		logger:        log.WithModule("rag"),
	}, nil
}

// Initialize loads requirement documents into the vector store. Embeddings
// already persisted on disk are reused instead of re-embedding.
func (v *VectorDB) Initialize(ctx context.Context, docs []storage.RequirementDoc) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	collection, err := v.db.GetOrCreateCollection(RequirementCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("get or create collection: %w", err)
	}
	v.collection = collection

	if existing := collection.Count(); existing > 0 {
		v.logger.WithField("count", existing).Infof("loaded requirement embeddings from disk")
		v.initialized = true
		return nil
	}

	if len(docs) > 0 {
		if err := v.addDocsLocked(ctx, docs); err != nil {
			return fmt.Errorf("index requirement documents: %w", err)
		}
		v.logger.WithField("count", len(docs)).Infof("indexed requirement documents")
	}

	v.initialized = true
	return nil
}

// AddDocs indexes documents that arrived after startup.
func (v *VectorDB) AddDocs(ctx context.Context, docs []storage.RequirementDoc) error {
	if v == nil || v.collection == nil || len(docs) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.addDocsLocked(ctx, docs)
}

func (v *VectorDB) addDocsLocked(ctx context.Context, docs []storage.RequirementDoc) error {
	var chromemDocs []chromem.Document
	for _, doc := range docs {
		for i, chunk := range chunkContent(doc.Content) {
			chromemDocs = append(chromemDocs, chromem.Document{
				ID:      fmt.Sprintf("%s_%d", doc.ID, i),
				Content: chunk,
				Metadata: map[string]string{
					"doc_id":     doc.ID,
					"major_code": doc.MajorCode,
					"title":      doc.Title,
				},
			})
		}
	}
	if len(chromemDocs) == 0 {
		return nil
	}

	// 4 concurrent embedding requests.
	if err := v.collection.AddDocuments(ctx, chromemDocs, 4); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search returns up to nResults passages ranked by cosine similarity, with
// one passage per document (the best chunk) and results under
// MinSimilarityThreshold dropped.
func (v *VectorDB) Search(ctx context.Context, query string, nResults int) ([]Passage, error) {
	if v == nil || v.collection == nil || query == "" {
		return nil, nil
	}

	if nResults <= 0 {
		nResults = DefaultSearchResults
	}
	if nResults > MaxSearchResults {
		nResults = MaxSearchResults
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	docCount := v.collection.Count()
	if docCount == 0 {
		return nil, nil
	}

	// Over-fetch so per-document deduplication still fills nResults.
	queryLimit := nResults * 3
	if queryLimit > docCount {
		queryLimit = docCount
	}

	results, err := v.collection.Query(ctx, query, queryLimit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	best := make(map[string]Passage)
	for _, r := range results {
		if r.Similarity < MinSimilarityThreshold {
			continue
		}
		docID := r.Metadata["doc_id"]
		if docID == "" {
			docID = extractDocID(r.ID)
		}
		if docID == "" {
			continue
		}
		if existing, ok := best[docID]; !ok || r.Similarity > existing.Score {
			best[docID] = Passage{
				DocID:     docID,
				MajorCode: r.Metadata["major_code"],
				Title:     r.Metadata["title"],
				Text:      r.Content,
				Score:     r.Similarity,
			}
		}
	}

	passages := make([]Passage, 0, len(best))
	for _, p := range best {
		passages = append(passages, p)
	}
	sort.Slice(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].DocID < passages[j].DocID
	})

	if len(passages) > nResults {
		passages = passages[:nResults]
	}
	return passages, nil
}

// extractDocID recovers the document ID from a chunk ID of the form
// "docID_chunkIndex".
func extractDocID(chunkID string) string {
	lastIdx := strings.LastIndex(chunkID, "_")
	if lastIdx > 0 {
		return chunkID[:lastIdx]
	}
	return ""
}

// Count returns the number of chunks in the collection.
func (v *VectorDB) Count() int {
	if v == nil || v.collection == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collection.Count()
}

// IsEnabled returns true if the vector store is ready to serve queries.
func (v *VectorDB) IsEnabled() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized && v.collection != nil
}
