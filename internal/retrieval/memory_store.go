package retrieval

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// MemoryStore keeps documents in memory and ranks them by cosine similarity.
// Without an embedder it ranks by token overlap, which is enough for local runs.
type MemoryStore struct {
	embedder Embedder
	topK     int
	logger   *logging.Logger

	mu   sync.RWMutex
	docs []storedDocument
}

type storedDocument struct {
	doc       Document
	embedding []float32
	tokens    map[string]struct{}
}

func NewMemoryStore(embedder Embedder, topK int, logger *logging.Logger) *MemoryStore {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{embedder: embedder, topK: topK, logger: logger}
}

// Add embeds and stores docs.
func (s *MemoryStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var vectors [][]float32
	if s.embedder != nil {
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Title + "\n" + d.Content
		}
		var err error
		vectors, err = s.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(docs) {
			return errors.New("retrieval: embedding response size mismatch")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		stored := storedDocument{doc: d, tokens: tokenize(d.Title + " " + d.Content)}
		if vectors != nil {
			stored.embedding = vectors[i]
		}
		s.docs = append(s.docs, stored)
	}
	return nil
}

// Len reports how many documents are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search returns up to topK documents, best first.
func (s *MemoryStore) Search(ctx context.Context, query string) ([]Document, error) {
	var queryVec []float32
	if s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{query})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return nil, nil
		}
		queryVec = vecs[0]
	}
	queryTokens := tokenize(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.docs) == 0 {
		return nil, nil
	}

	type scored struct {
		score float64
		doc   Document
	}
	results := make([]scored, 0, len(s.docs))
	for _, d := range s.docs {
		var score float64
		if queryVec != nil {
			score = cosineSimilarity(queryVec, d.embedding)
		} else {
			score = overlap(queryTokens, d.tokens)
		}
		results = append(results, scored{score: score, doc: d.doc})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	limit := s.topK
	if len(results) < limit {
		limit = len(results)
	}
	out := make([]Document, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].doc
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

// overlap is the fraction of query tokens present in the document.
func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for tok := range query {
		if _, ok := doc[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
