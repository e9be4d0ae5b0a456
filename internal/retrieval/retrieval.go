package retrieval

import "context"

// DefaultTopK is the number of sources returned per query.
const DefaultTopK = 5

// Document is a single grounding source.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Retriever returns the most relevant documents for a query, best first.
type Retriever interface {
	Search(ctx context.Context, query string) ([]Document, error)
}

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
