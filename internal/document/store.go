package document

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkoster/querylens/internal/embedding"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
)

const excerptMaxLen = 200

// Document is the per-file ingestion record
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	DocType     DocType   `json:"doc_type"`
	ProcessedAt time.Time `json:"processed_at"`
	NumChunks   int       `json:"num_chunks"`
	TotalLength int       `json:"total_length"`
}

// chunk is one embedded slice of a document
type chunk struct {
	docID  string
	index  int
	text   string
	vector []float32
}

// SearchResult is one ranked hit from a semantic search
type SearchResult struct {
	SourceName     string  `json:"source_name"`
	Excerpt        string  `json:"excerpt"`
	RelevanceScore float64 `json:"relevance_score"`
	ChunkIndex     int     `json:"chunk_index"`
}

// Statistics summarizes the corpus
type Statistics struct {
	TotalDocuments   int     `json:"total_documents"`
	TotalChunks      int     `json:"total_chunks"`
	AvgChunksPerDoc  float64 `json:"avg_chunks_per_doc"`
	EmbeddingEnabled bool    `json:"embedding_enabled"`
}

// Store is the in-memory document corpus. Ingestion and search share one
// mutex; embedding generation happens outside the lock since it can suspend.
type Store struct {
	provider embedding.Provider
	chunker  ChunkerConfig
	logger   *logging.Logger

	mu        sync.RWMutex
	documents []Document
	chunks    []chunk
}

// NewStore creates an empty corpus backed by the given embedding provider
func NewStore(provider embedding.Provider, chunker ChunkerConfig, logger *logging.Logger) *Store {
	return &Store{provider: provider, chunker: chunker, logger: logger}
}

// Add extracts, chunks, and embeds one document, then publishes it to the
// corpus. Returns the ingestion record.
func (s *Store) Add(ctx context.Context, filename string, content []byte, contentType string) (*Document, error) {
	text, err := ExtractorFor(contentType).Extract(content)
	if err != nil {
		return nil, err
	}

	docType := DetectDocType(filename, text)
	pieces := Chunk(text, docType, s.chunker)

	doc := Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		DocType:     docType,
		ProcessedAt: time.Now(),
		NumChunks:   len(pieces),
		TotalLength: len(text),
	}

	embedded := make([]chunk, 0, len(pieces))

	for i, piece := range pieces {
		vector, err := s.provider.GenerateEmbedding(ctx, piece)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeDocument,
				"failed to embed chunk %d of %s", i, filename)
		}

		embedded = append(embedded, chunk{docID: doc.ID, index: i, text: piece, vector: vector})
	}

	s.mu.Lock()
	s.documents = append(s.documents, doc)
	s.chunks = append(s.chunks, embedded...)
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"filename": filename,
		"doc_type": string(docType),
		"chunks":   len(pieces),
	}).Info("document ingested")

	return &doc, nil
}

// Search ranks all chunks by cosine similarity to the query embedding and
// returns the top K. An empty corpus yields an empty result, never an error.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	s.mu.RLock()
	chunks := s.chunks
	docs := s.documents
	s.mu.RUnlock()

	if len(chunks) == 0 {
		return []SearchResult{}, nil
	}

	queryVec, err := s.provider.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDocument, "failed to embed search query")
	}

	type scored struct {
		score float64
		chunk chunk
	}

	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		ranked = append(ranked, scored{score: cosineSimilarity(queryVec, c.vector), chunk: c})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	nameByID := make(map[string]string, len(docs))
	for _, d := range docs {
		nameByID[d.ID] = d.Filename
	}

	results := make([]SearchResult, 0, len(ranked))

	for _, r := range ranked {
		name := nameByID[r.chunk.docID]
		if name == "" {
			name = "Unknown"
		}

		results = append(results, SearchResult{
			SourceName:     name,
			Excerpt:        makeExcerpt(r.chunk.text),
			RelevanceScore: r.score,
			ChunkIndex:     r.chunk.index,
		})
	}

	return results, nil
}

// Stats returns corpus-level counters
func (s *Store) Stats() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		TotalDocuments:   len(s.documents),
		TotalChunks:      len(s.chunks),
		EmbeddingEnabled: s.provider.IsEnabled(),
	}

	if len(s.documents) > 0 {
		stats.AvgChunksPerDoc = float64(len(s.chunks)) / float64(len(s.documents))
	}

	return stats
}

// Documents returns a snapshot of the ingestion records
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, len(s.documents))
	copy(out, s.documents)

	return out
}

// Clear drops the whole corpus
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents = nil
	s.chunks = nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// makeExcerpt trims a chunk to a readable preview, preferring to cut at a
// sentence boundary when one falls late enough in the window
func makeExcerpt(text string) string {
	if len(text) <= excerptMaxLen {
		return text
	}

	excerpt := text[:excerptMaxLen]

	if lastPeriod := strings.LastIndex(excerpt, "."); lastPeriod > excerptMaxLen*7/10 {
		return excerpt[:lastPeriod+1] + "..."
	}

	return excerpt + "..."
}
