package equivalence

import (
	"context"
	"html"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/JosephCarrino/SwissTARO/internal/embed"
	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/pkg/utils"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	textHelper   = utils.NewStringHelper()
)

// Clean strips markup from scraped text and collapses whitespace.
func Clean(text string) string {
	return textHelper.NormalizeWhitespace(html.UnescapeString(strictPolicy.Sanitize(text)))
}

// Scorer rates how similar the English texts of two articles are.
type Scorer interface {
	Similarity(ctx context.Context, a, b *models.Article) (float64, error)
}

// Warmer is implemented by scorers that can compute per-article state in bulk.
type Warmer interface {
	Warm(ctx context.Context, articles []*models.Article) error
}

// EmbeddingScorer scores articles by the cosine of their embedding vectors.
// Vectors are memoized per article key for the lifetime of the scorer.
type EmbeddingScorer struct {
	embedder embed.Embedder
	vectors  map[string][]float32
	mu       sync.Mutex
}

// NewEmbeddingScorer creates a scorer backed by embedder.
func NewEmbeddingScorer(embedder embed.Embedder) *EmbeddingScorer {
	return &EmbeddingScorer{
		embedder: embedder,
		vectors:  make(map[string][]float32),
	}
}

// Similarity implements Scorer.
func (s *EmbeddingScorer) Similarity(ctx context.Context, a, b *models.Article) (float64, error) {
	va, err := s.vector(ctx, a)
	if err != nil {
		return 0, err
	}

	vb, err := s.vector(ctx, b)
	if err != nil {
		return 0, err
	}

	return embed.CosineSimilarity(va, vb), nil
}

// Warm embeds every article with English text that has no vector yet, in batches.
func (s *EmbeddingScorer) Warm(ctx context.Context, articles []*models.Article) error {
	var (
		keys  []string
		texts []string
	)

	pending := make(map[string]struct{})

	s.mu.Lock()
	for _, a := range articles {
		text := Clean(a.EnglishText())
		if text == "" {
			continue
		}

		if _, ok := s.vectors[a.Key()]; ok {
			continue
		}

		if _, ok := pending[a.Key()]; ok {
			continue
		}

		pending[a.Key()] = struct{}{}
		keys = append(keys, a.Key())
		texts = append(texts, text)
	}
	s.mu.Unlock()

	if len(texts) == 0 {
		return nil
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, key := range keys {
		s.vectors[key] = vecs[i]
	}

	return nil
}

func (s *EmbeddingScorer) vector(ctx context.Context, a *models.Article) ([]float32, error) {
	s.mu.Lock()
	v, ok := s.vectors[a.Key()]
	s.mu.Unlock()

	if ok {
		return v, nil
	}

	v, err := s.embedder.Embed(ctx, Clean(a.EnglishText()))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.vectors[a.Key()] = v
	s.mu.Unlock()

	return v, nil
}

// LexicalScorer scores articles by the cosine of their term-frequency vectors.
// It needs no external service.
type LexicalScorer struct {
	terms map[string]map[string]float64
	mu    sync.Mutex
}

// NewLexicalScorer creates a lexical scorer.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{terms: make(map[string]map[string]float64)}
}

// Similarity implements Scorer.
func (s *LexicalScorer) Similarity(_ context.Context, a, b *models.Article) (float64, error) {
	return termCosine(s.frequencies(a), s.frequencies(b)), nil
}

func (s *LexicalScorer) frequencies(a *models.Article) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tf, ok := s.terms[a.Key()]; ok {
		return tf
	}

	tf := TermFrequencies(Clean(a.EnglishText()))
	s.terms[a.Key()] = tf

	return tf
}

// TermFrequencies counts the lower-cased word tokens of text. Single-rune tokens are dropped.
func TermFrequencies(text string) map[string]float64 {
	tf := make(map[string]float64)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}

		tf[tok]++
	}

	return tf
}

func termCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for term, wa := range a {
		normA += wa * wa
		dot += wa * b[term]
	}

	for _, wb := range b {
		normB += wb * wb
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
