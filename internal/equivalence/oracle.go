// Package equivalence decides whether an article has a counterpart among a list of candidates.
package equivalence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Equivalence errors.
var (
	ErrUnknownStrategy = errors.New("unknown equivalence strategy")
	ErrNoScorer        = errors.New("similarity strategy requires a scorer")
)

// Strategy names an equivalence oracle.
type Strategy string

// Available strategies.
const (
	Linked     Strategy = "LINKED"
	Similarity Strategy = "SIMILARITY"
)

// ParseStrategy parses LINKED or SIMILARITY, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch strategy := Strategy(strings.ToUpper(strings.TrimSpace(s))); strategy {
	case Linked, Similarity:
		return strategy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

func (s Strategy) String() string {
	return string(s)
}

// Outcome classifies an oracle answer.
type Outcome int

// Oracle outcomes.
const (
	NoMatch Outcome = iota
	Matched
	NoContent
	Untranslated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case NoContent:
		return "no_content"
	case Untranslated:
		return "untranslated"
	case Failed:
		return "failed"
	default:
		return "no_match"
	}
}

// Result is the answer of an oracle for one article.
type Result struct {
	Err        error
	MatchedURL string
	Outcome    Outcome
	Found      bool
}

func matched(url string) Result {
	return Result{Found: true, MatchedURL: url, Outcome: Matched}
}

// Oracle reports whether article has an equivalent among candidates.
// The cache is owned by the caller and lives for one aggregation.
type Oracle interface {
	HasEquivalent(ctx context.Context, article *models.Article, candidates []*models.Article, cache *Cache) Result
	Strategy() Strategy
}

// Preparer is implemented by oracles that can precompute per-article state for a whole set.
type Preparer interface {
	Prepare(ctx context.Context, articles []*models.Article) error
}

// Options configures New.
type Options struct {
	Scorer         Scorer
	Log            *logger.Logger
	Threshold      float64
	RequireEnglish bool
}

// New returns the oracle implementing strategy.
func New(strategy Strategy, opts Options) (Oracle, error) {
	switch strategy {
	case Linked:
		return NewLinked(), nil
	case Similarity:
		if opts.Scorer == nil {
			return nil, ErrNoScorer
		}

		return NewSimilarity(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
