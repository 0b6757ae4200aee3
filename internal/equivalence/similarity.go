package equivalence

import (
	"context"

	"github.com/abadojack/whatlanggo"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// detectOptions restricts language detection to the outlet's languages.
var detectOptions = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Fra: true,
		whatlanggo.Deu: true,
		whatlanggo.Ita: true,
	},
}

// SimilarityOracle matches articles whose English texts score above a threshold.
type SimilarityOracle struct {
	scorer         Scorer
	log            *logger.Logger
	threshold      float64
	requireEnglish bool
}

// NewSimilarity creates a similarity oracle.
func NewSimilarity(opts Options) *SimilarityOracle {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}

	return &SimilarityOracle{
		scorer:         opts.Scorer,
		log:            log,
		threshold:      opts.Threshold,
		requireEnglish: opts.RequireEnglish,
	}
}

// Strategy implements Oracle.
func (o *SimilarityOracle) Strategy() Strategy { return Similarity }

// Prepare warms the scorer for every article when it supports it.
func (o *SimilarityOracle) Prepare(ctx context.Context, articles []*models.Article) error {
	if w, ok := o.scorer.(Warmer); ok {
		return w.Warm(ctx, articles)
	}

	return nil
}

// HasEquivalent scans candidates in order. Cached negatives are skipped, a cached positive
// answers immediately and every computed decision is cached under the title pair.
func (o *SimilarityOracle) HasEquivalent(ctx context.Context, article *models.Article, candidates []*models.Article, cache *Cache) Result {
	text := article.EnglishText()
	if Clean(text) == "" {
		return Result{Outcome: NoContent}
	}

	if o.requireEnglish && !IsEnglish(text) {
		return Result{Outcome: Untranslated}
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{Outcome: Failed, Err: err}
		}

		if c.Title == "" || Clean(c.EnglishText()) == "" {
			continue
		}

		// Untitled query articles would all share one key.
		cacheable := article.Title != "" && cache != nil
		key := PairKey(article.Title, c.Title)

		if cacheable {
			if same, ok := cache.Lookup(key); ok {
				if same {
					return matched(c.URL)
				}

				continue
			}
		}

		score, err := o.scorer.Similarity(ctx, article, c)
		if err != nil {
			o.log.Warn("similarity scoring failed", "article", article.Key(), "candidate", c.Key(), "error", err)

			return Result{Outcome: Failed, Err: err}
		}

		same := score > o.threshold
		if cacheable {
			cache.Store(key, same)
		}

		if same {
			return matched(c.URL)
		}
	}

	return Result{Outcome: NoMatch}
}

// IsEnglish reports whether text is English, or too ambiguous to tell.
func IsEnglish(text string) bool {
	info := whatlanggo.DetectWithOptions(text, detectOptions)
	if !info.IsReliable() {
		return true
	}

	return info.Lang == whatlanggo.Eng
}
