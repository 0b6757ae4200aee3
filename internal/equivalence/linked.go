package equivalence

import (
	"context"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// LinkedOracle matches articles through the translation links declared by the outlet.
type LinkedOracle struct{}

// NewLinked creates a linked oracle.
func NewLinked() *LinkedOracle {
	return &LinkedOracle{}
}

// Strategy implements Oracle.
func (o *LinkedOracle) Strategy() Strategy { return Linked }

// HasEquivalent reports a match when article's URL is a candidate's own URL or one of its
// declared translation URLs. The matched URL is always the candidate's own URL.
// The URL index of candidates is kept in cache while the candidate list stays the same.
func (o *LinkedOracle) HasEquivalent(ctx context.Context, article *models.Article, candidates []*models.Article, cache *Cache) Result {
	if err := ctx.Err(); err != nil {
		return Result{Outcome: Failed, Err: err}
	}

	if url, ok := cache.reachable(candidates)[article.URL]; ok {
		return matched(url)
	}

	return Result{Outcome: NoMatch}
}

// reachable maps every URL reachable from the candidates to the candidate it came from.
// The first candidate claiming a URL keeps it.
func reachable(candidates []*models.Article) map[string]string {
	urls := make(map[string]string, len(candidates)*4)

	for _, c := range candidates {
		if _, ok := urls[c.URL]; !ok {
			urls[c.URL] = c.URL
		}
	}

	for _, c := range candidates {
		for name, target := range c.Translations {
			if name == models.OriginalLanguageKey || target == "" {
				continue
			}

			if _, ok := urls[target]; !ok {
				urls[target] = c.URL
			}
		}
	}

	return urls
}
