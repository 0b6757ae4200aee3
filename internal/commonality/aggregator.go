// Package commonality counts, for every pair of editions, the articles of one edition that have
// an equivalent in the other.
package commonality

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JosephCarrino/SwissTARO/internal/equivalence"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// ErrComparisonFailed is returned when the oracle cannot decide for an article.
var ErrComparisonFailed = errors.New("equivalence comparison failed")

// Tally counts the oracle outcomes of one row.
type Tally struct {
	Queries      int `json:"queries"`
	Matched      int `json:"matched"`
	NoMatch      int `json:"no_match"`
	NoContent    int `json:"no_content"`
	Untranslated int `json:"untranslated"`
}

func (t *Tally) add(o equivalence.Outcome) {
	t.Queries++

	switch o {
	case equivalence.Matched:
		t.Matched++
	case equivalence.NoContent:
		t.NoContent++
	case equivalence.Untranslated:
		t.Untranslated++
	default:
		t.NoMatch++
	}
}

// Row is the result of comparing one list of articles against every edition of a set.
type Row struct {
	Counts map[models.Edition]int
	Pairs  []models.Pair
	Tally  Tally
	Cache  equivalence.CacheStats
}

// Aggregator runs an equivalence oracle over edition sets.
type Aggregator struct {
	oracle  equivalence.Oracle
	log     *logger.Logger
	workers int
}

// NewAggregator creates an aggregator running at most workers rows at once.
func NewAggregator(oracle equivalence.Oracle, workers int, log *logger.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}

	return &Aggregator{oracle: oracle, log: log, workers: workers}
}

// Compute counts, for every edition of others, how many articles of main have an equivalent in
// it. Every article of main gets a count slot per edition, matched or not. A fresh similarity
// cache is used for the call.
func (a *Aggregator) Compute(ctx context.Context, main []*models.Article, others models.EditionSet) (Row, error) {
	row := Row{Counts: make(map[models.Edition]int, len(others))}
	cache := equivalence.NewCache()

	for _, edition := range others.Editions() {
		candidates := others[edition]
		row.Counts[edition] = 0

		for _, article := range main {
			res := a.oracle.HasEquivalent(ctx, article, candidates, cache)

			if res.Outcome == equivalence.Failed {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return Row{}, ctxErr
				}

				return Row{}, fmt.Errorf("%w: %s against %s: %w", ErrComparisonFailed, article.Key(), edition, res.Err)
			}

			row.Tally.add(res.Outcome)

			if res.Found {
				row.Counts[edition]++
				row.Pairs = append(row.Pairs, models.Pair{Main: article.URL, Matched: res.MatchedURL})
			}
		}
	}

	row.Cache = cache.Stats()

	return row, nil
}

// Matrix computes one row per edition of set, each against the whole set. Rows run concurrently
// with their own cache. Pairs are returned in edition order.
func (a *Aggregator) Matrix(ctx context.Context, set models.EditionSet, window Window) (*Matrix, []models.Pair, error) {
	if p, ok := a.oracle.(equivalence.Preparer); ok {
		if err := p.Prepare(ctx, set.All()); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare %s oracle: %w", a.oracle.Strategy(), err)
		}
	}

	editions := set.Editions()
	rows := make([]Row, len(editions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, edition := range editions {
		g.Go(func() error {
			row, err := a.Compute(ctx, set[edition], set)
			if err != nil {
				return fmt.Errorf("edition %s: %w", edition, err)
			}

			a.log.Debug("commonality row computed",
				"edition", edition,
				"articles", set.Len(edition),
				"matched", row.Tally.Matched,
				"no_content", row.Tally.NoContent,
				"untranslated", row.Tally.Untranslated,
				"cache_hits", row.Cache.Hits,
				"cache_computations", row.Cache.Computations,
			)

			rows[i] = row

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	m := NewMatrix(window, set.Lens())

	var pairs []models.Pair

	for i, edition := range editions {
		m.Rows[edition] = rows[i].Counts
		m.Tallies[edition] = rows[i].Tally
		pairs = append(pairs, rows[i].Pairs...)
	}

	return m, pairs, nil
}

// Flows computes, for every origin edition, the commonality of its originals against the rest of
// the set. Rows are keyed by origin edition.
func (a *Aggregator) Flows(ctx context.Context, originals map[models.Edition][]*models.Article, set models.EditionSet, window Window) (*Matrix, error) {
	origins := make([]models.Edition, 0, len(originals))
	for e := range originals {
		origins = append(origins, e)
	}

	models.SortEditions(origins)

	lens := make(map[models.Edition]int, len(originals))
	for e, items := range originals {
		lens[e] = len(items)
	}

	m := NewMatrix(window, lens)

	for _, origin := range origins {
		row, err := a.Compute(ctx, originals[origin], set.Without(origin))
		if err != nil {
			return nil, fmt.Errorf("flows from %s: %w", origin, err)
		}

		m.Rows[origin] = row.Counts
		m.Tallies[origin] = row.Tally
	}

	return m, nil
}
