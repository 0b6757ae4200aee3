// Package stats derives the cardinality and unpaired-translation reports of a run.
package stats

import (
	"math"
	"strconv"

	"github.com/JosephCarrino/SwissTARO/internal/cluster"
	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Buckets counts clusters or articles by cluster size, keyed "1".."N".
type Buckets map[string]int

func newBuckets(n int) Buckets {
	b := make(Buckets, n)
	for size := 1; size <= n; size++ {
		b[strconv.Itoa(size)] = 0
	}

	return b
}

func (b Buckets) add(size int) {
	b[strconv.Itoa(size)]++
}

// Sum returns the total over all buckets.
func (b Buckets) Sum() int {
	total := 0
	for _, n := range b {
		total += n
	}

	return total
}

// CardinalityReport is the distribution of stories over the number of editions carrying them.
type CardinalityReport struct {
	Overall         Buckets                               `json:"overall"`
	ByLanguage      map[models.Edition]Buckets            `json:"by_language"`
	ByCouples       map[string]int                        `json:"by_couples,omitempty"`
	ByTriples       map[string]int                        `json:"by_triples,omitempty"`
	ByLanguageRatio map[models.Edition]map[string]float64 `json:"by_language_ratio"`
	Anomalies       int                                   `json:"anomalies"`
}

// CardinalityOptions selects the editions and the optional breakdowns.
type CardinalityOptions struct {
	Editions []models.Edition
	Couples  bool
	Triples  bool
}

// Cardinalities counts clusters by size overall, the articles of each edition by the size of
// their cluster and, optionally, the clusters of size 2 and 3 by their exact set of editions.
func Cardinalities(set models.EditionSet, clusters *cluster.Clusters, opts CardinalityOptions) CardinalityReport {
	n := len(opts.Editions)

	report := CardinalityReport{
		Overall:         newBuckets(n),
		ByLanguage:      make(map[models.Edition]Buckets, len(set)),
		ByLanguageRatio: make(map[models.Edition]map[string]float64, len(set)),
		Anomalies:       len(clusters.Anomalies),
	}

	for _, c := range clusters.All() {
		report.Overall.add(c.Size())
	}

	for _, e := range set.Editions() {
		buckets := newBuckets(n)
		for _, a := range set[e] {
			buckets.add(clusters.SizeOf(a))
		}

		report.ByLanguage[e] = buckets
		report.ByLanguageRatio[e] = ratios(buckets, set.Len(e))
	}

	if opts.Couples {
		report.ByCouples = byEditions(clusters, opts.Editions, 2)
	}

	if opts.Triples {
		report.ByTriples = byEditions(clusters, opts.Editions, 3)
	}

	return report
}

func ratios(b Buckets, total int) map[string]float64 {
	out := make(map[string]float64, len(b))

	for key, count := range b {
		if total == 0 {
			out[key] = 0
			continue
		}

		out[key] = math.Round(float64(count)/float64(total)*1e4) / 1e4
	}

	return out
}

// byEditions counts the clusters of exactly k members whose editions form each k-combination.
func byEditions(clusters *cluster.Clusters, editions []models.Edition, k int) map[string]int {
	counts := make(map[string]int)
	for _, combo := range models.Combinations(editions, k) {
		counts[models.ComboKey(combo)] = 0
	}

	for _, c := range clusters.All() {
		if c.Size() != k {
			continue
		}

		key := models.ComboKey(c.Editions())
		if _, ok := counts[key]; ok {
			counts[key]++
		}
	}

	return counts
}
