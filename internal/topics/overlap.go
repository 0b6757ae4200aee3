// Package topics measures how much the top topic terms of the editions overlap.
package topics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// DefaultNumTerms is the number of top terms compared per edition and day.
const DefaultNumTerms = 10

// dropped is the token removed from term lists before truncation.
const dropped = "%"

// ErrNoTerms is returned when the input holds fewer than two editions.
var ErrNoTerms = errors.New("term overlap needs at least two editions")

// Terms holds, per edition, the ranked top terms of each date. Dates may carry a time part
// after "T"; only the day is kept.
type Terms map[models.Edition]map[string][]string

// LoadTerms reads a Terms JSON file.
func LoadTerms(path string) (Terms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read terms file: %w", err)
	}

	var raw map[string]map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse terms file %s: %w", path, err)
	}

	terms := make(Terms, len(raw))
	for name, byDate := range raw {
		edition, ok := models.ParseEdition(name)
		if !ok {
			edition = models.Edition(name)
		}

		terms[edition] = byDate
	}

	return terms, nil
}

// Overlap is the share of common terms and the terms themselves. It is written as a
// [percent, terms] pair.
type Overlap struct {
	Terms   []string
	Percent float64
}

// MarshalJSON encodes the overlap as a 2-element array.
func (o Overlap) MarshalJSON() ([]byte, error) {
	terms := o.Terms
	if terms == nil {
		terms = []string{}
	}

	return json.Marshal([2]any{o.Percent, terms})
}

// UnmarshalJSON decodes a 2-element array.
func (o *Overlap) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if err := json.Unmarshal(raw[0], &o.Percent); err != nil {
		return err
	}

	return json.Unmarshal(raw[1], &o.Terms)
}

// Report is the result of Analyze.
type Report struct {
	// ByDay maps day, then edition combination, to the overlap of that day.
	ByDay map[string]map[string]Overlap
	// Average is the mean daily percentage per combination.
	Average map[string]float64
	// Merged is the overlap of the terms of all days, relative to the largest merged list.
	Merged map[string]Overlap
}

// MarshalJSON writes the days at the top level next to "average" and "merged".
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.ByDay)+2)
	for day, combos := range r.ByDay {
		out[day] = combos
	}

	out["average"] = r.Average
	out["merged"] = r.Merged

	return json.Marshal(out)
}

// Analyzer computes term overlaps.
type Analyzer struct {
	numTerms int
}

// NewAnalyzer creates an analyzer comparing the top numTerms terms.
func NewAnalyzer(numTerms int) *Analyzer {
	if numTerms < 1 {
		numTerms = DefaultNumTerms
	}

	return &Analyzer{numTerms: numTerms}
}

// Top returns the first numTerms terms, skipping the "%" token when it is among them.
func (a *Analyzer) Top(terms []string) []string {
	head := terms[:min(len(terms), a.numTerms+1)]

	if i := slices.Index(head, dropped); i >= 0 {
		return slices.Delete(slices.Clone(head), i, i+1)
	}

	return slices.Clone(head[:min(len(head), a.numTerms)])
}

// Analyze intersects the top terms of every combination of 2 to N editions, day by day and over
// all days merged.
func (a *Analyzer) Analyze(terms Terms) (Report, error) {
	editions := make([]models.Edition, 0, len(terms))
	for e := range terms {
		editions = append(editions, e)
	}

	if len(editions) < 2 {
		return Report{}, ErrNoTerms
	}

	models.SortEditions(editions)

	byDay := a.groupByDay(terms)

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}

	slices.Sort(days)

	var combos [][]models.Edition
	for k := 2; k <= len(editions); k++ {
		combos = append(combos, models.Combinations(editions, k)...)
	}

	report := Report{
		ByDay:   make(map[string]map[string]Overlap, len(days)),
		Average: make(map[string]float64, len(combos)),
		Merged:  make(map[string]Overlap, len(combos)),
	}

	for _, day := range days {
		report.ByDay[day] = make(map[string]Overlap, len(combos))
	}

	for _, combo := range combos {
		key := models.ComboKey(combo)
		sum := 0.0

		for _, day := range days {
			sets := make([]map[string]struct{}, len(combo))
			for i, e := range combo {
				sets[i] = byDay[day][e]
			}

			common := intersect(sets)
			overlap := Overlap{Terms: common, Percent: float64(len(common)) / float64(a.numTerms) * 100}
			report.ByDay[day][key] = overlap
			sum += overlap.Percent
		}

		if len(days) > 0 {
			report.Average[key] = round2(sum / float64(len(days)))
		}

		report.Merged[key] = mergedOverlap(byDay, days, combo)
	}

	return report, nil
}

// groupByDay keeps, per day and edition, the set of top terms.
func (a *Analyzer) groupByDay(terms Terms) map[string]map[models.Edition]map[string]struct{} {
	byDay := make(map[string]map[models.Edition]map[string]struct{})

	for e, byDate := range terms {
		for date, list := range byDate {
			day, _, _ := strings.Cut(date, "T")
			day = strings.TrimSpace(strings.SplitN(day, " ", 2)[0])

			if byDay[day] == nil {
				byDay[day] = make(map[models.Edition]map[string]struct{})
			}

			set := byDay[day][e]
			if set == nil {
				set = make(map[string]struct{})
				byDay[day][e] = set
			}

			for _, term := range a.Top(list) {
				set[term] = struct{}{}
			}
		}
	}

	return byDay
}

func mergedOverlap(byDay map[string]map[models.Edition]map[string]struct{}, days []string, combo []models.Edition) Overlap {
	sets := make([]map[string]struct{}, len(combo))
	largest := 0

	for i, e := range combo {
		merged := make(map[string]struct{})

		for _, day := range days {
			for term := range byDay[day][e] {
				merged[term] = struct{}{}
			}
		}

		sets[i] = merged
		largest = max(largest, len(merged))
	}

	common := intersect(sets)
	if largest == 0 {
		return Overlap{Terms: common}
	}

	return Overlap{Terms: common, Percent: round2(float64(len(common)) / float64(largest) * 100)}
}

// intersect returns the sorted terms present in every set.
func intersect(sets []map[string]struct{}) []string {
	if len(sets) == 0 {
		return nil
	}

	common := []string{}

	for term := range sets[0] {
		inAll := true

		for _, other := range sets[1:] {
			if _, ok := other[term]; !ok {
				inAll = false
				break
			}
		}

		if inAll {
			common = append(common, term)
		}
	}

	slices.Sort(common)

	return common
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
