package models

import "encoding/json"

// EditionSet groups the articles observed for each edition in an analysis window.
type EditionSet map[Edition][]*Article

// Editions returns the editions of the set, recognized ones first in report order.
func (s EditionSet) Editions() []Edition {
	editions := make([]Edition, 0, len(s))
	for e := range s {
		editions = append(editions, e)
	}

	SortEditions(editions)

	return editions
}

// Len returns the number of articles of edition e.
func (s EditionSet) Len(e Edition) int {
	return len(s[e])
}

// Lens returns the article count of every edition.
func (s EditionSet) Lens() map[Edition]int {
	lens := make(map[Edition]int, len(s))
	for e, items := range s {
		lens[e] = len(items)
	}

	return lens
}

// Total returns the number of articles over all editions.
func (s EditionSet) Total() int {
	total := 0
	for _, items := range s {
		total += len(items)
	}

	return total
}

// Without returns a shallow copy of the set without edition e.
func (s EditionSet) Without(e Edition) EditionSet {
	out := make(EditionSet, len(s))

	for k, v := range s {
		if k != e {
			out[k] = v
		}
	}

	return out
}

// All returns every article of the set, edition by edition in report order.
func (s EditionSet) All() []*Article {
	all := make([]*Article, 0, s.Total())
	for _, e := range s.Editions() {
		all = append(all, s[e]...)
	}

	return all
}

// Pair is a matched (main url, equivalent url) couple.
type Pair struct {
	Main    string
	Matched string
}

// MarshalJSON encodes the pair as a 2-element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Main, p.Matched})
}

// UnmarshalJSON decodes a 2-element array.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw [2]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Main, p.Matched = raw[0], raw[1]

	return nil
}
