package stats

import (
	"encoding/json"
	"fmt"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// UnpairedReport lists the translation links pointing to URLs missing from the loaded set,
// grouped by citing and cited edition.
type UnpairedReport struct {
	Links map[models.Edition]map[models.Edition][]string
	Info  UnpairedInfo
}

// UnpairedInfo summarizes an UnpairedReport.
type UnpairedInfo struct {
	Lens   map[models.Edition]map[models.Edition]int `json:"lens"`
	Totals map[models.Edition]int                    `json:"totals"`
	Total  int                                       `json:"total"`
}

// Unpaired checks every translation link to a loaded edition against the URLs of that edition.
// A link is unpaired when no article of the cited edition has exactly the target URL.
func Unpaired(set models.EditionSet) UnpairedReport {
	index := make(map[models.Edition]map[string]struct{}, len(set))
	for e, items := range set {
		urls := make(map[string]struct{}, len(items))
		for _, a := range items {
			urls[a.URL] = struct{}{}
		}

		index[e] = urls
	}

	report := UnpairedReport{
		Links: make(map[models.Edition]map[models.Edition][]string),
		Info: UnpairedInfo{
			Lens:   make(map[models.Edition]map[models.Edition]int),
			Totals: make(map[models.Edition]int),
		},
	}

	for _, citing := range set.Editions() {
		report.Info.Totals[citing] = 0

		for _, a := range set[citing] {
			links := a.TranslationLinks()

			cited := make([]models.Edition, 0, len(links))
			for e := range links {
				cited = append(cited, e)
			}

			models.SortEditions(cited)

			for _, e := range cited {
				urls, loaded := index[e]
				if !loaded {
					continue
				}

				if _, ok := urls[links[e]]; ok {
					continue
				}

				report.add(citing, e, links[e])
			}
		}
	}

	return report
}

func (r *UnpairedReport) add(citing, cited models.Edition, url string) {
	if r.Links[citing] == nil {
		r.Links[citing] = make(map[models.Edition][]string)
		r.Info.Lens[citing] = make(map[models.Edition]int)
	}

	r.Links[citing][cited] = append(r.Links[citing][cited], url)
	r.Info.Lens[citing][cited]++
	r.Info.Totals[citing]++
	r.Info.Total++
}

// Count returns the number of unpaired links from citing to cited.
func (r *UnpairedReport) Count(citing, cited models.Edition) int {
	return len(r.Links[citing][cited])
}

// MarshalJSON writes the links at the top level next to an "info" entry.
func (r UnpairedReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Links)+1)
	for citing, byCited := range r.Links {
		out[string(citing)] = byCited
	}

	out["info"] = r.Info

	return json.Marshal(out)
}

// UnmarshalJSON restores a report written by MarshalJSON.
func (r *UnpairedReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Links = make(map[models.Edition]map[models.Edition][]string)

	for key, value := range raw {
		if key == "info" {
			if err := json.Unmarshal(value, &r.Info); err != nil {
				return fmt.Errorf("unpaired info: %w", err)
			}

			continue
		}

		var byCited map[models.Edition][]string
		if err := json.Unmarshal(value, &byCited); err != nil {
			return fmt.Errorf("unpaired links of %s: %w", key, err)
		}

		r.Links[models.Edition(key)] = byCited
	}

	return nil
}

// Citing returns every citing edition of the report, in report order.
func (r *UnpairedReport) Citing() []models.Edition {
	editions := make([]models.Edition, 0, len(r.Info.Totals))
	for e := range r.Info.Totals {
		editions = append(editions, e)
	}

	models.SortEditions(editions)

	return editions
}
