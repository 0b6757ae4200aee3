// Package originals assigns articles to the edition their story was first written in.
package originals

import "github.com/JosephCarrino/SwissTARO/internal/models"

// Classification groups the articles of an edition set by origin.
type Classification struct {
	// ByOrigin holds every article under its origin edition.
	ByOrigin map[models.Edition][]*models.Article
	// Data holds, per edition, the articles observed in their own origin edition.
	Data           map[models.Edition][]*models.Article
	Lens           map[models.Edition]int
	OriginalsLens  map[models.Edition]int
	Total          int
	OriginalsTotal int
}

// Origin returns the declared recognized origin of a, falling back to its own edition.
func Origin(a *models.Article) models.Edition {
	if e, ok := a.OriginalEdition(); ok {
		return e
	}

	return a.Edition
}

// Classify groups every article of set by origin.
func Classify(set models.EditionSet) Classification {
	c := Classification{
		ByOrigin:      make(map[models.Edition][]*models.Article),
		Data:          make(map[models.Edition][]*models.Article, len(set)),
		Lens:          set.Lens(),
		OriginalsLens: make(map[models.Edition]int, len(set)),
		Total:         set.Total(),
	}

	for _, e := range set.Editions() {
		c.Data[e] = []*models.Article{}

		for _, a := range set[e] {
			origin := Origin(a)
			c.ByOrigin[origin] = append(c.ByOrigin[origin], a)

			if origin == e {
				c.Data[e] = append(c.Data[e], a)
			}
		}

		c.OriginalsLens[e] = len(c.Data[e])
		c.OriginalsTotal += len(c.Data[e])
	}

	return c
}

// Export is the JSON form of a classification.
type Export struct {
	Data map[models.Edition][]string `json:"data"`
	Info ExportInfo                  `json:"info"`
}

// ExportInfo carries the counts of an Export.
type ExportInfo struct {
	TotalLens      map[models.Edition]int `json:"total_lens"`
	OriginalsLens  map[models.Edition]int `json:"originals_lens"`
	OriginLens     map[models.Edition]int `json:"origin_lens"`
	Total          int                    `json:"total"`
	OriginalsTotal int                    `json:"originals_total"`
}

// Export returns the URLs of the originals of each edition with the counts.
func (c Classification) Export() Export {
	out := Export{
		Data: make(map[models.Edition][]string, len(c.Data)),
		Info: ExportInfo{
			TotalLens:      c.Lens,
			OriginalsLens:  c.OriginalsLens,
			OriginLens:     make(map[models.Edition]int, len(c.ByOrigin)),
			Total:          c.Total,
			OriginalsTotal: c.OriginalsTotal,
		},
	}

	for e, items := range c.Data {
		urls := make([]string, len(items))
		for i, a := range items {
			urls[i] = a.URL
		}

		out.Data[e] = urls
	}

	for e, items := range c.ByOrigin {
		out.Info.OriginLens[e] = len(items)
	}

	return out
}
