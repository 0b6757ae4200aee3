// Package models defines the article records and edition sets shared by the analyzers.
package models

import (
	"net/url"
	"slices"
	"strings"
)

// Edition is a language edition code of the outlet (ENG, FRE, GER, ITA).
type Edition string

// Recognized editions.
const (
	English Edition = "ENG"
	French  Edition = "FRE"
	German  Edition = "GER"
	Italian Edition = "ITA"
)

// Recognized lists the editions that take part in identity resolution, in report order.
var Recognized = []Edition{English, French, German, Italian}

// displayNames maps the translation-link keys used by the outlet to edition codes.
var displayNames = map[string]Edition{
	"English":   English,
	"Français":  French,
	"FranÃ§ais": French, // double-encoded UTF-8 seen in early snapshots
	"Deutsch":   German,
	"Italiano":  Italian,
}

// ParseEdition resolves an edition code or a display name.
// It returns false when the value does not name a recognized edition.
func ParseEdition(s string) (Edition, bool) {
	s = strings.TrimSpace(s)
	if e, ok := displayNames[s]; ok {
		return e, true
	}

	e := Edition(strings.ToUpper(s))
	if e.IsRecognized() {
		return e, true
	}

	return "", false
}

// IsRecognized reports whether e is one of the recognized editions.
func (e Edition) IsRecognized() bool {
	return slices.Contains(Recognized, e)
}

func (e Edition) String() string {
	return string(e)
}

// SortEditions sorts editions in place, recognized ones first in report order.
func SortEditions(editions []Edition) {
	slices.SortFunc(editions, func(a, b Edition) int {
		ia, ib := slices.Index(Recognized, a), slices.Index(Recognized, b)
		switch {
		case ia >= 0 && ib >= 0:
			return ia - ib
		case ia >= 0:
			return -1
		case ib >= 0:
			return 1
		default:
			return strings.Compare(string(a), string(b))
		}
	})
}

// IdentifierKey builds the cross-edition key of a URL inside an edition.
// Only the URL path takes part so that absolute and relative links agree.
func IdentifierKey(edition Edition, rawURL string) string {
	return string(edition) + ":" + URLSuffix(rawURL)
}

// URLSuffix strips scheme, host, query, fragment and trailing slashes from a URL.
func URLSuffix(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return strings.TrimRight(rawURL, "/")
	}

	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		return "/"
	}

	return path
}

// ComboKey joins editions with "-", e.g. "ENG-FRE".
func ComboKey(editions []Edition) string {
	parts := make([]string, len(editions))
	for i, e := range editions {
		parts[i] = string(e)
	}

	return strings.Join(parts, "-")
}

// Combinations returns every k-combination of editions, preserving their order.
func Combinations(editions []Edition, k int) [][]Edition {
	var out [][]Edition

	if k <= 0 || k > len(editions) {
		return out
	}

	combo := make([]Edition, 0, k)

	var walk func(start int)
	walk = func(start int) {
		if len(combo) == k {
			out = append(out, append([]Edition(nil), combo...))
			return
		}

		for i := start; i < len(editions); i++ {
			combo = append(combo, editions[i])
			walk(i + 1)
			combo = combo[:len(combo)-1]
		}
	}

	walk(0)

	return out
}
