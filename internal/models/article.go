package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// OriginalLanguageKey is the reserved translations key declaring the source language of a story.
	OriginalLanguageKey = "original_language"
	// UnknownOriginal is the sentinel value used when the source language is not known.
	UnknownOriginal = "Unknown"
)

// ErrInvalidText is returned when a text field is neither a string nor a list of strings.
var ErrInvalidText = errors.New("text must be a string or a list of strings")

// Text is a scraped text field. Snapshots carry either one string or a list of paragraphs.
type Text []string

// UnmarshalJSON accepts a string, a list of strings or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = nil

		return nil
	}

	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidText, err)
		}

		*t = Text{s}

		return nil
	}

	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidText, err)
	}

	*t = parts

	return nil
}

// String joins the paragraphs with newlines.
func (t Text) String() string {
	return strings.Join(t, "\n")
}

// IsEmpty reports whether the text has no non-blank content.
func (t Text) IsEmpty() bool {
	return strings.TrimSpace(t.String()) == ""
}

// Article is one scraped news item of an edition.
type Article struct {
	Translations   map[string]string `json:"translations"`
	Edition        Edition           `json:"-"`
	URL            string            `json:"item_url"`
	Title          string            `json:"title"`
	Subtitle       string            `json:"subtitle"`
	Lang           string            `json:"lang"`
	OriginalLang   string            `json:"original_language,omitempty"`
	EnTitle        string            `json:"en_title,omitempty"`
	EnSubtitle     string            `json:"en_subtitle,omitempty"`
	Content        Text              `json:"content"`
	EnContent      Text              `json:"en_content,omitempty"`
	PublishedEpoch int64             `json:"epoch,omitempty"`
	Carousel       bool              `json:"carousel"`
}

// Key identifies the article across the whole edition set.
func (a *Article) Key() string {
	return string(a.Edition) + "|" + a.URL
}

// IdentifierKey is the article's own cross-edition key.
func (a *Article) IdentifierKey() string {
	return IdentifierKey(a.Edition, a.URL)
}

// TranslationLinks returns the declared links whose target is a recognized edition.
// Links to unknown edition names and the reserved original-language entry are ignored.
func (a *Article) TranslationLinks() map[Edition]string {
	links := make(map[Edition]string, len(a.Translations))

	for name, target := range a.Translations {
		if name == OriginalLanguageKey {
			continue
		}

		edition, ok := ParseEdition(name)
		if !ok || strings.TrimSpace(target) == "" {
			continue
		}

		links[edition] = target
	}

	return links
}

// OriginalEdition returns the declared source edition of the story, or false when unknown.
func (a *Article) OriginalEdition() (Edition, bool) {
	declared := a.OriginalLang
	if declared == "" && a.Translations != nil {
		declared = a.Translations[OriginalLanguageKey]
	}

	if declared == "" || strings.EqualFold(declared, UnknownOriginal) {
		return "", false
	}

	return ParseEdition(declared)
}

// EnglishText returns the English content used for similarity scoring.
// English articles fall back to their own content when no translation was attached.
func (a *Article) EnglishText() string {
	if !a.EnContent.IsEmpty() {
		return a.EnContent.String()
	}

	if a.Edition == English && !a.Content.IsEmpty() {
		return a.Content.String()
	}

	return ""
}
