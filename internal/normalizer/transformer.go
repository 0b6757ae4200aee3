package normalizer

import (
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Transformer stamps snapshot records with the context they were read in.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Source describes where a record was read from.
type Source struct {
	Edition models.Edition
	File    string
	Epoch   int64
}

// Transform attaches the edition and the snapshot epoch and trims identifying fields.
func (t *Transformer) Transform(record *models.Article, src Source) (*models.Article, error) {
	if src.Edition == "" {
		return nil, ErrMissingEdition
	}

	if src.Epoch <= 0 {
		return nil, ErrInvalidPublishing
	}

	record.Edition = src.Edition
	record.URL = strings.TrimSpace(record.URL)
	record.Title = strings.TrimSpace(record.Title)
	record.PublishedEpoch = src.Epoch

	for name, target := range record.Translations {
		record.Translations[name] = strings.TrimSpace(target)
	}

	return record, nil
}
