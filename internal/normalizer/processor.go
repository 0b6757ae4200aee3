// Package normalizer turns raw snapshot records into article records.
package normalizer

import (
	"fmt"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Processor handles record validation and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process validates a raw record and stamps it with its source.
func (p *Processor) Process(record *models.Article, src Source) (*models.Article, error) {
	// 1. Validate the input data
	if err := p.validator.Validate(record); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// 2. Transform the data
	article, err := p.transformer.Transform(record, src)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return article, nil
}
