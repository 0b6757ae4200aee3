package normalizer

import (
	"errors"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Validation errors.
var (
	ErrNilRecord         = errors.New("snapshot record is null")
	ErrMissingItemURL    = errors.New("snapshot record missing item_url")
	ErrMissingEdition    = errors.New("snapshot record has no edition")
	ErrInvalidPublishing = errors.New("snapshot epoch must be positive")
)

// Validator checks the fields every snapshot record must carry.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks if a raw record meets requirements.
func (v *Validator) Validate(record *models.Article) error {
	if record == nil {
		return ErrNilRecord
	}

	if strings.TrimSpace(record.URL) == "" {
		return ErrMissingItemURL
	}

	return nil
}
