package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCarouselMode is returned for an unrecognized carousel mode name.
var ErrUnknownCarouselMode = errors.New("unknown carousel mode")

// CarouselMode selects how promotional carousel items are handled.
type CarouselMode int

// Carousel handling modes.
const (
	IncludeAll CarouselMode = iota
	ExcludeCarousels
	OnlyCarousels
)

// CarouselModes lists every mode in the order the analyzer runs them.
var CarouselModes = []CarouselMode{ExcludeCarousels, OnlyCarousels, IncludeAll}

// ParseCarouselMode parses INCLUDE_ALL, EXCLUDE_CAROUSELS or ONLY_CAROUSELS.
func ParseCarouselMode(s string) (CarouselMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INCLUDE_ALL", "":
		return IncludeAll, nil
	case "EXCLUDE_CAROUSELS":
		return ExcludeCarousels, nil
	case "ONLY_CAROUSELS":
		return OnlyCarousels, nil
	default:
		return IncludeAll, fmt.Errorf("%w: %q", ErrUnknownCarouselMode, s)
	}
}

func (m CarouselMode) String() string {
	switch m {
	case ExcludeCarousels:
		return "EXCLUDE_CAROUSELS"
	case OnlyCarousels:
		return "ONLY_CAROUSELS"
	default:
		return "INCLUDE_ALL"
	}
}

// Suffix is appended to output file names produced under this mode.
func (m CarouselMode) Suffix() string {
	switch m {
	case ExcludeCarousels:
		return "_no_carousels"
	case OnlyCarousels:
		return "_carousels"
	default:
		return ""
	}
}

// Keep reports whether an item with the given carousel flag passes the filter.
func (m CarouselMode) Keep(carousel bool) bool {
	switch m {
	case ExcludeCarousels:
		return !carousel
	case OnlyCarousels:
		return carousel
	default:
		return true
	}
}
