// Package validator checks the invariants of computed reports before they are written.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/cluster"
	"github.com/JosephCarrino/SwissTARO/internal/commonality"
	"github.com/JosephCarrino/SwissTARO/internal/equivalence"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/internal/stats"
	"github.com/JosephCarrino/SwissTARO/pkg/metadata"
)

// Validation errors.
var (
	ErrClusterSum    = errors.New("overall buckets do not sum to the cluster count")
	ErrLanguageSum   = errors.New("by_language buckets do not sum to the edition length")
	ErrUnassigned    = errors.New("article without a cluster")
	ErrDiagonal      = errors.New("matrix diagonal differs from the edition length")
	ErrLens          = errors.New("matrix lens differ from the edition set")
	ErrRowOutOfRange = errors.New("matrix count exceeds the citing edition length")
	ErrMissingRow    = errors.New("matrix has no row for edition")
	ErrIntegrity     = errors.New("summary integrity check failed")
)

// Issue is one violated invariant.
type Issue struct {
	Err     error
	Edition models.Edition
	Cited   models.Edition
	Got     int
	Want    int
}

func (i Issue) Error() string {
	var sb strings.Builder

	sb.WriteString(i.Err.Error())

	if i.Edition != "" {
		fmt.Fprintf(&sb, " [%s", i.Edition)

		if i.Cited != "" {
			fmt.Fprintf(&sb, "->%s", i.Cited)
		}

		sb.WriteString("]")
	}

	if i.Got != i.Want {
		fmt.Fprintf(&sb, ": got %d, want %d", i.Got, i.Want)
	}

	return sb.String()
}

func (i Issue) Unwrap() error {
	return i.Err
}

// Result contains validation results.
type Result struct {
	Issues []Issue
	Checks int
}

// IsValid reports whether no invariant was violated.
func (r *Result) IsValid() bool {
	return len(r.Issues) == 0
}

// Err joins every issue into one error, or returns nil.
func (r *Result) Err() error {
	if r.IsValid() {
		return nil
	}

	errs := make([]error, len(r.Issues))
	for i, issue := range r.Issues {
		errs[i] = issue
	}

	return errors.Join(errs...)
}

// String returns string representation of validation result.
func (r *Result) String() string {
	status := "VALID"
	if !r.IsValid() {
		status = "INVALID"
	}

	return fmt.Sprintf("%s | Checks: %d | Issues: %d", status, r.Checks, len(r.Issues))
}

func (r *Result) check(ok bool, issue Issue) {
	r.Checks++

	if !ok {
		r.Issues = append(r.Issues, issue)
	}
}

// Input is the set of reports of one run. Nil reports are skipped.
type Input struct {
	Set           models.EditionSet
	Matrix        *commonality.Matrix
	Clusters      *cluster.Clusters
	Cardinalities *stats.CardinalityReport
	Strategy      equivalence.Strategy
}

// ReportValidator checks report invariants.
type ReportValidator struct {
	log *logger.Logger
}

// New creates a validator logging every issue at warn level.
func New(log *logger.Logger) *ReportValidator {
	return &ReportValidator{log: log}
}

// Validate runs every check that applies to in.
func (v *ReportValidator) Validate(in Input) *Result {
	result := &Result{}

	if in.Matrix != nil {
		v.validateMatrix(in, result)
	}

	if in.Clusters != nil && in.Cardinalities != nil {
		v.validateCardinalities(in, result)
	}

	for _, issue := range result.Issues {
		v.log.Warn("report invariant violated", "error", issue.Error())
	}

	return result
}

func (v *ReportValidator) validateMatrix(in Input, result *Result) {
	m := in.Matrix

	for _, e := range in.Set.Editions() {
		want := in.Set.Len(e)
		got, ok := m.Lens[e]
		result.check(ok && got == want, Issue{Err: ErrLens, Edition: e, Got: got, Want: want})

		row, ok := m.Rows[e]
		result.check(ok, Issue{Err: ErrMissingRow, Edition: e})

		if !ok {
			continue
		}

		for _, cited := range in.Set.Editions() {
			count := row[cited]
			result.check(count <= want, Issue{Err: ErrRowOutOfRange, Edition: e, Cited: cited, Got: count, Want: want})
		}

		if in.Strategy == equivalence.Linked {
			result.check(row[e] == want, Issue{Err: ErrDiagonal, Edition: e, Got: row[e], Want: want})
		}
	}

	result.check(len(m.Lens) == len(in.Set), Issue{Err: ErrLens, Got: len(m.Lens), Want: len(in.Set)})
}

func (v *ReportValidator) validateCardinalities(in Input, result *Result) {
	report := in.Cardinalities
	clusters := in.Clusters.Len()

	result.check(report.Overall.Sum() == clusters, Issue{Err: ErrClusterSum, Got: report.Overall.Sum(), Want: clusters})

	for _, e := range in.Set.Editions() {
		want := in.Set.Len(e)
		got := report.ByLanguage[e].Sum()
		result.check(got == want, Issue{Err: ErrLanguageSum, Edition: e, Got: got, Want: want})

		unassigned := report.ByLanguage[e]["0"]
		result.check(unassigned == 0, Issue{Err: ErrUnassigned, Edition: e, Got: unassigned, Want: 0})
	}
}

// ValidateSummary checks the integrity of a signed summary using its metadata block.
func (v *ReportValidator) ValidateSummary(content string) *Result {
	result := &Result{}

	ok, err := metadata.Verify(content)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	result.check(ok, Issue{Err: err})

	return result
}
