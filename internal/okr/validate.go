package okr

import (
	"fmt"
	"strings"

	"okrpulse/internal/quarter"
)

const (
	// MaxTitleLen bounds objective and key result titles.
	MaxTitleLen = 200
	// MaxReflectionLen bounds free-text check-in fields.
	MaxReflectionLen = 2000
	// MinKeyResults and MaxKeyResults bound the key result count at creation.
	MinKeyResults = 1
	MaxKeyResults = 5
)

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// ObjectiveDraft is the raw, not yet validated input for a new objective.
type ObjectiveDraft struct {
	Title      string
	Quarter    string
	Category   string
	Scope      string
	Confidence int
	KeyResults []KeyResultDraft
}

// KeyResultDraft is the raw input for a new key result.
type KeyResultDraft struct {
	Title  string
	Start  float64
	Target float64
	Unit   string
}

// ValidateDraft checks an objective draft against the field domains.
// It returns the normalized draft when valid.
func ValidateDraft(d ObjectiveDraft) (ObjectiveDraft, ValidationErrors) {
	var errs ValidationErrors

	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	} else if len(d.Title) > MaxTitleLen {
		errs = append(errs, ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLen)})
	}

	d.Quarter = strings.TrimSpace(d.Quarter)
	if !quarter.IsValid(d.Quarter) {
		errs = append(errs, ValidationError{Field: "quarter", Message: fmt.Sprintf("invalid quarter label %q", d.Quarter)})
	}

	if _, err := ParseCategory(d.Category); err != nil {
		errs = append(errs, ValidationError{Field: "category", Message: err.Error()})
	}
	if _, err := ParseScope(d.Scope); err != nil {
		errs = append(errs, ValidationError{Field: "scope", Message: err.Error()})
	}
	if err := ValidateConfidence(d.Confidence); err != nil {
		errs = append(errs, ValidationError{Field: "confidence", Message: err.Error()})
	}

	if len(d.KeyResults) < MinKeyResults || len(d.KeyResults) > MaxKeyResults {
		errs = append(errs, ValidationError{
			Field:   "key_results",
			Message: fmt.Sprintf("must contain between %d and %d key results", MinKeyResults, MaxKeyResults),
		})
	}
	for i := range d.KeyResults {
		path := fmt.Sprintf("key_results[%d]", i)
		d.KeyResults[i].Title = strings.TrimSpace(d.KeyResults[i].Title)
		if d.KeyResults[i].Title == "" {
			errs = append(errs, ValidationError{Field: path + ".title", Message: "title is required"})
		} else if len(d.KeyResults[i].Title) > MaxTitleLen {
			errs = append(errs, ValidationError{Field: path + ".title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLen)})
		}
	}

	return d, errs
}

// ValidateConfidence checks a 1-5 confidence rating.
func ValidateConfidence(c int) error {
	if c < 1 || c > 5 {
		return fmt.Errorf("confidence must be between 1 and 5, got %d", c)
	}
	return nil
}

// ValidateReflection checks an optional free-text check-in field.
func ValidateReflection(field, text string) *ValidationError {
	if len(text) > MaxReflectionLen {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", MaxReflectionLen)}
	}
	return nil
}
