package okr

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type rawObjectiveFile struct {
	Objectives []rawObjective `yaml:"objectives"`
}

type rawObjective struct {
	Title      string         `yaml:"title"`
	Quarter    string         `yaml:"quarter"`
	Category   string         `yaml:"category"`
	Scope      string         `yaml:"scope"`
	Confidence *int           `yaml:"confidence"`
	KeyResults []rawKeyResult `yaml:"key_results"`
}

type rawKeyResult struct {
	Title  string   `yaml:"title"`
	Start  *float64 `yaml:"start"`
	Target *float64 `yaml:"target"`
	Unit   string   `yaml:"unit"`
}

// ParseObjectiveFile unmarshals and validates a YAML file of objective
// definitions. Confidence defaults to the neutral rating when omitted.
func ParseObjectiveFile(data []byte, source string) ([]ObjectiveDraft, error) {
	var raw rawObjectiveFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, ValidationErrors{{
			Field:   "yaml",
			Message: fmt.Sprintf("%s: %v", source, err),
		}}
	}
	if len(raw.Objectives) == 0 {
		return nil, ValidationErrors{{
			Field:   "objectives",
			Message: fmt.Sprintf("%s: must contain at least one objective", source),
		}}
	}

	var drafts []ObjectiveDraft
	var errs ValidationErrors

	for idx, rawObj := range raw.Objectives {
		path := fmt.Sprintf("objectives[%d]", idx)

		draft := ObjectiveDraft{
			Title:      rawObj.Title,
			Quarter:    rawObj.Quarter,
			Category:   rawObj.Category,
			Scope:      rawObj.Scope,
			Confidence: DefaultConfidence,
		}
		if rawObj.Confidence != nil {
			draft.Confidence = *rawObj.Confidence
		}

		for krIdx, rawKR := range rawObj.KeyResults {
			krPath := fmt.Sprintf("%s.key_results[%d]", path, krIdx)
			kr := KeyResultDraft{Title: rawKR.Title, Unit: rawKR.Unit}
			if rawKR.Start != nil {
				kr.Start = *rawKR.Start
			}
			if rawKR.Target == nil {
				errs = append(errs, ValidationError{Field: krPath + ".target", Message: "target is required"})
			} else {
				kr.Target = *rawKR.Target
			}
			draft.KeyResults = append(draft.KeyResults, kr)
		}

		normalized, draftErrs := ValidateDraft(draft)
		for _, e := range draftErrs {
			errs = append(errs, ValidationError{Field: path + "." + e.Field, Message: e.Message})
		}
		drafts = append(drafts, normalized)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return drafts, nil
}
