package okr

import (
	"strings"
	"testing"
)

func TestParseObjectiveFileValid(t *testing.T) {
	yml := `
objectives:
  - title: Improve onboarding
    quarter: Q3 2026
    category: performance
    scope: team
    key_results:
      - title: Reduce time to first commit
        start: 10
        target: 3
        unit: days
      - title: New-hire satisfaction score
        target: 9
`
	drafts, err := ParseObjectiveFile([]byte(yml), "okrs.yml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts len = %d, want 1", len(drafts))
	}
	d := drafts[0]
	if d.Confidence != DefaultConfidence {
		t.Fatalf("confidence default = %d, want %d", d.Confidence, DefaultConfidence)
	}
	if len(d.KeyResults) != 2 {
		t.Fatalf("key results len = %d, want 2", len(d.KeyResults))
	}
	if d.KeyResults[1].Start != 0 {
		t.Fatalf("omitted start = %v, want 0", d.KeyResults[1].Start)
	}
}

func TestParseObjectiveFileMissingFields(t *testing.T) {
	yml := `
objectives:
  - title: ""
    quarter: "2026 Q3"
    category: finance
    scope: team
    key_results:
      - title: ""
`
	_, err := ParseObjectiveFile([]byte(yml), "bad.yml")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	msg := verrs.Error()
	for _, want := range []string{"title", "quarter", "category", "target"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in error, got:\n%s", want, msg)
		}
	}
}

func TestParseObjectiveFileEmpty(t *testing.T) {
	if _, err := ParseObjectiveFile([]byte("objectives: []"), "empty.yml"); err == nil {
		t.Fatalf("expected error for empty objective list")
	}
	if _, err := ParseObjectiveFile([]byte(":::"), "garbage.yml"); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func TestParseValuesFile(t *testing.T) {
	yml := `
values:
  - key_result: kr-1
    value: 12
  - key_result: kr-2
    value: -3.5
`
	updates, err := ParseValuesFile([]byte(yml))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates len = %d, want 2", len(updates))
	}
	if updates[0].KeyResultID != "kr-1" || updates[0].Value != 12 {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
	if updates[1].Value != -3.5 {
		t.Fatalf("negative value = %v, want -3.5", updates[1].Value)
	}
}

func TestParseValuesFileTopLevelList(t *testing.T) {
	yml := `
- key_result: kr-1
  value: 0
`
	updates, err := ParseValuesFile([]byte(yml))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(updates) != 1 || updates[0].Value != 0 {
		t.Fatalf("unexpected updates: %+v", updates)
	}
}

func TestParseValuesFileMissingValue(t *testing.T) {
	yml := `
values:
  - key_result: kr-1
`
	if _, err := ParseValuesFile([]byte(yml)); err == nil {
		t.Fatalf("expected error for missing value")
	}
}
