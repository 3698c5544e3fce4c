// Package report renders objective snapshots and unified diffs between
// them, mirroring the YAML files people edit by hand.
package report

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"okrpulse/internal/metrics"
	"okrpulse/internal/okr"
)

type keyResultSnapshot struct {
	Title    string  `yaml:"title"`
	Start    float64 `yaml:"start"`
	Current  float64 `yaml:"current"`
	Target   float64 `yaml:"target"`
	Unit     string  `yaml:"unit,omitempty"`
	Progress float64 `yaml:"progress"`
}

type objectiveSnapshot struct {
	Title      string              `yaml:"title"`
	Quarter    string              `yaml:"quarter"`
	Category   string              `yaml:"category"`
	Scope      string              `yaml:"scope"`
	Progress   int                 `yaml:"progress"`
	Score      float64             `yaml:"score"`
	Status     string              `yaml:"status"`
	Confidence int                 `yaml:"confidence"`
	Focus      bool                `yaml:"focus"`
	Archived   bool                `yaml:"archived,omitempty"`
	KeyResults []keyResultSnapshot `yaml:"key_results,omitempty"`
}

// Snapshot renders an objective as YAML.
func Snapshot(obj *okr.Objective) (string, error) {
	snap := objectiveSnapshot{
		Title:      obj.Title,
		Quarter:    obj.Quarter,
		Category:   string(obj.Category),
		Scope:      string(obj.Scope),
		Progress:   obj.Progress,
		Score:      metrics.ProgressToScore(obj.Progress),
		Status:     string(obj.Status),
		Confidence: obj.Confidence,
		Focus:      obj.IsFocus,
		Archived:   !obj.IsActive,
	}
	for _, kr := range obj.KeyResults {
		snap.KeyResults = append(snap.KeyResults, keyResultSnapshot{
			Title:    kr.Title,
			Start:    kr.StartValue,
			Current:  kr.CurrentValue,
			Target:   kr.TargetValue,
			Unit:     kr.Unit,
			Progress: kr.Progress,
		})
	}

	out, err := yaml.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(out), nil
}

// Diff returns a unified diff between two snapshots. Returns "" when
// the snapshots are identical.
func Diff(fromLabel, toLabel, before, after string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        strings.Split(before, "\n"),
		B:        strings.Split(after, "\n"),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff snapshots: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}

// CheckInDiff reconstructs the objective state before a check-in from
// its recorded change details and diffs it against the state after.
// The objective passed in must reflect the post-check-in state of the
// key results named by the change details; for older check-ins only
// the rolled-up progress can be reconstructed faithfully.
func CheckInDiff(obj *okr.Objective, ci okr.CheckIn) (string, error) {
	after := *obj
	after.Progress = ci.ChangeDetails.NewProgress
	after.Confidence = ci.Confidence
	after.KeyResults = make([]okr.KeyResult, len(obj.KeyResults))
	copy(after.KeyResults, obj.KeyResults)

	before := after
	before.Progress = ci.ChangeDetails.PreviousProgress
	before.KeyResults = make([]okr.KeyResult, len(after.KeyResults))
	copy(before.KeyResults, after.KeyResults)
	for _, upd := range ci.ChangeDetails.KeyResultUpdates {
		for i := range before.KeyResults {
			if before.KeyResults[i].ID != upd.KeyResultID {
				continue
			}
			before.KeyResults[i].CurrentValue = upd.PreviousValue
			before.KeyResults[i].Progress = metrics.KeyResultProgress(
				upd.PreviousValue, before.KeyResults[i].StartValue, before.KeyResults[i].TargetValue)
			after.KeyResults[i].CurrentValue = upd.NewValue
			after.KeyResults[i].Progress = metrics.KeyResultProgress(
				upd.NewValue, after.KeyResults[i].StartValue, after.KeyResults[i].TargetValue)
		}
	}

	beforeText, err := Snapshot(&before)
	if err != nil {
		return "", err
	}
	afterText, err := Snapshot(&after)
	if err != nil {
		return "", err
	}

	when := ci.CreatedAt.Format("2006-01-02 15:04")
	return Diff("before "+when, "after "+when, beforeText, afterText)
}
