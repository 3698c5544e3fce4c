package okr

import (
	"fmt"
	"time"
)

// Category classifies what an objective is about.
type Category string

const (
	CategoryPerformance Category = "performance"
	CategorySkill       Category = "skill"
	CategoryLearning    Category = "learning"
	CategoryCareer      Category = "career"
)

// ParseCategory validates and normalizes a category string.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryPerformance, CategorySkill, CategoryLearning, CategoryCareer:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Scope is the organizational level an objective applies to.
type Scope string

const (
	ScopePersonal Scope = "personal"
	ScopeTeam     Scope = "team"
	ScopeCompany  Scope = "company"
)

// ParseScope validates and normalizes a scope string.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopePersonal, ScopeTeam, ScopeCompany:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Status is the derived health classification of an objective.
type Status string

const (
	StatusOnTrack  Status = "on_track"
	StatusAtRisk   Status = "at_risk"
	StatusOffTrack Status = "off_track"
)

// ParseStatus validates and normalizes a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOnTrack, StatusAtRisk, StatusOffTrack:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// DefaultConfidence is the neutral 1-5 confidence rating.
const DefaultConfidence = 3

// Objective is a quarterly goal and its derived state.
type Objective struct {
	ID            string
	OwnerID       string
	OrgID         string
	Title         string
	Quarter       string
	Category      Category
	Scope         Scope
	Progress      int
	Status        Status
	Confidence    int
	IsActive      bool
	IsFocus       bool
	SortOrder     int
	DueDate       time.Time
	LastCheckInAt *time.Time
	NextCheckInAt *time.Time
	CheckInCount  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	KeyResults    []KeyResult
}

// KeyResult is a measurable sub-goal tracked via start/current/target values.
type KeyResult struct {
	ID           string
	ObjectiveID  string
	Title        string
	StartValue   float64
	CurrentValue float64
	TargetValue  float64
	Unit         string
	Progress     float64
	SortOrder    int
}

// KeyResultUpdate records one value change applied during a check-in.
type KeyResultUpdate struct {
	KeyResultID   string  `json:"key_result_id"`
	PreviousValue float64 `json:"previous_value"`
	NewValue      float64 `json:"new_value"`
}

// ChangeDetails is the immutable snapshot stored with each check-in.
type ChangeDetails struct {
	KeyResultUpdates []KeyResultUpdate `json:"key_result_updates"`
	PreviousProgress int               `json:"previous_progress"`
	NewProgress      int               `json:"new_progress"`
}

// CheckIn is an append-only progress update record.
type CheckIn struct {
	ID            string
	ObjectiveID   string
	UserID        string
	Confidence    int
	Comment       string
	Blockers      string
	ChangeDetails ChangeDetails
	CreatedAt     time.Time
}

// CareerProgress is the per-user seniority qualification counter.
// The counters are maintained by the caller; the engine only evaluates
// the qualification threshold against them.
type CareerProgress struct {
	UserID             string
	OrgID              string
	QualifyingOKRCount int
	TotalOKRsAttempted int
	LevelID            string
}
