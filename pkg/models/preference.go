package models

import (
	"encoding/json"
	"time"
)

// Wildcard is the canonical "Any"/"No preference" value. A criterion set
// containing only the wildcard imposes no constraint on its dimension.
const Wildcard = "any"

// HabitTolerance is a viewer's stated tolerance for a habit
type HabitTolerance string

const (
	HabitToleranceYes        HabitTolerance = "yes"
	HabitToleranceNo         HabitTolerance = "no"
	HabitToleranceOccasional HabitTolerance = "occasional"
	HabitToleranceAny        HabitTolerance = Wildcard
)

// PreferenceDocument is the raw, loosely-typed partner expectation document as
// stored by the profile subsystem. Fields arrive in whatever shape the
// onboarding forms produced; the normalizer is responsible for making sense
// of them. Every field is optional.
type PreferenceDocument struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	AgeFrom         *int            `json:"age_from,omitempty"`
	AgeTo           *int            `json:"age_to,omitempty"`
	MaritalStatuses json.RawMessage `json:"marital_statuses,omitempty"`
	Countries       json.RawMessage `json:"countries,omitempty"`
	States          json.RawMessage `json:"states,omitempty"`
	Communities     json.RawMessage `json:"communities,omitempty"`
	Diets           json.RawMessage `json:"diets,omitempty"`
	Educations      json.RawMessage `json:"educations,omitempty"`
	Professions     json.RawMessage `json:"professions,omitempty"`
	Alcohol         *string         `json:"alcohol,omitempty"`
	Tobacco         *string         `json:"tobacco,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// CriterionSet is a canonical set-valued preference criterion. It is either
// the single wildcard entry or a non-empty set of trimmed, lowercased values.
type CriterionSet map[string]struct{}

// NewCriterionSet builds a set from already-normalized values
func NewCriterionSet(values ...string) CriterionSet {
	s := make(CriterionSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// WildcardSet returns the criterion that imposes no constraint
func WildcardSet() CriterionSet {
	return CriterionSet{Wildcard: {}}
}

// IsWildcard reports whether the set imposes no constraint
func (s CriterionSet) IsWildcard() bool {
	_, ok := s[Wildcard]
	return ok
}

// Contains reports whether the value satisfies the criterion. The wildcard
// accepts everything, including an empty candidate value.
func (s CriterionSet) Contains(value string) bool {
	if s.IsWildcard() {
		return true
	}
	_, ok := s[value]
	return ok
}

// Values returns the set's members in unspecified order
func (s CriterionSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// MarshalJSON renders the set as a JSON array for diagnostics and caching
func (s CriterionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON rebuilds the set from a JSON array
func (s *CriterionSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewCriterionSet(values...)
	return nil
}

// PreferenceSet is the canonical, validated form of a PreferenceDocument.
// Every set-valued field is either {Wildcard} or a non-empty set of
// normalized values, and AgeFrom <= AgeTo within the configured bounds.
type PreferenceSet struct {
	AgeFrom         int            `json:"age_from"`
	AgeTo           int            `json:"age_to"`
	MaritalStatuses CriterionSet   `json:"marital_statuses"`
	Countries       CriterionSet   `json:"countries"`
	States          CriterionSet   `json:"states"`
	Communities     CriterionSet   `json:"communities"`
	Diets           CriterionSet   `json:"diets"`
	Educations      CriterionSet   `json:"educations"`
	Professions     CriterionSet   `json:"professions"`
	Alcohol         HabitTolerance `json:"alcohol"`
	Tobacco         HabitTolerance `json:"tobacco"`
}

// LocationWildcard reports whether neither country nor state is constrained
func (p *PreferenceSet) LocationWildcard() bool {
	return p.Countries.IsWildcard() && p.States.IsWildcard()
}
