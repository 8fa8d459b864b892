// Package matching implements compatibility scoring and candidate ranking.
package matching

import (
	"time"

	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/normalizers"
)

// ScorerConfig is the injected scoring policy. Hard-fail toggles decide
// which dimension mismatches exclude a pair instead of penalizing it.
type ScorerConfig struct {
	AgeGraceYears    int
	HardFailAge      bool
	HardFailLocation bool
	HardFailMarital  bool
	HardFailHabits   bool
}

// DefaultScorerConfig returns the default hard-fail policy
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		AgeGraceYears:    2,
		HardFailAge:      true,
		HardFailLocation: true,
		HardFailMarital:  true,
		HardFailHabits:   true,
	}
}

// scorerFunc scores one dimension of a candidate against a viewer's
// preferences. Scorers are pure: same inputs, same outcome.
type scorerFunc func(pref *models.PreferenceSet, view candidateView) models.DimensionScore

// candidateView is a candidate snapshot with the age pre-derived, so every
// scorer sees the same age regardless of when in the request it runs.
type candidateView struct {
	profile *models.ProfileSnapshot
	age     int
}

// Scorers is the fixed table of per-dimension scoring functions
type Scorers struct {
	config ScorerConfig
	table  map[models.Dimension]scorerFunc
}

// NewScorers builds the dimension scorer table
func NewScorers(config ScorerConfig) *Scorers {
	if config.AgeGraceYears < 0 {
		config.AgeGraceYears = 0
	}

	s := &Scorers{config: config}
	s.table = map[models.Dimension]scorerFunc{
		models.DimensionAge:           s.scoreAge,
		models.DimensionLocation:      s.scoreLocation,
		models.DimensionCommunity:     s.scoreCommunity,
		models.DimensionDiet:          s.scoreDiet,
		models.DimensionEducation:     s.scoreEducation,
		models.DimensionProfession:    s.scoreProfession,
		models.DimensionMaritalStatus: s.scoreMaritalStatus,
		models.DimensionHabits:        s.scoreHabits,
	}
	return s
}

// ScoreAll runs every dimension scorer for one viewer->candidate direction
func (s *Scorers) ScoreAll(pref *models.PreferenceSet, candidate *models.ProfileSnapshot, now time.Time) map[models.Dimension]models.DimensionScore {
	view := candidateView{
		profile: candidate,
		age:     candidate.AgeAt(now),
	}

	scores := make(map[models.Dimension]models.DimensionScore, len(s.table))
	for dimension, score := range s.table {
		scores[dimension] = score(pref, view)
	}
	return scores
}

// scoreAge gives 1.0 inside the preferred band and decays linearly to 0
// across the grace window beyond each bound. At or past the edge of the
// grace window the candidate is a hard fail: an age band is a deal breaker,
// not a mild preference.
func (s *Scorers) scoreAge(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	// Unknown age is uncertainty, not a violation
	if view.profile.DateOfBirth.IsZero() {
		return models.DimensionScore{Score: 0.5}
	}

	if view.age >= pref.AgeFrom && view.age <= pref.AgeTo {
		return models.DimensionScore{Score: 1.0}
	}

	distance := pref.AgeFrom - view.age
	if view.age > pref.AgeTo {
		distance = view.age - pref.AgeTo
	}

	grace := s.config.AgeGraceYears
	if distance >= grace || grace == 0 {
		return models.DimensionScore{Score: 0, HardFail: s.config.HardFailAge}
	}

	return models.DimensionScore{Score: 1.0 - float64(distance)/float64(grace)}
}

// scoreLocation scores residence in three tiers: an explicit country+state
// match is exact (1.0), an accepted country without an explicit state match
// is partial (0.7), and a rejected country is a hard fail when the policy
// says so. A country-level preference therefore tops out at the partial
// tier; only a state the viewer named scores the full 1.0.
func (s *Scorers) scoreLocation(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	if pref.LocationWildcard() {
		return models.DimensionScore{Score: 1.0}
	}

	country := normalizers.NormalizeCriterion(view.profile.Country)
	state := normalizers.NormalizeCriterion(view.profile.State)

	// Unknown residence is penalized but never excludes
	if country == "" {
		return models.DimensionScore{Score: 0.5}
	}

	if !pref.Countries.Contains(country) {
		return models.DimensionScore{Score: 0, HardFail: s.config.HardFailLocation}
	}

	if !pref.States.IsWildcard() && state != "" && pref.States.Contains(state) {
		return models.DimensionScore{Score: 1.0}
	}
	return models.DimensionScore{Score: 0.7}
}

func (s *Scorers) scoreCommunity(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	return scoreMembership(pref.Communities, view.profile.Community, false)
}

func (s *Scorers) scoreDiet(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	return scoreMembership(pref.Diets, view.profile.Diet, false)
}

func (s *Scorers) scoreEducation(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	return scoreMembership(pref.Educations, view.profile.Education, false)
}

func (s *Scorers) scoreProfession(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	return scoreMembership(pref.Professions, view.profile.Profession, false)
}

func (s *Scorers) scoreMaritalStatus(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	return scoreMembership(pref.MaritalStatuses, view.profile.MaritalStatus, s.config.HardFailMarital)
}

// scoreMembership is the shared set-membership rule. A missing candidate
// value scores neutrally rather than failing, so sparse profiles are ranked
// lower instead of rejected.
func scoreMembership(set models.CriterionSet, value string, hardOnMiss bool) models.DimensionScore {
	if set.IsWildcard() {
		return models.DimensionScore{Score: 1.0}
	}

	normalized := normalizers.NormalizeCriterion(value)
	if normalized == "" {
		return models.DimensionScore{Score: 0.5}
	}

	if set.Contains(normalized) {
		return models.DimensionScore{Score: 1.0}
	}

	return models.DimensionScore{Score: 0, HardFail: hardOnMiss}
}

// scoreHabits combines the alcohol and tobacco verdicts into one dimension.
// Either habit tripping a hard rejection excludes the pair; otherwise the
// dimension score is the mean of the two.
func (s *Scorers) scoreHabits(pref *models.PreferenceSet, view candidateView) models.DimensionScore {
	alcohol := s.scoreHabit(pref.Alcohol, view.profile.Alcohol)
	tobacco := s.scoreHabit(pref.Tobacco, view.profile.Tobacco)

	return models.DimensionScore{
		Score:    (alcohol.Score + tobacco.Score) / 2,
		HardFail: alcohol.HardFail || tobacco.HardFail,
	}
}

// scoreHabit applies the tolerance/usage compatibility matrix for one habit.
// Unknown usage never excludes; a strict "no" against a confirmed "yes" does.
func (s *Scorers) scoreHabit(tolerance models.HabitTolerance, usage models.HabitUsage) models.DimensionScore {
	switch tolerance {
	case models.HabitToleranceAny, models.HabitToleranceYes:
		return models.DimensionScore{Score: 1.0}
	case models.HabitToleranceOccasional:
		switch usage {
		case models.HabitUsageYes:
			return models.DimensionScore{Score: 0.5}
		default:
			return models.DimensionScore{Score: 1.0}
		}
	case models.HabitToleranceNo:
		switch usage {
		case models.HabitUsageYes:
			return models.DimensionScore{Score: 0, HardFail: s.config.HardFailHabits}
		case models.HabitUsageOccasional:
			return models.DimensionScore{Score: 0.5}
		case models.HabitUsageNo:
			return models.DimensionScore{Score: 1.0}
		default:
			// unknown or unset usage is uncertainty, not a violation
			return models.DimensionScore{Score: 0.5}
		}
	default:
		return models.DimensionScore{Score: 1.0}
	}
}
