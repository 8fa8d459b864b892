package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/jasmine/pkg/models"
)

var scoringNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// profileAged builds a scoreable candidate of the given age
func profileAged(age int) *models.ProfileSnapshot {
	return &models.ProfileSnapshot{
		ID:            "candidate-1",
		Gender:        models.GenderFemale,
		DateOfBirth:   scoringNow.AddDate(-age, 0, -30),
		MaritalStatus: "never_married",
		Community:     "brahmin",
		Diet:          "vegetarian",
		Alcohol:       models.HabitUsageNo,
		Tobacco:       models.HabitUsageNo,
		Education:     "masters",
		Profession:    "engineer",
		Country:       "india",
		State:         "karnataka",
		IsActive:      true,
		IsApproved:    true,
		IsVisible:     true,
	}
}

func wildcardPreferences() *models.PreferenceSet {
	return &models.PreferenceSet{
		AgeFrom:         18,
		AgeTo:           40,
		MaritalStatuses: models.WildcardSet(),
		Countries:       models.WildcardSet(),
		States:          models.WildcardSet(),
		Communities:     models.WildcardSet(),
		Diets:           models.WildcardSet(),
		Educations:      models.WildcardSet(),
		Professions:     models.WildcardSet(),
		Alcohol:         models.HabitToleranceAny,
		Tobacco:         models.HabitToleranceAny,
	}
}

func TestScoreAge(t *testing.T) {
	tests := []struct {
		name         string
		from, to     int
		age          int
		wantScore    float64
		wantHardFail bool
	}{
		{name: "inside band", from: 25, to: 35, age: 30, wantScore: 1.0},
		{name: "at lower bound", from: 25, to: 35, age: 25, wantScore: 1.0},
		{name: "at upper bound", from: 25, to: 35, age: 35, wantScore: 1.0},
		{name: "one year over decays linearly", from: 25, to: 35, age: 36, wantScore: 0.5},
		{name: "one year under decays linearly", from: 25, to: 35, age: 24, wantScore: 0.5},
		{name: "at grace edge is a hard fail", from: 25, to: 35, age: 37, wantScore: 0, wantHardFail: true},
		{name: "far outside is a hard fail", from: 25, to: 35, age: 45, wantScore: 0, wantHardFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorers := NewScorers(DefaultScorerConfig())
			pref := wildcardPreferences()
			pref.AgeFrom = tt.from
			pref.AgeTo = tt.to

			scores := scorers.ScoreAll(pref, profileAged(tt.age), scoringNow)

			got := scores[models.DimensionAge]
			assert.InDelta(t, tt.wantScore, got.Score, 0.001)
			assert.Equal(t, tt.wantHardFail, got.HardFail)
		})
	}
}

func TestScoreAge_MissingDateOfBirth(t *testing.T) {
	scorers := NewScorers(DefaultScorerConfig())
	pref := wildcardPreferences()
	pref.AgeFrom = 25
	pref.AgeTo = 35

	candidate := profileAged(30)
	candidate.DateOfBirth = time.Time{}

	scores := scorers.ScoreAll(pref, candidate, scoringNow)

	got := scores[models.DimensionAge]
	assert.Equal(t, 0.5, got.Score)
	assert.False(t, got.HardFail)
}

func TestScoreAge_SoftPolicy(t *testing.T) {
	cfg := DefaultScorerConfig()
	cfg.HardFailAge = false
	scorers := NewScorers(cfg)

	pref := wildcardPreferences()
	pref.AgeFrom = 25
	pref.AgeTo = 35

	scores := scorers.ScoreAll(pref, profileAged(45), scoringNow)

	got := scores[models.DimensionAge]
	assert.Equal(t, 0.0, got.Score)
	assert.False(t, got.HardFail)
}

func TestScoreLocation(t *testing.T) {
	tests := []struct {
		name           string
		countries      models.CriterionSet
		states         models.CriterionSet
		country, state string
		wantScore      float64
		wantHardFail   bool
	}{
		{
			name:      "wildcard accepts anything",
			countries: models.WildcardSet(),
			states:    models.WildcardSet(),
			country:   "canada",
			state:     "ontario",
			wantScore: 1.0,
		},
		{
			name:      "country and state match",
			countries: models.NewCriterionSet("india"),
			states:    models.NewCriterionSet("karnataka"),
			country:   "india",
			state:     "karnataka",
			wantScore: 1.0,
		},
		{
			name:      "country level preference is the partial tier",
			countries: models.NewCriterionSet("india", "canada"),
			states:    models.WildcardSet(),
			country:   "canada",
			state:     "ontario",
			wantScore: 0.7,
		},
		{
			name:      "country matches but state does not",
			countries: models.NewCriterionSet("india"),
			states:    models.NewCriterionSet("karnataka"),
			country:   "india",
			state:     "kerala",
			wantScore: 0.7,
		},
		{
			name:      "country matches but state unknown",
			countries: models.NewCriterionSet("india"),
			states:    models.NewCriterionSet("karnataka"),
			country:   "india",
			state:     "",
			wantScore: 0.7,
		},
		{
			name:         "country mismatch is a hard fail",
			countries:    models.NewCriterionSet("india"),
			states:       models.WildcardSet(),
			country:      "canada",
			state:        "ontario",
			wantScore:    0,
			wantHardFail: true,
		},
		{
			name:      "unknown residence scores neutrally",
			countries: models.NewCriterionSet("india"),
			states:    models.WildcardSet(),
			country:   "",
			state:     "",
			wantScore: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorers := NewScorers(DefaultScorerConfig())
			pref := wildcardPreferences()
			pref.Countries = tt.countries
			pref.States = tt.states

			candidate := profileAged(30)
			candidate.Country = tt.country
			candidate.State = tt.state

			scores := scorers.ScoreAll(pref, candidate, scoringNow)

			got := scores[models.DimensionLocation]
			assert.InDelta(t, tt.wantScore, got.Score, 0.001)
			assert.Equal(t, tt.wantHardFail, got.HardFail)
		})
	}
}

func TestScoreSetDimensions(t *testing.T) {
	scorers := NewScorers(DefaultScorerConfig())

	t.Run("community mismatch is soft", func(t *testing.T) {
		pref := wildcardPreferences()
		pref.Communities = models.NewCriterionSet("kayastha")

		scores := scorers.ScoreAll(pref, profileAged(30), scoringNow)

		got := scores[models.DimensionCommunity]
		assert.Equal(t, 0.0, got.Score)
		assert.False(t, got.HardFail)
	})

	t.Run("marital status mismatch is hard", func(t *testing.T) {
		pref := wildcardPreferences()
		pref.MaritalStatuses = models.NewCriterionSet("divorced")

		scores := scorers.ScoreAll(pref, profileAged(30), scoringNow)

		got := scores[models.DimensionMaritalStatus]
		assert.Equal(t, 0.0, got.Score)
		assert.True(t, got.HardFail)
	})

	t.Run("missing candidate value scores neutrally", func(t *testing.T) {
		pref := wildcardPreferences()
		pref.Educations = models.NewCriterionSet("masters")

		candidate := profileAged(30)
		candidate.Education = ""

		scores := scorers.ScoreAll(pref, candidate, scoringNow)

		got := scores[models.DimensionEducation]
		assert.Equal(t, 0.5, got.Score)
		assert.False(t, got.HardFail)
	})

	t.Run("candidate value is normalized before membership", func(t *testing.T) {
		pref := wildcardPreferences()
		pref.Diets = models.NewCriterionSet("vegetarian")

		candidate := profileAged(30)
		candidate.Diet = "  Vegetarian "

		scores := scorers.ScoreAll(pref, candidate, scoringNow)

		assert.Equal(t, 1.0, scores[models.DimensionDiet].Score)
	})
}

func TestScoreHabits(t *testing.T) {
	tests := []struct {
		name         string
		tolerance    models.HabitTolerance
		usage        models.HabitUsage
		wantScore    float64
		wantHardFail bool
	}{
		{name: "strict no against yes", tolerance: models.HabitToleranceNo, usage: models.HabitUsageYes, wantScore: 0.5, wantHardFail: true},
		{name: "strict no against occasional", tolerance: models.HabitToleranceNo, usage: models.HabitUsageOccasional, wantScore: 0.75},
		{name: "strict no against unknown", tolerance: models.HabitToleranceNo, usage: models.HabitUsageUnknown, wantScore: 0.75},
		{name: "occasional partially accepts yes", tolerance: models.HabitToleranceOccasional, usage: models.HabitUsageYes, wantScore: 0.75},
		{name: "occasional accepts occasional", tolerance: models.HabitToleranceOccasional, usage: models.HabitUsageOccasional, wantScore: 1.0},
		{name: "yes accepts anything", tolerance: models.HabitToleranceYes, usage: models.HabitUsageYes, wantScore: 1.0},
		{name: "any accepts anything", tolerance: models.HabitToleranceAny, usage: models.HabitUsageYes, wantScore: 1.0},
	}

	// Tobacco stays unconstrained against a non-user, so the combined habit
	// dimension is (alcoholScore + 1.0) / 2.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorers := NewScorers(DefaultScorerConfig())
			pref := wildcardPreferences()
			pref.Alcohol = tt.tolerance

			candidate := profileAged(30)
			candidate.Alcohol = tt.usage
			candidate.Tobacco = models.HabitUsageNo

			scores := scorers.ScoreAll(pref, candidate, scoringNow)

			got := scores[models.DimensionHabits]
			assert.InDelta(t, tt.wantScore, got.Score, 0.001)
			assert.Equal(t, tt.wantHardFail, got.HardFail)
		})
	}
}

func TestScoreAll_Deterministic(t *testing.T) {
	scorers := NewScorers(DefaultScorerConfig())
	pref := wildcardPreferences()
	pref.AgeFrom = 25
	pref.AgeTo = 35
	pref.Communities = models.NewCriterionSet("brahmin")
	candidate := profileAged(29)

	first := scorers.ScoreAll(pref, candidate, scoringNow)
	second := scorers.ScoreAll(pref, candidate, scoringNow)

	assert.Equal(t, first, second)
}
