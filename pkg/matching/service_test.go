package matching

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/preferences"
)

type fakeProfileRepository struct {
	profiles     map[string]*models.ProfileSnapshot
	prefs        map[string]*models.PreferenceDocument
	pool         []string
	poolErr      error
	snapshotErrs map[string]error
}

func (f *fakeProfileRepository) GetSnapshot(_ context.Context, userID string) (*models.ProfileSnapshot, error) {
	if err, ok := f.snapshotErrs[userID]; ok {
		return nil, err
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "user %s not found", userID)
	}
	return profile, nil
}

func (f *fakeProfileRepository) GetPreferences(_ context.Context, userID string) (*models.PreferenceDocument, error) {
	doc, ok := f.prefs[userID]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no preferences for user %s", userID)
	}
	return doc, nil
}

func (f *fakeProfileRepository) CandidatePool(_ context.Context, _ models.PoolFilter) ([]string, error) {
	if f.poolErr != nil {
		return nil, f.poolErr
	}
	return f.pool, nil
}

func newTestService(repo ProfileRepository) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	svc := NewService(
		logger,
		repo,
		preferences.NewNormalizer(logger, preferences.DefaultConfig()),
		NewScorers(DefaultScorerConfig()),
		NewAggregator(DefaultWeights()),
		nil,
	)
	svc.now = func() time.Time { return scoringNow }
	return svc
}

func pairRepo() *fakeProfileRepository {
	groom := profileAged(30)
	groom.ID = "user-a"
	groom.Gender = models.GenderMale

	bride := profileAged(28)
	bride.ID = "user-b"
	bride.Gender = models.GenderFemale

	return &fakeProfileRepository{
		profiles: map[string]*models.ProfileSnapshot{
			"user-a": groom,
			"user-b": bride,
		},
		prefs: map[string]*models.PreferenceDocument{},
	}
}

func TestComputeMatchScore_SelfComparison(t *testing.T) {
	svc := newTestService(pairRepo())

	_, err := svc.ComputeMatchScore(context.Background(), "user-a", "user-a")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestComputeMatchScore_UnknownUser(t *testing.T) {
	svc := newTestService(pairRepo())

	_, err := svc.ComputeMatchScore(context.Background(), "user-a", "user-missing")

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestComputeMatchScore_InactiveUser(t *testing.T) {
	repo := pairRepo()
	repo.profiles["user-b"].IsActive = false
	svc := newTestService(repo)

	_, err := svc.ComputeMatchScore(context.Background(), "user-a", "user-b")

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestComputeMatchScore_MissingPreferencesAreWildcard(t *testing.T) {
	svc := newTestService(pairRepo())

	result, err := svc.ComputeMatchScore(context.Background(), "user-a", "user-b")

	require.NoError(t, err)
	assert.False(t, result.Excluded)
	assert.Equal(t, 100, result.ScoreAtoB.Score)
	assert.Equal(t, 100, result.ScoreBtoA.Score)
	assert.Equal(t, 100, result.MutualScore)
}

func TestComputeMatchScore_HabitHardFailExcludes(t *testing.T) {
	repo := pairRepo()
	repo.profiles["user-b"].Alcohol = models.HabitUsageYes
	alcohol := "no"
	repo.prefs["user-a"] = &models.PreferenceDocument{Alcohol: &alcohol}
	svc := newTestService(repo)

	result, err := svc.ComputeMatchScore(context.Background(), "user-a", "user-b")

	require.NoError(t, err)
	assert.True(t, result.Excluded)
	assert.True(t, result.ScoreAtoB.Excluded)
	assert.Equal(t, 0, result.MutualScore)
}

func TestComputeMatchScore_Deterministic(t *testing.T) {
	svc := newTestService(pairRepo())

	first, err := svc.ComputeMatchScore(context.Background(), "user-a", "user-b")
	require.NoError(t, err)
	second, err := svc.ComputeMatchScore(context.Background(), "user-a", "user-b")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMutualScore(t *testing.T) {
	tests := []struct {
		name string
		a, b models.DirectionalScore
		want int
	}{
		{
			name: "harmonic mean penalizes asymmetry",
			a:    models.DirectionalScore{Score: 80},
			b:    models.DirectionalScore{Score: 40},
			want: 53,
		},
		{
			name: "symmetric scores pass through",
			a:    models.DirectionalScore{Score: 90},
			b:    models.DirectionalScore{Score: 90},
			want: 90,
		},
		{
			name: "zero on either side is zero",
			a:    models.DirectionalScore{Score: 0},
			b:    models.DirectionalScore{Score: 95},
			want: 0,
		},
		{
			name: "exclusion on either side is zero",
			a:    models.DirectionalScore{Score: 80, Excluded: true},
			b:    models.DirectionalScore{Score: 80},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mutualScore(tt.a, tt.b))
		})
	}
}

func TestScoreCandidate_AgeNarrowingIsMonotonic(t *testing.T) {
	svc := newTestService(pairRepo())

	pool := make([]*models.ProfileSnapshot, 0, 21)
	for age := 20; age <= 40; age++ {
		pool = append(pool, profileAged(age))
	}

	countNonExcluded := func(ageFrom, ageTo int) int {
		doc := &models.PreferenceDocument{AgeFrom: &ageFrom, AgeTo: &ageTo}
		pref := svc.normalizer.Normalize(doc)

		count := 0
		for _, candidate := range pool {
			if !svc.ScoreCandidate(pref, candidate, scoringNow).Excluded {
				count++
			}
		}
		return count
	}

	wide := countNonExcluded(22, 38)
	narrow := countNonExcluded(27, 33)
	narrower := countNonExcluded(29, 31)

	assert.LessOrEqual(t, narrow, wide)
	assert.LessOrEqual(t, narrower, narrow)
}
