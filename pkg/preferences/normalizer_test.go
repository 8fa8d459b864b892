package preferences

import (
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/jasmine/pkg/models"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewNormalizer(logger, Config{AgeMin: 18, AgeMax: 40})
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func TestNormalize_NilDocument(t *testing.T) {
	n := testNormalizer(t)

	set := n.Normalize(nil)

	require.NotNil(t, set)
	assert.Equal(t, 18, set.AgeFrom)
	assert.Equal(t, 40, set.AgeTo)
	assert.True(t, set.MaritalStatuses.IsWildcard())
	assert.True(t, set.Communities.IsWildcard())
	assert.True(t, set.LocationWildcard())
	assert.Equal(t, models.HabitToleranceAny, set.Alcohol)
	assert.Equal(t, models.HabitToleranceAny, set.Tobacco)
}

func TestNormalize_AgeRange(t *testing.T) {
	tests := []struct {
		name     string
		from     *int
		to       *int
		wantFrom int
		wantTo   int
	}{
		{
			name:     "valid range",
			from:     intPtr(25),
			to:       intPtr(32),
			wantFrom: 25,
			wantTo:   32,
		},
		{
			name:     "missing bounds default to full band",
			wantFrom: 18,
			wantTo:   40,
		},
		{
			name:     "out of bounds values are dropped individually",
			from:     intPtr(12),
			to:       intPtr(30),
			wantFrom: 18,
			wantTo:   30,
		},
		{
			name:     "above maximum",
			from:     intPtr(25),
			to:       intPtr(55),
			wantFrom: 25,
			wantTo:   40,
		},
		{
			name:     "inverted range falls back entirely",
			from:     intPtr(35),
			to:       intPtr(22),
			wantFrom: 18,
			wantTo:   40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := testNormalizer(t)

			set := n.Normalize(&models.PreferenceDocument{AgeFrom: tt.from, AgeTo: tt.to})

			assert.Equal(t, tt.wantFrom, set.AgeFrom)
			assert.Equal(t, tt.wantTo, set.AgeTo)
		})
	}
}

func TestNormalize_SetFields(t *testing.T) {
	tests := []struct {
		name         string
		raw          json.RawMessage
		wantWildcard bool
		wantValues   []string
	}{
		{
			name:       "array of values is normalized",
			raw:        json.RawMessage(`["Brahmin", "  KAYASTHA "]`),
			wantValues: []string{"brahmin", "kayastha"},
		},
		{
			name:       "single string is promoted to a set",
			raw:        json.RawMessage(`"Vegetarian"`),
			wantValues: []string{"vegetarian"},
		},
		{
			name:         "absent field is wildcard",
			raw:          nil,
			wantWildcard: true,
		},
		{
			name:         "no preference alias collapses to wildcard",
			raw:          json.RawMessage(`["No Preference"]`),
			wantWildcard: true,
		},
		{
			name:         "wildcard entry overrides siblings",
			raw:          json.RawMessage(`["Brahmin", "Any"]`),
			wantWildcard: true,
		},
		{
			name:         "malformed type defaults to wildcard",
			raw:          json.RawMessage(`{"bad": true}`),
			wantWildcard: true,
		},
		{
			name:         "only empty strings defaults to wildcard",
			raw:          json.RawMessage(`["", "   "]`),
			wantWildcard: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := testNormalizer(t)

			set := n.Normalize(&models.PreferenceDocument{Communities: tt.raw})

			if tt.wantWildcard {
				assert.True(t, set.Communities.IsWildcard())
				return
			}

			assert.False(t, set.Communities.IsWildcard())
			for _, v := range tt.wantValues {
				assert.True(t, set.Communities.Contains(v), "expected %q in set", v)
			}
			assert.Len(t, set.Communities, len(tt.wantValues))
		})
	}
}

func TestNormalize_HabitTolerances(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want models.HabitTolerance
	}{
		{name: "missing defaults to any", raw: nil, want: models.HabitToleranceAny},
		{name: "yes", raw: strPtr("Yes"), want: models.HabitToleranceYes},
		{name: "no", raw: strPtr("no"), want: models.HabitToleranceNo},
		{name: "occasional", raw: strPtr("Occasionally"), want: models.HabitToleranceOccasional},
		{name: "doesn't matter alias", raw: strPtr("Doesn't Matter"), want: models.HabitToleranceAny},
		{name: "unrecognized defaults to any", raw: strPtr("sometimes?"), want: models.HabitToleranceAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := testNormalizer(t)

			set := n.Normalize(&models.PreferenceDocument{Alcohol: tt.raw})

			assert.Equal(t, tt.want, set.Alcohol)
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := testNormalizer(t)
	doc := &models.PreferenceDocument{
		AgeFrom:     intPtr(24),
		AgeTo:       intPtr(31),
		Communities: json.RawMessage(`["B", "A", "C"]`),
		Diets:       json.RawMessage(`["Vegetarian"]`),
		Alcohol:     strPtr("no"),
	}

	first := n.Normalize(doc)
	second := n.Normalize(doc)

	assert.Equal(t, first, second)
	assert.Equal(t, n.Fingerprint(first), n.Fingerprint(second))
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	n := testNormalizer(t)

	a := n.Normalize(&models.PreferenceDocument{Communities: json.RawMessage(`["x", "y", "z"]`)})
	b := n.Normalize(&models.PreferenceDocument{Communities: json.RawMessage(`["z", "x", "y"]`)})

	assert.Equal(t, n.Fingerprint(a), n.Fingerprint(b))
}

func TestFingerprint_ChangesWithPreferences(t *testing.T) {
	n := testNormalizer(t)

	a := n.Normalize(&models.PreferenceDocument{Diets: json.RawMessage(`["vegetarian"]`)})
	b := n.Normalize(&models.PreferenceDocument{Diets: json.RawMessage(`["vegan"]`)})

	assert.NotEqual(t, n.Fingerprint(a), n.Fingerprint(b))
}
