package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/jasmine/pkg/database"
)

func TestPreferenceRowToDocument(t *testing.T) {
	alcohol := "no"
	ageFrom, ageTo := 25, 35
	row := &preferenceRow{
		ID:      "pref-1",
		UserID:  "user-1",
		AgeFrom: &ageFrom,
		AgeTo:   &ageTo,
		Criteria: database.JSONB[preferenceCriteria]{Data: preferenceCriteria{
			MaritalStatuses: []string{"Never Married"},
			Countries:       []string{"India", "USA"},
			Diets:           []string{"Vegetarian"},
			Alcohol:         &alcohol,
		}},
		UpdatedAt: time.Now(),
	}

	doc, err := row.toDocument()
	require.NoError(t, err)

	assert.Equal(t, "user-1", doc.UserID)
	assert.Equal(t, 25, *doc.AgeFrom)
	assert.Equal(t, 35, *doc.AgeTo)
	require.NotNil(t, doc.Alcohol)
	assert.Equal(t, "no", *doc.Alcohol)
	assert.Nil(t, doc.Tobacco)

	var countries []string
	require.NoError(t, json.Unmarshal(doc.Countries, &countries))
	assert.Equal(t, []string{"India", "USA"}, countries)

	// Fields absent from the stored criteria stay unset so the normalizer
	// applies wildcard semantics
	assert.Nil(t, doc.Communities)
	assert.Nil(t, doc.Educations)
	assert.Nil(t, doc.Professions)
	assert.Nil(t, doc.States)
}

func TestPreferenceRowToDocument_EmptyCriteria(t *testing.T) {
	row := &preferenceRow{ID: "pref-2", UserID: "user-2"}

	doc, err := row.toDocument()
	require.NoError(t, err)

	assert.Nil(t, doc.AgeFrom)
	assert.Nil(t, doc.AgeTo)
	assert.Nil(t, doc.MaritalStatuses)
	assert.Nil(t, doc.Alcohol)
	assert.Nil(t, doc.Tobacco)
}
