// Package profile provides read-only access to profile snapshots and
// partner preferences. The matching engine never writes through it.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/jasmine/pkg/database"
	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/tracing"
)

var snapshotColumns = []string{
	"id", "gender", "date_of_birth", "marital_status", "religion", "community",
	"diet", "alcohol", "tobacco", "education", "profession", "income_bracket",
	"country", "state", "is_active", "is_approved", "is_visible",
	"last_active_at", "created_at", "updated_at",
}

// Repository reads profiles and preferences from postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new profile repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetSnapshot returns one profile by user id
func (r *Repository) GetSnapshot(ctx context.Context, userID string) (*models.ProfileSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.GetSnapshot")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(snapshotColumns...)
	sb.From("profiles")
	sb.Where(sb.Equal("id", userID))

	query, args := sb.Build()
	var snapshot models.ProfileSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "user %s not found", userID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID}).Error("Failed to get profile snapshot")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get profile")
	}

	return &snapshot, nil
}

// preferenceCriteria is the jsonb shape of the criteria column
type preferenceCriteria struct {
	MaritalStatuses []string `json:"marital_statuses,omitempty"`
	Countries       []string `json:"countries,omitempty"`
	States          []string `json:"states,omitempty"`
	Communities     []string `json:"communities,omitempty"`
	Diets           []string `json:"diets,omitempty"`
	Educations      []string `json:"educations,omitempty"`
	Professions     []string `json:"professions,omitempty"`
	Alcohol         *string  `json:"alcohol,omitempty"`
	Tobacco         *string  `json:"tobacco,omitempty"`
}

type preferenceRow struct {
	ID        string                             `db:"id"`
	UserID    string                             `db:"user_id"`
	AgeFrom   *int                               `db:"age_from"`
	AgeTo     *int                               `db:"age_to"`
	Criteria  database.JSONB[preferenceCriteria] `db:"criteria"`
	UpdatedAt time.Time                          `db:"updated_at"`
}

// GetPreferences returns one user's raw preference document. A user without
// a stored document gets a not-found; the caller decides whether that means
// "no constraints" or an error.
func (r *Repository) GetPreferences(ctx context.Context, userID string) (*models.PreferenceDocument, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.GetPreferences")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "user_id", "age_from", "age_to", "criteria", "updated_at")
	sb.From("partner_preferences")
	sb.Where(sb.Equal("user_id", userID))

	query, args := sb.Build()
	var row preferenceRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no preferences for user %s", userID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID}).Error("Failed to get partner preferences")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get preferences")
	}

	return row.toDocument()
}

// CandidatePool returns the ids of the cheap-predicate candidate pool for a
// viewer. Only ids come back; the engine fetches each snapshot itself so one
// unreadable candidate cannot take the whole pool down. All per-pair
// evaluation is the engine's job, not the query's.
func (r *Repository) CandidatePool(ctx context.Context, filter models.PoolFilter) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.CandidatePool")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From("profiles")
	sb.Where(
		sb.Equal("gender", string(filter.Gender)),
		sb.Equal("is_active", true),
		sb.Equal("is_approved", true),
		sb.Equal("is_visible", true),
		sb.NotEqual("id", filter.ExcludeUserID),
	)
	// Stable fetch order so a truncated pool is the same pool every time
	sb.OrderBy("last_active_at DESC", "id ASC")
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}

	query, args := sb.Build()
	var pool []string
	if err := r.db.SelectContext(ctx, &pool, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"gender":  filter.Gender,
			"exclude": filter.ExcludeUserID,
		}).Error("Failed to fetch candidate pool")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to fetch candidate pool")
	}

	return pool, nil
}

func (row *preferenceRow) toDocument() (*models.PreferenceDocument, error) {
	criteria := row.Criteria.GetValue()

	doc := &models.PreferenceDocument{
		ID:        row.ID,
		UserID:    row.UserID,
		AgeFrom:   row.AgeFrom,
		AgeTo:     row.AgeTo,
		Alcohol:   criteria.Alcohol,
		Tobacco:   criteria.Tobacco,
		UpdatedAt: row.UpdatedAt,
	}

	fields := []struct {
		values []string
		target *json.RawMessage
	}{
		{criteria.MaritalStatuses, &doc.MaritalStatuses},
		{criteria.Countries, &doc.Countries},
		{criteria.States, &doc.States},
		{criteria.Communities, &doc.Communities},
		{criteria.Diets, &doc.Diets},
		{criteria.Educations, &doc.Educations},
		{criteria.Professions, &doc.Professions},
	}
	for _, field := range fields {
		if len(field.values) == 0 {
			continue
		}
		raw, err := json.Marshal(field.values)
		if err != nil {
			return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to encode preference criteria: %v", err)
		}
		*field.target = raw
	}

	return doc, nil
}
