package matching

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/jasmine/pkg/metrics"
	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/preferences"
	"github.com/Ramsey-B/jasmine/pkg/tracing"
)

// ProfileRepository is the read-only profile and preference source. The pool
// query returns ids only; snapshots are fetched per candidate so one bad
// candidate degrades, not fails, a discovery request.
type ProfileRepository interface {
	GetSnapshot(ctx context.Context, userID string) (*models.ProfileSnapshot, error)
	GetPreferences(ctx context.Context, userID string) (*models.PreferenceDocument, error)
	CandidatePool(ctx context.Context, filter models.PoolFilter) ([]string, error)
}

// EventEmitter publishes match lifecycle events. Implementations must not
// block the request path; failures are logged, never surfaced.
type EventEmitter interface {
	MatchComputed(ctx context.Context, result *models.MatchResult)
	MatchPage(ctx context.Context, viewerID string, page *models.CandidatePage)
}

// Service scores compatibility between users. ComputeMatchScore handles one
// ordered pair in both directions; the Finder fans it out over a pool.
type Service struct {
	log        ectologger.Logger
	profiles   ProfileRepository
	normalizer *preferences.Normalizer
	scorers    *Scorers
	aggregator *Aggregator
	events     EventEmitter
	now        func() time.Time
}

// NewService creates a new match scoring service
func NewService(
	log ectologger.Logger,
	profiles ProfileRepository,
	normalizer *preferences.Normalizer,
	scorers *Scorers,
	aggregator *Aggregator,
	events EventEmitter,
) *Service {
	return &Service{
		log:        log,
		profiles:   profiles,
		normalizer: normalizer,
		scorers:    scorers,
		aggregator: aggregator,
		events:     events,
		now:        time.Now,
	}
}

// ComputeMatchScore scores the pair (userID1, userID2) in both directions
// and combines them into a mutual score. Either user missing or not
// scoreable is a not-found; missing preferences are absorbed by the
// normalizer and never fail the request.
func (s *Service) ComputeMatchScore(ctx context.Context, userID1, userID2 string) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.ComputeMatchScore")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"user_id_1": userID1,
		"user_id_2": userID2,
	})

	if userID1 == userID2 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "cannot compute a match score for a user against themselves")
	}

	profile1, pref1, err := s.resolveUser(ctx, userID1)
	if err != nil {
		log.WithError(err).Error("Failed to resolve first user")
		return nil, err
	}

	profile2, pref2, err := s.resolveUser(ctx, userID2)
	if err != nil {
		log.WithError(err).Error("Failed to resolve second user")
		return nil, err
	}

	now := s.now()
	scoreAtoB := s.scoreDirection(pref1, profile2, now)
	scoreBtoA := s.scoreDirection(pref2, profile1, now)

	result := &models.MatchResult{
		UserID1:     userID1,
		UserID2:     userID2,
		ScoreAtoB:   scoreAtoB,
		ScoreBtoA:   scoreBtoA,
		MutualScore: mutualScore(scoreAtoB, scoreBtoA),
		Excluded:    scoreAtoB.Excluded || scoreBtoA.Excluded,
	}

	outcome := "ranked"
	if result.Excluded {
		outcome = "excluded"
	}
	metrics.PairsScoredTotal.WithLabelValues(outcome).Inc()

	log.WithFields(map[string]any{
		"score_a_to_b": scoreAtoB.Score,
		"score_b_to_a": scoreBtoA.Score,
		"mutual_score": result.MutualScore,
		"excluded":     result.Excluded,
	}).Debug("Computed match score")

	if s.events != nil {
		s.events.MatchComputed(ctx, result)
	}

	return result, nil
}

// ScoreCandidate runs the cheaper single-direction half of scoring: the
// viewer's preferences against one candidate. The Finder uses it for
// ranking; the full bidirectional score is computed on demand.
func (s *Service) ScoreCandidate(pref *models.PreferenceSet, candidate *models.ProfileSnapshot, now time.Time) models.DirectionalScore {
	return s.scoreDirection(pref, candidate, now)
}

// NormalizePreferences resolves and canonicalizes one user's preferences
func (s *Service) NormalizePreferences(ctx context.Context, userID string) (*models.PreferenceSet, error) {
	doc, err := s.profiles.GetPreferences(ctx, userID)
	if err != nil {
		if httperror.GetStatusCode(err) == http.StatusNotFound {
			// No stated expectations is not an error
			return s.normalizer.Normalize(nil), nil
		}
		return nil, err
	}
	return s.normalizer.Normalize(doc), nil
}

// PreferenceFingerprint digests a canonical preference set for cache keying
func (s *Service) PreferenceFingerprint(set *models.PreferenceSet) string {
	return s.normalizer.Fingerprint(set)
}

func (s *Service) resolveUser(ctx context.Context, userID string) (*models.ProfileSnapshot, *models.PreferenceSet, error) {
	profile, err := s.profiles.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !profile.Scoreable() {
		return nil, nil, httperror.NewHTTPErrorf(http.StatusNotFound, "user %s does not have an active profile", userID)
	}

	pref, err := s.NormalizePreferences(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return profile, pref, nil
}

func (s *Service) scoreDirection(pref *models.PreferenceSet, candidate *models.ProfileSnapshot, now time.Time) models.DirectionalScore {
	return s.aggregator.Aggregate(s.scorers.ScoreAll(pref, candidate, now))
}

// mutualScore is the harmonic mean of the two directional scores. The
// harmonic mean punishes asymmetry harder than the arithmetic mean, so a
// one-sided pairing ranks well below an evenly strong one.
func mutualScore(a, b models.DirectionalScore) int {
	if a.Excluded || b.Excluded || a.Score == 0 || b.Score == 0 {
		return 0
	}
	harmonic := 2 * float64(a.Score) * float64(b.Score) / float64(a.Score+b.Score)
	return clampScore(int(math.Round(harmonic)))
}
