package matching

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/jasmine/pkg/metrics"
	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/tracing"
)

const (
	// DefaultWorkerCount is the default number of concurrent scoring workers
	DefaultWorkerCount = 32

	// DefaultPoolLimit caps how many candidates one request will score
	DefaultPoolLimit = 5000
)

// FinderConfig contains configuration for the candidate finder
type FinderConfig struct {
	WorkerCount      int           // concurrent scoring workers (default: 32)
	CandidateTimeout time.Duration // per-candidate scoring budget (default: 200ms)
	PoolLimit        int           // maximum candidates fetched per request (default: 5000)
	DefaultPageSize  int
	MaxPageSize      int
}

// DefaultFinderConfig returns sensible defaults
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{
		WorkerCount:      DefaultWorkerCount,
		CandidateTimeout: 200 * time.Millisecond,
		PoolLimit:        DefaultPoolLimit,
		DefaultPageSize:  20,
		MaxPageSize:      100,
	}
}

// RankedList is a viewer's full non-excluded ranking, the unit the page
// cache stores so page fetches within the TTL do not re-score the pool.
type RankedList struct {
	Candidates      []models.RankedCandidate `json:"candidates"`
	TotalConsidered int                      `json:"total_considered"`
	Partial         bool                     `json:"partial"`
	GeneratedAt     time.Time                `json:"generated_at"`
}

// RankingCache stores ranked lists keyed by viewer and preference
// fingerprint. A miss is (nil, false), never an error the caller must handle.
type RankingCache interface {
	GetRanking(ctx context.Context, viewerID, fingerprint string) (*RankedList, bool)
	SetRanking(ctx context.Context, viewerID, fingerprint string, list *RankedList)
}

// Finder discovers and ranks candidates for one viewer
type Finder struct {
	log    ectologger.Logger
	scorer *Service
	cache  RankingCache
	events EventEmitter
	cfg    FinderConfig
	now    func() time.Time
}

// NewFinder creates a new candidate finder
func NewFinder(
	log ectologger.Logger,
	scorer *Service,
	cache RankingCache,
	events EventEmitter,
	cfg FinderConfig,
) *Finder {
	defaults := DefaultFinderConfig()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaults.WorkerCount
	}
	if cfg.CandidateTimeout <= 0 {
		cfg.CandidateTimeout = defaults.CandidateTimeout
	}
	if cfg.PoolLimit <= 0 {
		cfg.PoolLimit = defaults.PoolLimit
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaults.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaults.MaxPageSize
	}

	return &Finder{
		log:    log,
		scorer: scorer,
		cache:  cache,
		events: events,
		cfg:    cfg,
		now:    time.Now,
	}
}

// FindMatchingUsers returns one page of ranked candidates for the viewer.
// The full ranking is computed once and cached against the viewer's
// preference fingerprint, so subsequent pages within the TTL are slices of
// the same ranking rather than fresh scoring runs.
func (f *Finder) FindMatchingUsers(ctx context.Context, viewerID string, page, pageSize int) (*models.CandidatePage, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Finder.FindMatchingUsers")
	defer span.End()

	started := f.now()
	defer func() {
		metrics.PageDuration.Observe(f.now().Sub(started).Seconds())
	}()

	page, pageSize = f.normalizePaging(page, pageSize)

	log := f.log.WithContext(ctx).WithFields(map[string]any{
		"viewer_id": viewerID,
		"page":      page,
		"page_size": pageSize,
	})

	viewer, err := f.scorer.profiles.GetSnapshot(ctx, viewerID)
	if err != nil {
		log.WithError(err).Error("Failed to resolve viewer")
		return nil, err
	}
	if !viewer.Scoreable() {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "user %s does not have an active profile", viewerID)
	}

	pref, err := f.scorer.NormalizePreferences(ctx, viewerID)
	if err != nil {
		log.WithError(err).Error("Failed to resolve viewer preferences")
		return nil, err
	}

	fingerprint := f.scorer.PreferenceFingerprint(pref)

	if f.cache != nil {
		if list, ok := f.cache.GetRanking(ctx, viewerID, fingerprint); ok {
			metrics.PageCacheHits.WithLabelValues("hit").Inc()
			log.WithFields(map[string]any{"candidate_count": len(list.Candidates)}).Debug("Serving ranking from cache")
			return f.slicePage(list, page, pageSize), nil
		}
		metrics.PageCacheHits.WithLabelValues("miss").Inc()
	}

	pool, err := f.scorer.profiles.CandidatePool(ctx, models.PoolFilter{
		Gender:        viewer.Gender.Opposite(),
		ExcludeUserID: viewerID,
		Limit:         f.cfg.PoolLimit,
	})
	if err != nil {
		log.WithError(err).Error("Failed to fetch candidate pool")
		return nil, err
	}

	metrics.PoolCandidates.Observe(float64(len(pool)))
	log.WithFields(map[string]any{"pool_size": len(pool)}).Debug("Fetched candidate pool")

	list := f.rankPool(ctx, pref, pool)
	list.GeneratedAt = f.now()

	// Partial rankings are not cached so a retry can produce a full one
	if f.cache != nil && !list.Partial {
		f.cache.SetRanking(ctx, viewerID, fingerprint, list)
	}

	log.WithFields(map[string]any{
		"ranked_count": len(list.Candidates),
		"partial":      list.Partial,
	}).Info("Ranked candidate pool")

	result := f.slicePage(list, page, pageSize)

	if f.events != nil {
		f.events.MatchPage(ctx, viewerID, result)
	}

	return result, nil
}

type indexedCandidate struct {
	index int
	id    string
}

type indexedOutcome struct {
	index    int
	ranked   *models.RankedCandidate
	excluded bool
	skipped  bool
}

// rankPool fans fetch-and-score out over a bounded worker pool and sorts the
// survivors. Each worker loads its candidate's snapshot under the per-candidate
// budget; a candidate that cannot be fetched or scored in time is skipped and
// flagged as partial degradation, never fatal to the whole request.
func (f *Finder) rankPool(ctx context.Context, pref *models.PreferenceSet, pool []string) *RankedList {
	if len(pool) == 0 {
		return &RankedList{Candidates: []models.RankedCandidate{}}
	}

	workers := f.cfg.WorkerCount
	if workers > len(pool) {
		workers = len(pool)
	}

	candidateChan := make(chan indexedCandidate, len(pool))
	outcomeChan := make(chan indexedOutcome, len(pool))

	var wg sync.WaitGroup
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go f.worker(workerCtx, &wg, pref, candidateChan, outcomeChan)
	}

	// Sends never block: the channel is buffered to the pool size, so the
	// feed always completes and every worker sees the channel close.
	go func() {
		defer close(candidateChan)
		for i, id := range pool {
			candidateChan <- indexedCandidate{index: i, id: id}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomeChan)
	}()

	list := &RankedList{Candidates: make([]models.RankedCandidate, 0, len(pool))}
	for outcome := range outcomeChan {
		switch {
		case outcome.skipped:
			list.Partial = true
			metrics.PairsScoredTotal.WithLabelValues("skipped").Inc()
		case outcome.excluded:
			metrics.PairsScoredTotal.WithLabelValues("excluded").Inc()
		default:
			list.Candidates = append(list.Candidates, *outcome.ranked)
			metrics.PairsScoredTotal.WithLabelValues("ranked").Inc()
		}
	}

	// Considered means scored and not excluded; skips never count
	list.TotalConsidered = len(list.Candidates)

	sortRanking(list.Candidates)

	return list
}

func (f *Finder) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	pref *models.PreferenceSet,
	candidates <-chan indexedCandidate,
	outcomes chan<- indexedOutcome,
) {
	defer wg.Done()

	for candidate := range candidates {
		select {
		case <-ctx.Done():
			outcomes <- indexedOutcome{index: candidate.index, skipped: true}
			continue
		default:
		}

		outcomes <- f.scoreOne(ctx, pref, candidate)
	}
}

func (f *Finder) scoreOne(ctx context.Context, pref *models.PreferenceSet, candidate indexedCandidate) indexedOutcome {
	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.CandidateTimeout)
	defer cancel()

	profile, err := f.scorer.profiles.GetSnapshot(fetchCtx, candidate.id)
	if err != nil {
		f.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"candidate_id": candidate.id,
		}).Warn("Skipping candidate whose snapshot could not be fetched in budget")
		return indexedOutcome{index: candidate.index, skipped: true}
	}

	// The pool query can race a profile update; a snapshot that is no
	// longer scoreable is dropped like any other exclusion.
	if !profile.Scoreable() {
		return indexedOutcome{index: candidate.index, excluded: true}
	}

	score := f.scorer.ScoreCandidate(pref, profile, f.now())

	if score.Excluded {
		return indexedOutcome{index: candidate.index, excluded: true}
	}

	var lastActive int64
	if !profile.LastActiveAt.IsZero() {
		lastActive = profile.LastActiveAt.Unix()
	}

	return indexedOutcome{
		index: candidate.index,
		ranked: &models.RankedCandidate{
			UserID:       profile.ID,
			Score:        score.Score,
			Breakdown:    score.Breakdown,
			Completeness: profile.Completeness(),
			LastActiveAt: lastActive,
		},
	}
}

// sortRanking orders by score, then completeness, then recency, then id.
// The id tie-break makes the ordering fully deterministic.
func sortRanking(candidates []models.RankedCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Completeness != b.Completeness {
			return a.Completeness > b.Completeness
		}
		if a.LastActiveAt != b.LastActiveAt {
			return a.LastActiveAt > b.LastActiveAt
		}
		return a.UserID < b.UserID
	})
}

func (f *Finder) normalizePaging(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = f.cfg.DefaultPageSize
	}
	if pageSize > f.cfg.MaxPageSize {
		pageSize = f.cfg.MaxPageSize
	}
	return page, pageSize
}

func (f *Finder) slicePage(list *RankedList, page, pageSize int) *models.CandidatePage {
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(list.Candidates) {
		start = len(list.Candidates)
	}
	if end > len(list.Candidates) {
		end = len(list.Candidates)
	}

	return &models.CandidatePage{
		Candidates:      list.Candidates[start:end],
		Page:            page,
		PageSize:        pageSize,
		TotalConsidered: list.TotalConsidered,
		Partial:         list.Partial,
	}
}
